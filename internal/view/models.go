package view

import "strconv"

// PriceOption は価格フィルターの選択肢。
type PriceOption struct {
	Value    string
	Label    string
	Selected bool
}

// priceThresholds は価格フィルターの上限候補。
var priceThresholds = []string{"10", "50", "100"}

// PriceOptions はselectedを選択状態にした価格フィルターの選択肢を返す。
// 空文字列は"all"として扱う。
func PriceOptions(selected string) []PriceOption {
	if selected == "" {
		selected = "all"
	}
	opts := []PriceOption{{Value: "all", Label: "All", Selected: selected == "all"}}
	for _, v := range priceThresholds {
		opts = append(opts, PriceOption{
			Value:    v,
			Label:    "$" + v,
			Selected: selected == v,
		})
	}
	return opts
}

// ListingCard は物件一覧のカード1枚分。
type ListingCard struct {
	ID        string
	Name      string
	Price     float64
	PriceText string
}

// ListingIndex は物件一覧画面。
type ListingIndex struct {
	Cards       []ListingCard
	Empty       bool     // 表示対象が0件
	Error       *Message // 一覧の取得失敗
	FilterError *Message // 価格フィルターの入力不正
	MaxPrice    string
	Options     []PriceOption
}

// ListingDetail は物件詳細画面。
type ListingDetail struct {
	ID          string
	Name        string
	Description string
	PriceText   string
	Location    string
	OwnerName   string

	Amenities      []string
	AmenitiesEmpty bool
	AmenitiesError bool

	Reviews ReviewList

	CanDelete      bool
	ShowReviewForm bool
	OwnerNotice    bool
	ReviewForm     ReviewForm

	Error       *Message // 物件自体の取得失敗
	NotFound    bool
	ActionError *Message // 削除などの操作失敗
}

// AmenitiesNotice は設備欄に表示する代替文言を返す。表示不要の場合は空文字列。
func (d ListingDetail) AmenitiesNotice() string {
	switch {
	case d.AmenitiesError:
		return MsgAmenitiesUnavailable
	case d.AmenitiesEmpty:
		return MsgNoAmenities
	}
	return ""
}

// ReviewItem はレビュー1件分。
type ReviewItem struct {
	ID       string
	PlaceID  string
	UserID   string
	Author   string
	Text     string
	Rating   int
	Stars    []bool
	CanEdit  bool
	Editing  bool
	EditForm *ReviewForm
}

// ReviewList は物件に紐づくレビュー一覧。
type ReviewList struct {
	Items []ReviewItem
	Empty bool
	Error *Message
}

// RatingOption は評価の選択肢。
type RatingOption struct {
	Value    int
	Selected bool
}

// ReviewForm はレビューの投稿・編集フォーム。
type ReviewForm struct {
	Action  string
	PlaceID string
	Text    string
	Rating  string
	Errors  map[string]string // フィールド名 → エラー文言
	Message *Message          // フォーム単位のエラー
}

// FieldError は指定フィールドのエラー文言を返す。
func (f ReviewForm) FieldError(field string) string {
	return f.Errors[field]
}

// RatingOptions は現在値を選択状態にした1〜5の選択肢を返す。
func (f ReviewForm) RatingOptions() []RatingOption {
	opts := make([]RatingOption, 0, 5)
	for i := 1; i <= 5; i++ {
		opts = append(opts, RatingOption{Value: i, Selected: f.Rating == strconv.Itoa(i)})
	}
	return opts
}

// LoginForm はログインフォーム。
type LoginForm struct {
	Email   string
	Errors  map[string]string
	Message *Message
}

// FieldError は指定フィールドのエラー文言を返す。
func (f LoginForm) FieldError(field string) string {
	return f.Errors[field]
}

// Confirm は破壊的操作の確認画面。
type Confirm struct {
	Title      string
	Question   string
	Action     string
	CancelHref string
	Hidden     map[string]string
	Error      *Message
}
