// Package view は画面描画用のビューモデルを定義する。
//
// ビューモデルは純粋なデータ構造で、テンプレートとテストの両方から利用する。
// エラーから表示文言への変換はこのパッケージ（描画境界）でのみ行う。
package view

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hitoshi/hbnb-web/internal/model"
)

// 固定の表示文言
const (
	MsgNoAmenities          = "No amenities listed"
	MsgAmenitiesUnavailable = "Unable to load amenities"
	MsgReviewsLoadFailed    = "Error loading reviews. Please try again later."
	MsgUnknownOwner         = "Unknown"
	MsgUnknownUser          = "Unknown User"
	MsgPlacesLoadFailed     = "Failed to load places. Please try again later."
	MsgPlaceLoadFailed      = "Failed to load place details. Please try again later."
	MsgUnexpected           = "Something went wrong. Please try again."
)

// Page はナビゲーションなど全画面共通の状態。
type Page struct {
	Title         string
	Authenticated bool
	IsAdmin       bool
	UserID        string
	CSRFToken     string
	Flash         string
	RequestID     string
}

// Document はテンプレートに渡すデータ。共通状態と画面固有のビューモデルを持つ。
type Document struct {
	Page Page
	Body any
}

// Message はブロック単位またはフォーム単位で表示するメッセージ。
type Message struct {
	Title string
	Text  string
	Hint  string
}

// MessageFor はエラーを表示用メッセージに変換する。
// *model.APIError以外のエラーや空メッセージの場合はfallbackを使う。
func MessageFor(err error, fallback string) Message {
	if fallback == "" {
		fallback = MsgUnexpected
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return Message{Text: apiErr.Message, Hint: apiErr.Action}
	}
	return Message{Text: fallback}
}

// ErrorBlock はタイトル付きのエラーブロックを生成する。
func ErrorBlock(title string, err error, fallback string) *Message {
	m := MessageFor(err, fallback)
	m.Title = title
	return &m
}

var usPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatPrice は価格を小数点なしの米ドル表記（例: $1,250）に整形する。
// 端数は四捨五入する。
func FormatPrice(price float64) string {
	rounded := math.Round(price)
	if rounded < 0 {
		return usPrinter.Sprintf("-$%d", int64(-rounded))
	}
	return usPrinter.Sprintf("$%d", int64(rounded))
}

// FormatLocation は座標を小数点以下4桁で整形する。
func FormatLocation(lat, lng float64) string {
	return fmt.Sprintf("Lat: %.4f, Lng: %.4f", lat, lng)
}

// Stars は評価を5つの星の点灯状態に変換する。
// 整数部分の数だけ点灯し、小数部分が0.5以上なら次の1つも点灯する。
func Stars(rating float64) []bool {
	full := int(math.Floor(rating))
	half := rating-math.Floor(rating) >= 0.5

	stars := make([]bool, 5)
	for i := range stars {
		switch {
		case i < full:
			stars[i] = true
		case i == full && half:
			stars[i] = true
		}
	}
	return stars
}

// FormFeedback はエラーをフォーム表示用に振り分ける。
// 入力検証エラーはフィールド横に、それ以外はフォーム単位のメッセージとして返す。
func FormFeedback(err error, fallback string) (map[string]string, *Message) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Kind == model.KindValidation && apiErr.Field != "" {
		return map[string]string{apiErr.Field: apiErr.Message}, nil
	}
	m := MessageFor(err, fallback)
	return nil, &m
}
