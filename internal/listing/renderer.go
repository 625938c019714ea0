// Package listing は物件一覧・物件詳細のビューモデル構築を提供する。
//
// Rendererは物件一覧のキャッシュを1つだけ保持する。キャッシュは取得のたびに
// 丸ごと置き換えられ、価格フィルターはキャッシュに対してのみ行う（通信しない）。
package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/hitoshi/hbnb-web/internal/metrics"
	"github.com/hitoshi/hbnb-web/internal/model"
	"github.com/hitoshi/hbnb-web/internal/security"
	"github.com/hitoshi/hbnb-web/internal/session"
	"github.com/hitoshi/hbnb-web/internal/view"
)

// PlaceAPI は物件まわりのバックエンド呼び出しのインターフェース。
type PlaceAPI interface {
	ListPlaces(ctx context.Context) ([]model.Listing, error)
	GetPlace(ctx context.Context, id string) (*model.Listing, error)
	DeletePlace(ctx context.Context, id string) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetAmenity(ctx context.Context, id string) (*model.Amenity, error)
}

// ReviewLoader は物件詳細に埋め込むレビュー一覧を構築する。
type ReviewLoader interface {
	LoadReviews(ctx context.Context, placeID string, sess session.Session) view.ReviewList
}

// Renderer は物件一覧・物件詳細のビューモデルを構築する。
type Renderer struct {
	api       PlaceAPI
	reviews   ReviewLoader
	sanitizer security.Sanitizer
	logger    *slog.Logger
	metrics   metrics.Recorder

	mu     sync.RWMutex
	cache  []model.Listing
	loaded bool
}

// NewRenderer はRendererの新しいインスタンスを生成する。
func NewRenderer(api PlaceAPI, reviews ReviewLoader, sanitizer security.Sanitizer, logger *slog.Logger, recorder metrics.Recorder) *Renderer {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Renderer{
		api:       api,
		reviews:   reviews,
		sanitizer: sanitizer,
		logger:    logger,
		metrics:   recorder,
	}
}

// LoadListings は物件一覧を取得してキャッシュを置き換え、取得した一覧を
// thresholdで絞り込んだカード一覧を返す。絞り込みはキャッシュではなく今回
// 取得した一覧に対して行う。取得に失敗した場合はエラーブロックを返し、
// キャッシュは変更しない。
func (r *Renderer) LoadListings(ctx context.Context, threshold string) view.ListingIndex {
	places, err := r.api.ListPlaces(ctx)
	if err != nil {
		r.logger.Error("物件一覧の取得に失敗しました", slog.String("error", err.Error()))
		return view.ListingIndex{
			Error:   view.ErrorBlock("Error Loading Places", err, view.MsgPlacesLoadFailed),
			Options: view.PriceOptions(""),
		}
	}

	r.replace(places)
	listings, err := filterByPrice(places, threshold)
	return r.filteredIndex(listings, threshold, err)
}

// Loaded はキャッシュが一度でも設定されたかどうかを返す。
func (r *Renderer) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// FilterByMaxPrice はキャッシュ済みの物件を価格上限で絞り込んだカード一覧を返す。
// 閾値が不正な場合は入力エラーを付けて絞り込み前の一覧を返す。
func (r *Renderer) FilterByMaxPrice(threshold string) view.ListingIndex {
	listings, err := r.Filtered(threshold)
	return r.filteredIndex(listings, threshold, err)
}

// Filtered はキャッシュ済みの物件のうち価格がthreshold以下のものを元の順序で返す。
// "all"または空文字列の場合は全件を返す。キャッシュ自体は変更しない。
func (r *Renderer) Filtered(threshold string) ([]model.Listing, error) {
	return filterByPrice(r.snapshot(), threshold)
}

// filterByPrice はlistingsを変更せずに絞り込む。
func filterByPrice(listings []model.Listing, threshold string) ([]model.Listing, error) {
	threshold = strings.TrimSpace(threshold)
	if threshold == "" || threshold == "all" {
		return listings, nil
	}

	maxPrice, err := strconv.ParseFloat(threshold, 64)
	if err != nil || math.IsNaN(maxPrice) {
		return listings, model.NewValidationError("max_price", "Please choose a valid maximum price.")
	}

	filtered := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if l.Price <= maxPrice {
			filtered = append(filtered, l)
		}
	}
	return filtered, nil
}

// LoadListingDetail は物件詳細のビューモデルを構築する。
// 物件自体の取得失敗のみ画面全体のエラーとし、所有者名・設備名の取得失敗は
// その欄だけを代替表示にする。
func (r *Renderer) LoadListingDetail(ctx context.Context, id string, sess session.Session) view.ListingDetail {
	d := view.ListingDetail{ID: id}

	place, err := r.api.GetPlace(ctx, id)
	if err != nil {
		r.logger.Error("物件の取得に失敗しました",
			slog.String("place_id", id),
			slog.String("error", err.Error()),
		)
		d.Error = view.ErrorBlock("Error Loading Place", err, view.MsgPlaceLoadFailed)
		d.NotFound = model.IsNotFound(err)
		return d
	}

	d.Name = r.sanitizer.Text(place.Name)
	d.Description = r.sanitizer.Text(place.Description)
	d.PriceText = view.FormatPrice(place.Price)
	d.Location = view.FormatLocation(place.Latitude, place.Longitude)

	var (
		wg                   sync.WaitGroup
		ownerErr, amenityErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		d.OwnerName, ownerErr = r.ownerName(ctx, place.OwnerID)
	}()
	go func() {
		defer wg.Done()
		d.Amenities, d.AmenitiesEmpty, amenityErr = r.amenityNames(ctx, place.AmenityIDs)
	}()
	go func() {
		defer wg.Done()
		d.Reviews = r.reviews.LoadReviews(ctx, id, sess)
	}()
	wg.Wait()

	if ownerErr != nil {
		r.degrade(place.ID, ownerErr)
		d.OwnerName = view.MsgUnknownOwner
	}
	if amenityErr != nil {
		r.degrade(place.ID, amenityErr)
		d.Amenities = nil
		d.AmenitiesError = true
	}

	d.CanDelete = sess.IsAdmin()

	// 所有者判定は直前に取得した物件のowner_idで行う
	userID, ok := sess.CurrentUserID()
	isOwner := ok && place.OwnerID != "" && place.OwnerID == userID
	switch {
	case isOwner:
		d.OwnerNotice = true
	case sess.IsAuthenticated():
		d.ShowReviewForm = true
		d.ReviewForm = view.ReviewForm{
			Action:  "/places/" + url.PathEscape(id) + "/reviews",
			PlaceID: id,
		}
	}

	return d
}

// DeleteListing は確認済みの場合のみ物件を削除する。
// 成功時はキャッシュからも取り除く。
func (r *Renderer) DeleteListing(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return model.ErrNotConfirmed
	}
	if err := r.api.DeletePlace(ctx, id); err != nil {
		r.logger.Error("物件の削除に失敗しました",
			slog.String("place_id", id),
			slog.String("error", err.Error()),
		)
		return err
	}
	r.drop(id)
	return nil
}

// ownerName は所有者の表示名を返す。取得できない場合は部分エラーを返す。
func (r *Renderer) ownerName(ctx context.Context, ownerID string) (string, error) {
	if ownerID == "" {
		return "", model.NewPartialError(metrics.SectionOwner, errors.New("place has no owner_id"))
	}
	owner, err := r.api.GetUser(ctx, ownerID)
	if err != nil {
		return "", model.NewPartialError(metrics.SectionOwner, fmt.Errorf("owner %s: %w", ownerID, err))
	}
	if name := r.sanitizer.Text(owner.DisplayName()); name != "" {
		return name, nil
	}
	return view.MsgUnknownOwner, nil
}

// amenityNames は設備IDごとに並行して名前を取得し、全件の完了を待つ。
// 1件でも失敗した場合は設備欄全体を取得失敗として部分エラーを返す。
func (r *Renderer) amenityNames(ctx context.Context, ids []string) (names []string, empty bool, err error) {
	if len(ids) == 0 {
		return nil, true, nil
	}

	names = make([]string, len(ids))
	errs := make([]error, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			amenity, err := r.api.GetAmenity(ctx, id)
			if err != nil {
				errs[i] = err
				return
			}
			names[i] = r.sanitizer.Text(amenity.Name)
		}(i, id)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, false, model.NewPartialError(metrics.SectionAmenities, fmt.Errorf("amenity %s: %w", ids[i], err))
		}
	}
	return names, false, nil
}

// degrade は部分エラーをログとメトリクスに記録する。表示文言の差し替えは呼び出し側で行う。
func (r *Renderer) degrade(placeID string, err error) {
	section, _ := model.PartialSection(err)
	r.logger.Warn("物件詳細の一部を取得できませんでした",
		slog.String("place_id", placeID),
		slog.String("section", section),
		slog.String("error", err.Error()),
	)
	r.metrics.RecordDegraded(section)
}

func (r *Renderer) filteredIndex(listings []model.Listing, threshold string, err error) view.ListingIndex {
	idx := r.index(listings, threshold)
	if err != nil {
		msg := view.MessageFor(err, "")
		idx.FilterError = &msg
	}
	return idx
}

func (r *Renderer) index(listings []model.Listing, threshold string) view.ListingIndex {
	cards := make([]view.ListingCard, 0, len(listings))
	for _, l := range listings {
		cards = append(cards, view.ListingCard{
			ID:        l.ID,
			Name:      r.sanitizer.Text(l.Name),
			Price:     l.Price,
			PriceText: view.FormatPrice(l.Price),
		})
	}
	return view.ListingIndex{
		Cards:    cards,
		Empty:    len(cards) == 0,
		MaxPrice: threshold,
		Options:  view.PriceOptions(strings.TrimSpace(threshold)),
	}
}

// replace はキャッシュを丸ごと置き換える。
func (r *Renderer) replace(places []model.Listing) {
	cache := make([]model.Listing, len(places))
	copy(cache, places)

	r.mu.Lock()
	r.cache = cache
	r.loaded = true
	r.mu.Unlock()

	r.metrics.SetListingCacheSize(len(cache))
}

func (r *Renderer) drop(id string) {
	r.mu.Lock()
	next := make([]model.Listing, 0, len(r.cache))
	for _, l := range r.cache {
		if l.ID != id {
			next = append(next, l)
		}
	}
	r.cache = next
	size := len(next)
	r.mu.Unlock()

	r.metrics.SetListingCacheSize(size)
}

// snapshot はキャッシュのコピーを返す。
func (r *Renderer) snapshot() []model.Listing {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Listing, len(r.cache))
	copy(out, r.cache)
	return out
}
