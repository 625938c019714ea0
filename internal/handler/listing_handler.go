package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hbnb-web/internal/session"
	"github.com/hitoshi/hbnb-web/internal/view"
	"github.com/hitoshi/hbnb-web/internal/web"
)

// ListingService は物件ハンドラーが必要とするサービスインターフェース。
// listing.Rendererが満たす。
type ListingService interface {
	LoadListings(ctx context.Context, threshold string) view.ListingIndex
	Loaded() bool
	FilterByMaxPrice(threshold string) view.ListingIndex
	LoadListingDetail(ctx context.Context, id string, sess session.Session) view.ListingDetail
	DeleteListing(ctx context.Context, id string, confirmed bool) error
}

const (
	msgConfirmDeletePlace = "Are you sure you want to delete this place? This action cannot be undone."
	msgPlaceDeleted       = "Place deleted successfully!"
)

// ListingHandler は物件一覧・物件詳細のHTTPハンドラー。
type ListingHandler struct {
	listings ListingService
	pages    pageWriter
}

// NewListingHandler はListingHandlerを生成する。
func NewListingHandler(listings ListingService, pages pageWriter) *ListingHandler {
	return &ListingHandler{
		listings: listings,
		pages:    pages,
	}
}

// Index は物件一覧を表示する。
// GET /?max_price=
// 一覧は毎回取得し直し、max_priceは今回取得した一覧に適用する。
func (h *ListingHandler) Index(w http.ResponseWriter, r *http.Request) {
	idx := h.listings.LoadListings(r.Context(), r.URL.Query().Get("max_price"))
	status := http.StatusOK
	if idx.Error != nil {
		status = http.StatusBadGateway
	}

	h.pages.render(w, r, status, web.PageIndex, "Places", idx)
}

// Filter はキャッシュ済みの物件を価格上限で絞り込んだ一覧部分のみを返す。
// GET /places/filter?max_price=
// キャッシュが未設定の場合のみ一覧を取得する。
func (h *ListingHandler) Filter(w http.ResponseWriter, r *http.Request) {
	if !h.listings.Loaded() {
		if idx := h.listings.LoadListings(r.Context(), ""); idx.Error != nil {
			h.pages.renderFragment(w, r, http.StatusBadGateway, web.PageIndex, web.FragmentListingGrid, idx)
			return
		}
	}

	idx := h.listings.FilterByMaxPrice(r.URL.Query().Get("max_price"))
	status := http.StatusOK
	if idx.FilterError != nil {
		status = http.StatusUnprocessableEntity
	}
	h.pages.renderFragment(w, r, status, web.PageIndex, web.FragmentListingGrid, idx)
}

// Detail は物件詳細とレビュー一覧を表示する。
// GET /places/{id}?edit={reviewID}
func (h *ListingHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d := h.listings.LoadListingDetail(r.Context(), id, session.FromContext(r.Context()))

	if editID := r.URL.Query().Get("edit"); editID != "" {
		openEditForm(&d, editID, nil)
	}

	h.renderDetail(w, r, detailStatus(d), d)
}

// ConfirmDelete は物件削除の確認画面を表示する。
// GET /places/{id}/delete
func (h *ListingHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.pages.render(w, r, http.StatusOK, web.PageConfirm, "Delete Place", deletePlaceConfirm(id))
}

// Delete は確認済みの物件削除を行う。
// POST /places/{id}/delete (confirm=yes)
// 成功時は一覧へ遷移し、失敗時は遷移せずに物件詳細にエラーを表示する。
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	confirmed := r.PostFormValue("confirm") == "yes"

	err := h.listings.DeleteListing(r.Context(), id, confirmed)
	switch {
	case err == nil:
		h.pages.redirectWithFlash(w, r, "/", msgPlaceDeleted)
	case isNotConfirmed(err):
		http.Redirect(w, r, "/places/"+url.PathEscape(id)+"/delete", http.StatusSeeOther)
	default:
		d := h.listings.LoadListingDetail(r.Context(), id, session.FromContext(r.Context()))
		msg := view.MessageFor(err, view.MsgUnexpected)
		msg.Text = "Error deleting place: " + msg.Text
		d.ActionError = &msg
		h.renderDetail(w, r, statusForError(err), d)
	}
}

func (h *ListingHandler) renderDetail(w http.ResponseWriter, r *http.Request, status int, d view.ListingDetail) {
	if d.NotFound {
		h.pages.render(w, r, http.StatusNotFound, web.PageNotFound, "Place Not Found", d.Error)
		return
	}
	title := d.Name
	if title == "" {
		title = "Place"
	}
	h.pages.render(w, r, status, web.PagePlace, title, d)
}

func deletePlaceConfirm(id string) view.Confirm {
	escaped := url.PathEscape(id)
	return view.Confirm{
		Title:      "Delete Place",
		Question:   msgConfirmDeletePlace,
		Action:     "/places/" + escaped + "/delete",
		CancelHref: "/places/" + escaped,
	}
}

// detailStatus は物件詳細のビューモデルからステータスコードを決める。
func detailStatus(d view.ListingDetail) int {
	switch {
	case d.NotFound:
		return http.StatusNotFound
	case d.Error != nil:
		return http.StatusBadGateway
	}
	return http.StatusOK
}

// openEditForm は編集可能なレビューのうちreviewIDに一致するものをインライン編集状態にする。
// formがnilの場合は現在の内容を初期値とする。
func openEditForm(d *view.ListingDetail, reviewID string, form *view.ReviewForm) bool {
	for i := range d.Reviews.Items {
		item := &d.Reviews.Items[i]
		if item.ID != reviewID || !item.CanEdit {
			continue
		}
		if form == nil {
			form = &view.ReviewForm{
				Text:   item.Text,
				Rating: itoaRating(item.Rating),
			}
		}
		form.Action = "/reviews/" + url.PathEscape(item.ID) + "/edit"
		form.PlaceID = d.ID
		item.Editing = true
		item.EditForm = form
		return true
	}
	return false
}
