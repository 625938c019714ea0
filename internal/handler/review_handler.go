package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hbnb-web/internal/review"
	"github.com/hitoshi/hbnb-web/internal/session"
	"github.com/hitoshi/hbnb-web/internal/view"
	"github.com/hitoshi/hbnb-web/internal/web"
)

// ReviewService はレビューハンドラーが必要とするサービスインターフェース。
// review.Rendererが満たす。
type ReviewService interface {
	SubmitReview(ctx context.Context, in review.ReviewInput, sess session.Session) error
	EditReview(ctx context.Context, id, text, rating string) error
	DeleteReview(ctx context.Context, id string, confirmed bool) error
}

const (
	msgSubmitFailed        = "Failed to submit review. Please try again."
	msgUpdateFailed        = "Error updating review"
	msgConfirmDeleteReview = "Are you sure you want to delete this review? This action cannot be undone."
	msgReviewSubmitted     = "Review submitted successfully!"
	msgReviewUpdated       = "Review updated successfully!"
	msgReviewDeleted       = "Review deleted successfully!"
)

// ReviewHandler はレビューの投稿・編集・削除のHTTPハンドラー。
// 変更に成功した場合は物件詳細へリダイレクトし、サーバーの状態を再取得して表示する。
type ReviewHandler struct {
	reviews  ReviewService
	listings ListingService
	pages    pageWriter
}

// NewReviewHandler はReviewHandlerを生成する。
func NewReviewHandler(reviews ReviewService, listings ListingService, pages pageWriter) *ReviewHandler {
	return &ReviewHandler{
		reviews:  reviews,
		listings: listings,
		pages:    pages,
	}
}

// Submit は物件詳細画面からのレビュー投稿を処理する。
// POST /places/{id}/reviews
// 失敗時は入力内容を保持したまま物件詳細を再表示する。
func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "id")
	sess := session.FromContext(r.Context())
	in := review.ReviewInput{
		PlaceID: placeID,
		Text:    r.PostFormValue("text"),
		Rating:  r.PostFormValue("rating"),
	}

	err := h.reviews.SubmitReview(r.Context(), in, sess)
	if err == nil {
		h.pages.redirectWithFlash(w, r, placePath(placeID)+"#reviews", msgReviewSubmitted)
		return
	}

	d := h.listings.LoadListingDetail(r.Context(), placeID, sess)
	if d.NotFound {
		h.pages.render(w, r, http.StatusNotFound, web.PageNotFound, "Place Not Found", d.Error)
		return
	}

	errs, msg := view.FormFeedback(err, msgSubmitFailed)
	d.ReviewForm.Text = in.Text
	d.ReviewForm.Rating = in.Rating
	d.ReviewForm.Errors = errs
	d.ReviewForm.Message = msg
	if !d.ShowReviewForm && !d.OwnerNotice && msg != nil {
		d.ActionError = msg
	}
	h.pages.render(w, r, statusForError(err), web.PagePlace, d.Name, d)
}

// NewForm は物件IDを入力する単独のレビュー投稿画面を表示する。
// GET /reviews/new?place_id=
func (h *ReviewHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	form := view.ReviewForm{
		Action:  "/reviews/new",
		PlaceID: r.URL.Query().Get("place_id"),
	}
	h.pages.render(w, r, http.StatusOK, web.PageAddReview, "Add Review", form)
}

// Create は単独のレビュー投稿画面からの送信を処理する。
// POST /reviews/new
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	in := review.ReviewInput{
		PlaceID:    strings.TrimSpace(r.PostFormValue("place_id")),
		Text:       r.PostFormValue("text"),
		Rating:     r.PostFormValue("rating"),
		Standalone: true,
	}

	err := h.reviews.SubmitReview(r.Context(), in, session.FromContext(r.Context()))
	if err == nil {
		h.pages.redirectWithFlash(w, r, placePath(in.PlaceID)+"#reviews", msgReviewSubmitted)
		return
	}

	errs, msg := view.FormFeedback(err, msgSubmitFailed)
	form := view.ReviewForm{
		Action:  "/reviews/new",
		PlaceID: in.PlaceID,
		Text:    in.Text,
		Rating:  in.Rating,
		Errors:  errs,
		Message: msg,
	}
	h.pages.render(w, r, statusForError(err), web.PageAddReview, "Add Review", form)
}

// Edit はインライン編集フォームからのレビュー更新を処理する。
// POST /reviews/{id}/edit (place_id は戻り先の物件)
// 失敗時は編集フォームを開いたまま物件詳細を再表示する。
func (h *ReviewHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	placeID := strings.TrimSpace(r.PostFormValue("place_id"))
	text := r.PostFormValue("text")
	rating := r.PostFormValue("rating")

	err := h.reviews.EditReview(r.Context(), id, text, rating)
	if err == nil {
		h.pages.redirectWithFlash(w, r, returnPath(placeID)+"#review-"+url.PathEscape(id), msgReviewUpdated)
		return
	}

	if placeID == "" {
		msg := view.MessageFor(err, msgUpdateFailed)
		h.pages.render(w, r, statusForError(err), web.PageNotFound, "Review", &msg)
		return
	}

	d := h.listings.LoadListingDetail(r.Context(), placeID, session.FromContext(r.Context()))
	errs, msg := view.FormFeedback(err, msgUpdateFailed)
	form := &view.ReviewForm{
		Text:    text,
		Rating:  rating,
		Errors:  errs,
		Message: msg,
	}
	if !openEditForm(&d, id, form) && msg != nil {
		d.ActionError = msg
	}
	status := statusForError(err)
	if d.Error != nil {
		status = detailStatus(d)
	}
	if d.NotFound {
		h.pages.render(w, r, status, web.PageNotFound, "Place Not Found", d.Error)
		return
	}
	h.pages.render(w, r, status, web.PagePlace, d.Name, d)
}

// ConfirmDelete はレビュー削除の確認画面を表示する。
// GET /reviews/{id}/delete?place_id=
func (h *ReviewHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	placeID := r.URL.Query().Get("place_id")
	h.pages.render(w, r, http.StatusOK, web.PageConfirm, "Delete Review", deleteReviewConfirm(id, placeID, nil))
}

// Delete は確認済みのレビュー削除を行う。
// POST /reviews/{id}/delete (confirm=yes, place_id)
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	placeID := strings.TrimSpace(r.PostFormValue("place_id"))
	confirmed := r.PostFormValue("confirm") == "yes"

	err := h.reviews.DeleteReview(r.Context(), id, confirmed)
	switch {
	case err == nil:
		h.pages.redirectWithFlash(w, r, returnPath(placeID)+"#reviews", msgReviewDeleted)
	case isNotConfirmed(err):
		target := "/reviews/" + url.PathEscape(id) + "/delete"
		if placeID != "" {
			target += "?place_id=" + url.QueryEscape(placeID)
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	default:
		msg := view.MessageFor(err, view.MsgUnexpected)
		msg.Text = "Error deleting review: " + msg.Text
		h.pages.render(w, r, statusForError(err), web.PageConfirm, "Delete Review", deleteReviewConfirm(id, placeID, &msg))
	}
}

func deleteReviewConfirm(id, placeID string, errMsg *view.Message) view.Confirm {
	c := view.Confirm{
		Title:      "Delete Review",
		Question:   msgConfirmDeleteReview,
		Action:     "/reviews/" + url.PathEscape(id) + "/delete",
		CancelHref: returnPath(placeID),
		Error:      errMsg,
	}
	if placeID != "" {
		c.Hidden = map[string]string{"place_id": placeID}
	}
	return c
}

func placePath(placeID string) string {
	return "/places/" + url.PathEscape(placeID)
}

// returnPath は操作後の戻り先を返す。物件が不明な場合は一覧へ戻る。
func returnPath(placeID string) string {
	if placeID == "" {
		return "/"
	}
	return placePath(placeID)
}

func itoaRating(rating int) string {
	if rating < 1 || rating > 5 {
		return ""
	}
	return strconv.Itoa(rating)
}
