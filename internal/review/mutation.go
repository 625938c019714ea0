package review

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hitoshi/hbnb-web/internal/model"
	"github.com/hitoshi/hbnb-web/internal/session"
)

// ReviewInput はレビューフォームの入力値。
type ReviewInput struct {
	PlaceID string
	Text    string
	Rating  string
	// Standalone は物件IDを利用者が入力する単独のレビュー投稿画面からの送信であることを示す。
	Standalone bool
}

// ガード失敗時の文言
const (
	msgNotLoggedIn      = "You must be logged in to submit a review."
	msgPlaceUnverified  = "Could not verify place information. Please try again."
	msgInvalidPlace     = "Invalid place. Please refresh the page and try again."
	msgPlaceNotFound    = "Place not found. Please refresh the page and try again."
	msgInvalidPlaceID   = "Invalid place. Please check the Place ID and try again."
	msgPlaceIDNotFound  = "Place not found. Please check the Place ID and try again."
	msgRatingOutOfRange = "Rating must be a whole number between 1 and 5"
)

// SubmitReview はレビューを投稿する。
//
// 通信前に入力を検証し、続いて物件を取得し直して所有者を確認する。
// 現在のユーザーが物件の所有者である場合は書き込みAPIを呼ばずに拒否する。
// サーバー側の同じルールによる拒否も同一のOWN_PLACEエラーに揃える。
func (r *Renderer) SubmitReview(ctx context.Context, in ReviewInput, sess session.Session) error {
	placeID := strings.TrimSpace(in.PlaceID)
	if placeID == "" {
		return model.NewValidationError("place_id", "Place ID is required")
	}
	text, rating, err := validate(in.Text, in.Rating)
	if err != nil {
		return err
	}

	place, err := r.api.GetPlace(ctx, placeID)
	if err != nil {
		r.logger.Warn("レビュー投稿前の物件確認に失敗しました",
			slog.String("place_id", placeID),
			slog.String("error", err.Error()),
		)
		if model.IsNotFound(err) {
			msg := msgPlaceNotFound
			if in.Standalone {
				msg = msgPlaceIDNotFound
			}
			return wrapGuard(model.ErrCodePlaceNotFound, msg, err)
		}
		return wrapGuard(model.ErrCodePlaceUnverified, msgPlaceUnverified, err)
	}
	if place.OwnerID == "" {
		msg := msgInvalidPlace
		if in.Standalone {
			msg = msgInvalidPlaceID
		}
		return model.NewGuardError(model.ErrCodeInvalidPlace, msg)
	}

	userID, ok := sess.CurrentUserID()
	if !ok {
		return model.NewGuardError(model.ErrCodeNotLoggedIn, msgNotLoggedIn)
	}
	if userID == place.OwnerID {
		return model.NewOwnPlaceError()
	}

	if _, err := r.api.CreateReview(ctx, placeID, text, rating); err != nil {
		r.logger.Error("レビューの投稿に失敗しました",
			slog.String("place_id", placeID),
			slog.String("error", err.Error()),
		)
		return normalizeOwnPlace(err)
	}
	return nil
}

// EditReview はレビューを更新する。入力検証は通信前に行う。
func (r *Renderer) EditReview(ctx context.Context, id, text, rating string) error {
	t, n, err := validate(text, rating)
	if err != nil {
		return err
	}
	if err := r.api.UpdateReview(ctx, id, t, n); err != nil {
		r.logger.Error("レビューの更新に失敗しました",
			slog.String("review_id", id),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// DeleteReview は確認済みの場合のみレビューを削除する。
func (r *Renderer) DeleteReview(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return model.ErrNotConfirmed
	}
	if err := r.api.DeleteReview(ctx, id); err != nil {
		r.logger.Error("レビューの削除に失敗しました",
			slog.String("review_id", id),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// validate は本文と評価を検証し、前後の空白を除いた本文と数値の評価を返す。
func validate(text, rating string) (string, int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", 0, model.NewValidationError("text", "Review text is required")
	}
	rating = strings.TrimSpace(rating)
	if rating == "" {
		return "", 0, model.NewValidationError("rating", "Rating is required")
	}
	n, err := strconv.Atoi(rating)
	if err != nil || n < 1 || n > 5 {
		return "", 0, model.NewValidationError("rating", msgRatingOutOfRange)
	}
	return text, n, nil
}

func wrapGuard(code, message string, cause error) *model.APIError {
	e := model.NewGuardError(code, message)
	e.Err = cause
	return e
}

// normalizeOwnPlace はサーバーが返した「自分の物件」拒否をOWN_PLACEエラーに揃える。
func normalizeOwnPlace(err error) error {
	apiErr, ok := model.AsAPIError(err)
	if !ok || apiErr.Kind != model.KindApplication {
		return err
	}
	if strings.Contains(strings.ToLower(apiErr.Message), "own place") {
		e := model.NewOwnPlaceError()
		e.Status = apiErr.Status
		e.Err = err
		return e
	}
	return err
}
