// Package review はレビュー一覧のビューモデル構築と、レビューの投稿・編集・削除を提供する。
//
// 変更操作の成功後は呼び出し側がLoadReviewsを再実行してサーバーの状態を表示する。
// 画面上のデータを推測で書き換えることはしない。
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/hbnb-web/internal/metrics"
	"github.com/hitoshi/hbnb-web/internal/model"
	"github.com/hitoshi/hbnb-web/internal/security"
	"github.com/hitoshi/hbnb-web/internal/session"
	"github.com/hitoshi/hbnb-web/internal/view"
)

// ReviewAPI はレビューまわりのバックエンド呼び出しのインターフェース。
type ReviewAPI interface {
	ListReviews(ctx context.Context) ([]model.Review, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetPlace(ctx context.Context, id string) (*model.Listing, error)
	CreateReview(ctx context.Context, placeID, text string, rating int) (*model.Review, error)
	UpdateReview(ctx context.Context, id, text string, rating int) error
	DeleteReview(ctx context.Context, id string) error
}

// Renderer はレビュー一覧を構築し、レビューの変更操作を行う。
type Renderer struct {
	api       ReviewAPI
	sanitizer security.Sanitizer
	logger    *slog.Logger
	metrics   metrics.Recorder
}

// NewRenderer はRendererの新しいインスタンスを生成する。
func NewRenderer(api ReviewAPI, sanitizer security.Sanitizer, logger *slog.Logger, recorder metrics.Recorder) *Renderer {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Renderer{
		api:       api,
		sanitizer: sanitizer,
		logger:    logger,
		metrics:   recorder,
	}
}

// LoadReviews は物件に紐づくレビュー一覧を構築する。
// 投稿者名はレビューごとに並行して取得し、失敗したレビューのみ"Unknown User"とする。
// 編集・削除の操作は管理者または投稿者本人にのみ表示する。
// 本文は投稿されたままの文字列を保持し、エスケープはテンプレートに任せる。
// 編集フォームの初期値にも同じ値を使うため、ここで加工してはならない。
func (r *Renderer) LoadReviews(ctx context.Context, placeID string, sess session.Session) view.ReviewList {
	all, err := r.api.ListReviews(ctx)
	if err != nil {
		r.logger.Error("レビュー一覧の取得に失敗しました",
			slog.String("place_id", placeID),
			slog.String("error", err.Error()),
		)
		return view.ReviewList{Error: &view.Message{Text: view.MsgReviewsLoadFailed}}
	}

	reviews := make([]model.Review, 0, len(all))
	for _, rv := range all {
		if rv.PlaceID == placeID {
			reviews = append(reviews, rv)
		}
	}
	if len(reviews) == 0 {
		return view.ReviewList{Empty: true}
	}

	authors := r.authorNames(ctx, reviews)

	isAdmin := sess.IsAdmin()
	userID, hasUser := sess.CurrentUserID()

	items := make([]view.ReviewItem, len(reviews))
	for i, rv := range reviews {
		items[i] = view.ReviewItem{
			ID:      rv.ID,
			PlaceID: rv.PlaceID,
			UserID:  rv.UserID,
			Author:  authors[i],
			Text:    rv.Text,
			Rating:  rv.Rating,
			Stars:   view.Stars(float64(rv.Rating)),
			CanEdit: isAdmin || (hasUser && rv.UserID == userID),
		}
	}
	return view.ReviewList{Items: items}
}

// authorNames はレビューごとの投稿者名を並行して取得する。結果の順序はreviewsと同じ。
func (r *Renderer) authorNames(ctx context.Context, reviews []model.Review) []string {
	names := make([]string, len(reviews))
	errs := make([]error, len(reviews))

	var wg sync.WaitGroup
	for i, rv := range reviews {
		wg.Add(1)
		go func(i int, userID string) {
			defer wg.Done()
			names[i], errs[i] = r.authorName(ctx, userID)
		}(i, rv.UserID)
	}
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		section, _ := model.PartialSection(err)
		r.logger.Warn("投稿者情報の取得に失敗しました",
			slog.String("review_id", reviews[i].ID),
			slog.String("section", section),
			slog.String("error", err.Error()),
		)
		r.metrics.RecordDegraded(section)
		names[i] = view.MsgUnknownUser
	}
	return names
}

// authorName は投稿者の表示名を返す。取得できない場合は部分エラーを返す。
func (r *Renderer) authorName(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", model.NewPartialError(metrics.SectionReviewAuthor, errors.New("review has no user_id"))
	}
	user, err := r.api.GetUser(ctx, userID)
	if err != nil {
		return "", model.NewPartialError(metrics.SectionReviewAuthor, fmt.Errorf("user %s: %w", userID, err))
	}
	if name := r.sanitizer.Text(user.DisplayName()); name != "" {
		return name, nil
	}
	return view.MsgUnknownUser, nil
}
