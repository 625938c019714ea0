package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hitoshi/hbnb-web/internal/model"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type createReviewRequest struct {
	Text    string `json:"text"`
	Rating  int    `json:"rating"`
	PlaceID string `json:"place_id"`
}

type updateReviewRequest struct {
	Text   string `json:"text"`
	Rating int    `json:"rating"`
}

// Login は認証を行い、アクセストークンを返す。
// 2xx応答にaccess_tokenが含まれない場合はNO_ACCESS_TOKENエラーを返す。
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   loginRequest{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", model.NewNoAccessTokenError()
	}
	return resp.AccessToken, nil
}

// ListPlaces は物件一覧を取得する。
func (c *Client) ListPlaces(ctx context.Context) ([]model.Listing, error) {
	var places []model.Listing
	if err := c.Do(ctx, Request{Path: "/places/"}, &places); err != nil {
		return nil, err
	}
	return places, nil
}

// GetPlace は物件を1件取得する。
func (c *Client) GetPlace(ctx context.Context, id string) (*model.Listing, error) {
	var place model.Listing
	err := c.Do(ctx, Request{
		Path:  "/places/" + url.PathEscape(id),
		Route: "/places/{id}",
	}, &place)
	if err != nil {
		return nil, err
	}
	return &place, nil
}

// DeletePlace は物件を削除する。
func (c *Client) DeletePlace(ctx context.Context, id string) error {
	return c.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   "/places/" + url.PathEscape(id),
		Route:  "/places/{id}",
	}, nil)
}

// GetUser はユーザーを1件取得する。
func (c *Client) GetUser(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := c.Do(ctx, Request{
		Path:  "/users/" + url.PathEscape(id),
		Route: "/users/{id}",
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetAmenity は設備を1件取得する。
func (c *Client) GetAmenity(ctx context.Context, id string) (*model.Amenity, error) {
	var amenity model.Amenity
	err := c.Do(ctx, Request{
		Path:  "/amenities/" + url.PathEscape(id),
		Route: "/amenities/{id}",
	}, &amenity)
	if err != nil {
		return nil, err
	}
	return &amenity, nil
}

// ListReviews はレビュー一覧を取得する。物件による絞り込みは呼び出し側で行う。
func (c *Client) ListReviews(ctx context.Context) ([]model.Review, error) {
	var reviews []model.Review
	if err := c.Do(ctx, Request{Path: "/reviews/"}, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// CreateReview はレビューを投稿する。
func (c *Client) CreateReview(ctx context.Context, placeID, text string, rating int) (*model.Review, error) {
	var review model.Review
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/reviews/",
		Body:   createReviewRequest{Text: text, Rating: rating, PlaceID: placeID},
	}, &review)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// UpdateReview はレビューを更新する。
func (c *Client) UpdateReview(ctx context.Context, id, text string, rating int) error {
	return c.Do(ctx, Request{
		Method: http.MethodPut,
		Path:   "/reviews/" + url.PathEscape(id),
		Route:  "/reviews/{id}",
		Body:   updateReviewRequest{Text: text, Rating: rating},
	}, nil)
}

// DeleteReview はレビューを削除する。
func (c *Client) DeleteReview(ctx context.Context, id string) error {
	return c.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   "/reviews/" + url.PathEscape(id),
		Route:  "/reviews/{id}",
	}, nil)
}
