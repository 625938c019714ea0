package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/hbnb-web/internal/session"
	"github.com/hitoshi/hbnb-web/internal/view"
	"github.com/hitoshi/hbnb-web/internal/web"
)

// LoginService はログインハンドラーが必要とするサービスインターフェース。
// auth.Serviceが満たす。
type LoginService interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// TokenStore はアクセストークンCookieの保存・削除のインターフェース。
// session.Storeが満たす。
type TokenStore interface {
	SetToken(w http.ResponseWriter, token string, ttlDays int)
	ClearToken(w http.ResponseWriter)
}

const (
	msgLoginFailed     = "Login failed. Please try again."
	msgLoginSuccessful = "Login successful!"
)

// AuthHandler はログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service LoginService
	tokens  TokenStore
	ttlDays int
	pages   pageWriter
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service LoginService, tokens TokenStore, ttlDays int, pages pageWriter) *AuthHandler {
	return &AuthHandler{
		service: service,
		tokens:  tokens,
		ttlDays: ttlDays,
		pages:   pages,
	}
}

// sessionResponse はセッション状態のJSONレスポンス。
// クレームは検証されていないため、UIの表示切り替えにのみ使う。
type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	IsAdmin       bool   `json:"is_admin"`
	UserID        string `json:"user_id,omitempty"`
}

// LoginForm はログインフォームを表示する。
// GET /login
// ログイン済みの場合は一覧へリダイレクトする。
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.pages.render(w, r, http.StatusOK, web.PageLogin, "Login", view.LoginForm{})
}

// Login はログインを処理する。
// POST /login
// 成功時はトークンCookieを設定して一覧へリダイレクトする。
// 失敗時はCookieを設定せず、入力したメールアドレスを保持してフォームを再表示する。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	token, err := h.service.Login(r.Context(), email, password)
	if err != nil {
		errs, msg := view.FormFeedback(err, msgLoginFailed)
		form := view.LoginForm{
			Email:   email,
			Errors:  errs,
			Message: msg,
		}
		h.pages.render(w, r, statusForError(err), web.PageLogin, "Login", form)
		return
	}

	h.tokens.SetToken(w, token, h.ttlDays)
	h.pages.redirectWithFlash(w, r, "/", msgLoginSuccessful)
}

// Logout はトークンCookieを削除して一覧へリダイレクトする。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.tokens.ClearToken(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Session は現在のセッション状態をJSONで返す。
// GET /session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	userID, _ := sess.CurrentUserID()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(sessionResponse{
		Authenticated: sess.IsAuthenticated(),
		IsAdmin:       sess.IsAdmin(),
		UserID:        userID,
	})
}
