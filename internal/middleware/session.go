// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/hbnb-web/internal/session"
)

// TokenReader はリクエストからBearerトークンを読み取るインターフェース。
// session.Storeが満たす。
type TokenReader interface {
	Token(r *http.Request) (string, bool)
}

// NewSessionMiddleware はトークンCookieを読み取り、
// Sessionをリクエストコンテキストに注入するミドルウェアを返す。
// トークンの有無にかかわらずリクエストは拒否しない（未認証は空のSession）。
func NewSessionMiddleware(tokens TokenReader) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, _ := tokens.Token(r)
			sess := session.New(token)
			if userID, ok := sess.CurrentUserID(); ok {
				annotateUserID(r.Context(), userID)
			}
			ctx := session.ContextWithSession(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRequireAuthMiddleware は未認証のリクエストをloginPathへリダイレクトするミドルウェアを返す。
// SessionMiddlewareの後に配置する。
func NewRequireAuthMiddleware(loginPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !session.FromContext(r.Context()).IsAuthenticated() {
				slog.Info("unauthenticated request redirected to login",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromRequest はリクエストのSessionからユーザーIDを取得する。
// クレームは検証されていないため、ログ・表示用途に限る。
func UserIDFromRequest(r *http.Request) (string, bool) {
	return session.FromContext(r.Context()).CurrentUserID()
}
