package session

import (
	"context"

	"github.com/hitoshi/hbnb-web/internal/model"
)

// Session はリクエストに付随するトークンから得られる認証状態。
// ゼロ値は未認証を表す。
type Session struct {
	token string
}

// New はトークンからSessionを生成する。
func New(token string) Session {
	return Session{token: token}
}

// Token は保持しているトークンを返す。未認証の場合は空文字列。
func (s Session) Token() string {
	return s.token
}

// IsAuthenticated はトークンが存在する場合にtrueを返す。
// 有効期限や署名は確認しない（サーバーの責務）。
func (s Session) IsAuthenticated() bool {
	return s.token != ""
}

// Claims はトークンのクレームを返す。デコードできない場合はfalse。
func (s Session) Claims() (model.Claims, bool) {
	if !s.IsAuthenticated() {
		return nil, false
	}
	return DecodeClaims(s.token)
}

// IsAdmin はis_adminクレームが真偽値trueの場合のみtrueを返す。
func (s Session) IsAdmin() bool {
	claims, ok := s.Claims()
	if !ok {
		return false
	}
	return isAdminClaim(claims)
}

// CurrentUserID はsubクレーム、なければidentityクレームを返す。
func (s Session) CurrentUserID() (string, bool) {
	claims, ok := s.Claims()
	if !ok {
		return "", false
	}
	return userIDClaim(claims)
}

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var sessionContextKey = contextKey("session")

// ContextWithSession はコンテキストにSessionを注入する。
func ContextWithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// FromContext はコンテキストからSessionを取得する。
// 未設定の場合は未認証のSessionを返す。
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(sessionContextKey).(Session)
	return s
}
