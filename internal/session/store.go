package session

import (
	"net/http"
	"time"
)

// DefaultTTLDays はトークンCookieのデフォルト有効日数。
const DefaultTTLDays = 7

// StoreConfig はトークンCookieの設定。
type StoreConfig struct {
	CookieName     string
	CookieDomain   string
	CookieSecure   bool
	DefaultTTLDays int
}

// Store はBearerトークンを1つのCookieに保存する。
// このCookieが認証状態の唯一の情報源となる。
type Store struct {
	config StoreConfig
	now    func() time.Time
}

// NewStore はStoreを生成する。
// CookieNameが空の場合は"hbnb_token"、DefaultTTLDaysが0以下の場合は7日を使用する。
func NewStore(config StoreConfig) *Store {
	if config.CookieName == "" {
		config.CookieName = "hbnb_token"
	}
	if config.DefaultTTLDays <= 0 {
		config.DefaultTTLDays = DefaultTTLDays
	}
	return &Store{
		config: config,
		now:    time.Now,
	}
}

// CookieName はトークンCookieの名前を返す。
func (s *Store) CookieName() string {
	return s.config.CookieName
}

// SetToken はトークンを有効期限付きで保存する。既存のトークンは上書きされる。
// ttlDaysが0以下の場合はデフォルトの有効日数を使用する。
func (s *Store) SetToken(w http.ResponseWriter, token string, ttlDays int) {
	if ttlDays <= 0 {
		ttlDays = s.config.DefaultTTLDays
	}
	maxAge := ttlDays * 24 * 60 * 60

	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   s.config.CookieDomain,
		MaxAge:   maxAge,
		Expires:  s.now().Add(time.Duration(maxAge) * time.Second).UTC(),
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token はリクエストのCookieからトークンを取得する。
// Cookieが存在しないか空の場合はfalseを返す。
func (s *Store) Token(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(s.config.CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// ClearToken はトークンCookieを即時に失効させる。
func (s *Store) ClearToken(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   s.config.CookieDomain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Session はリクエストのCookieからSessionを構築する。
func (s *Store) Session(r *http.Request) Session {
	token, _ := s.Token(r)
	return New(token)
}
