package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/hbnb-web/internal/metrics"
	"github.com/hitoshi/hbnb-web/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger    *slog.Logger
	Templates TemplateRenderer

	// ミドルウェア依存
	Tokens            middleware.TokenReader
	TokenStore        TokenStore
	TokenTTLDays      int
	CookieSecure      bool
	CookieDomain      string
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// サービス
	Listings ListingService
	Reviews  ReviewService
	Auth     LoginService

	// メトリクス
	Gatherer prometheus.Gatherer
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → SecurityHeaders → Session → RateLimit(General) → CSRF
//
// /health と /metrics はミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	pages := pageWriter{
		templates:    deps.Templates,
		logger:       deps.Logger,
		cookieSecure: deps.CookieSecure,
	}
	listingHandler := NewListingHandler(deps.Listings, pages)
	reviewHandler := NewReviewHandler(deps.Reviews, deps.Listings, pages)
	authHandler := NewAuthHandler(deps.Auth, deps.TokenStore, deps.TokenTTLDays, pages)

	// --- 監視用のルート ---
	r.Get("/health", Health)
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 画面のルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRequestIDMiddleware())
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
		r.Use(middleware.NewRecoveryMiddleware())
		r.Use(middleware.NewSecurityHeadersMiddleware())
		r.Use(middleware.NewSessionMiddleware(deps.Tokens))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(middleware.CSRFConfig{
			CookieSecure: deps.CookieSecure,
			CookieDomain: deps.CookieDomain,
		}))

		// 物件
		r.Get("/", listingHandler.Index)
		r.Get("/places/filter", listingHandler.Filter)
		r.Get("/places/{id}", listingHandler.Detail)

		// ログイン（ログイン試行専用のレート制限を追加）
		r.Get("/login", authHandler.LoginForm)
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		// セッション状態（別オリジンのUIから参照される）
		cors := middleware.NewCORSMiddleware(deps.CORSAllowedOrigin)
		r.With(cors).Get("/session", authHandler.Session)
		r.With(cors).Options("/session", authHandler.Session)

		// --- 認証が必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewRequireAuthMiddleware("/login"))

			r.Get("/places/{id}/delete", listingHandler.ConfirmDelete)
			r.Post("/places/{id}/delete", listingHandler.Delete)
			r.Post("/places/{id}/reviews", reviewHandler.Submit)

			r.Get("/reviews/new", reviewHandler.NewForm)
			r.Post("/reviews/new", reviewHandler.Create)
			r.Post("/reviews/{id}/edit", reviewHandler.Edit)
			r.Get("/reviews/{id}/delete", reviewHandler.ConfirmDelete)
			r.Post("/reviews/{id}/delete", reviewHandler.Delete)
		})
	})

	return r
}
