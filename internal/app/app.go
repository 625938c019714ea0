package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/hbnb-web/internal/api"
	"github.com/hitoshi/hbnb-web/internal/auth"
	"github.com/hitoshi/hbnb-web/internal/config"
	"github.com/hitoshi/hbnb-web/internal/handler"
	"github.com/hitoshi/hbnb-web/internal/listing"
	"github.com/hitoshi/hbnb-web/internal/logger"
	"github.com/hitoshi/hbnb-web/internal/metrics"
	"github.com/hitoshi/hbnb-web/internal/middleware"
	"github.com/hitoshi/hbnb-web/internal/review"
	"github.com/hitoshi/hbnb-web/internal/security"
	"github.com/hitoshi/hbnb-web/internal/session"
	"github.com/hitoshi/hbnb-web/internal/web"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再設定する
	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
		slog.String("api_base_url", cfg.APIBaseURL),
	)

	return runServe(cfg)
}

// newHandler は全依存関係をワイヤリングし、ルーターを返す。
// 返されるstop関数はバックグラウンド処理（レート制限のクリーンアップ）を停止する。
func newHandler(cfg *config.Config, reg *prometheus.Registry) (http.Handler, func(), error) {
	log := slog.Default()

	// 1. メトリクス
	collector := metrics.NewCollector(reg)

	// 2. バックエンドAPIクライアント
	client := api.NewClient(cfg.APIBaseURL, &http.Client{Timeout: cfg.APITimeout}, log, collector)

	// 3. ドメインサービスの初期化
	sanitizer := security.NewTextSanitizer()
	reviewRenderer := review.NewRenderer(client, sanitizer, log, collector)
	listingRenderer := listing.NewRenderer(client, reviewRenderer, sanitizer, log, collector)
	authService := auth.NewService(client, log)

	// 4. トークンCookieとテンプレート
	store := session.NewStore(session.StoreConfig{
		CookieName:     cfg.TokenCookieName,
		CookieDomain:   cfg.CookieDomain,
		CookieSecure:   cfg.CookieSecure,
		DefaultTTLDays: cfg.TokenTTLDays,
	})

	templates, err := web.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load templates: %w", err)
	}

	// 5. ルーターの構築
	// configのレート制限はreq/min単位なのでreq/secに変換する
	limits := middleware.RateLimiterConfigPerMinute(cfg.RateLimitGeneral, cfg.RateLimitLogin)
	limits.TrustProxy = cfg.TrustProxy
	rateLimiter := middleware.NewRateLimiter(limits)

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:    log,
		Templates: templates,

		Tokens:            store,
		TokenStore:        store,
		TokenTTLDays:      cfg.TokenTTLDays,
		CookieSecure:      cfg.CookieSecure,
		CookieDomain:      cfg.CookieDomain,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		Listings: listingRenderer,
		Reviews:  reviewRenderer,
		Auth:     authService,

		Gatherer: reg,
	})

	return router, rateLimiter.Stop, nil
}

// runServe はWebサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router, stopBackground, err := newHandler(cfg, reg)
	if err != nil {
		return err
	}
	defer stopBackground()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("web server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down web server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("web server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
