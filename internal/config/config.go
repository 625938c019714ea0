// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Backend
	APIBaseURL string
	APITimeout time.Duration // 0は無効（タイムアウトなし）

	// Server
	ServerPort string
	BaseURL    string

	// Token Cookie
	TokenCookieName string
	TokenTTLDays    int
	CookieSecure    bool
	CookieDomain    string

	// Rate Limit（分あたりの回数）
	RateLimitGeneral int
	RateLimitLogin   int
	TrustProxy       bool // X-Forwarded-Forをレート制限のキーに使う

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel slog.Level
}

// Load はカレントディレクトリの.envファイル（任意）と環境変数からConfigを読み込む。
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile は指定した.envファイルと環境変数からConfigを読み込む。
// ファイルが存在しない場合はエラーとしない。既に設定済みの環境変数が優先される。
func LoadFile(envFile string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := &Config{}

	apiBaseURL, err := parseAPIBaseURL(getEnvString("API_BASE_URL", "http://localhost:5000/api/v1"))
	if err != nil {
		return nil, err
	}
	cfg.APIBaseURL = apiBaseURL

	cfg.APITimeout = getEnvDuration("API_TIMEOUT", 0)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8080")
	cfg.TokenCookieName = getEnvString("TOKEN_COOKIE_NAME", "hbnb_token")
	cfg.TokenTTLDays = getEnvInt("TOKEN_TTL_DAYS", 7)
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.TrustProxy = getEnvBool("TRUST_PROXY", false)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.LogLevel = getEnvLogLevel("LOG_LEVEL", slog.LevelInfo)

	return cfg, nil
}

// parseAPIBaseURL はバックエンドのベースURLを検証し、末尾のスラッシュを取り除く。
func parseAPIBaseURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("API_BASE_URL must be an absolute http(s) URL: %q", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return defaultVal
	}
	return d
}

func getEnvLogLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return level
}
