package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv はテスト対象の環境変数を空にする。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"API_BASE_URL", "API_TIMEOUT", "SERVER_PORT", "BASE_URL",
		"TOKEN_COOKIE_NAME", "TOKEN_TTL_DAYS", "COOKIE_DOMAIN",
		"RATE_LIMIT_GENERAL", "RATE_LIMIT_LOGIN", "TRUST_PROXY", "CORS_ALLOWED_ORIGIN", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), ".env")
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile(missingEnvFile(t))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.APIBaseURL != "http://localhost:5000/api/v1" {
		t.Errorf("APIBaseURL = %q, want default", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 0 {
		t.Errorf("APITimeout = %v, want 0", cfg.APITimeout)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
	if cfg.TokenCookieName != "hbnb_token" {
		t.Errorf("TokenCookieName = %q, want %q", cfg.TokenCookieName, "hbnb_token")
	}
	if cfg.TokenTTLDays != 7 {
		t.Errorf("TokenTTLDays = %d, want 7", cfg.TokenTTLDays)
	}
	if cfg.CookieSecure {
		t.Error("CookieSecure should be false for http BASE_URL")
	}
	if cfg.RateLimitGeneral != 120 || cfg.RateLimitLogin != 10 {
		t.Errorf("RateLimit = %d/%d, want 120/10", cfg.RateLimitGeneral, cfg.RateLimitLogin)
	}
	if cfg.TrustProxy {
		t.Error("TrustProxy should be false by default")
	}
	if cfg.CORSAllowedOrigin != "http://localhost:3000" {
		t.Errorf("CORSAllowedOrigin = %q, want default", cfg.CORSAllowedOrigin)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_BASE_URL", "https://api.example.com/api/v1/")
	t.Setenv("API_TIMEOUT", "15s")
	t.Setenv("BASE_URL", "https://hbnb.example.com")
	t.Setenv("TOKEN_TTL_DAYS", "30")
	t.Setenv("COOKIE_DOMAIN", "example.com")
	t.Setenv("RATE_LIMIT_LOGIN", "3")
	t.Setenv("TRUST_PROXY", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadFile(missingEnvFile(t))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.APIBaseURL != "https://api.example.com/api/v1" {
		t.Errorf("APIBaseURL = %q, want trailing slash trimmed", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 15*time.Second {
		t.Errorf("APITimeout = %v, want 15s", cfg.APITimeout)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should be true for https BASE_URL")
	}
	if cfg.TokenTTLDays != 30 {
		t.Errorf("TokenTTLDays = %d, want 30", cfg.TokenTTLDays)
	}
	if cfg.CookieDomain != "example.com" {
		t.Errorf("CookieDomain = %q, want %q", cfg.CookieDomain, "example.com")
	}
	if cfg.RateLimitLogin != 3 {
		t.Errorf("RateLimitLogin = %d, want 3", cfg.RateLimitLogin)
	}
	if !cfg.TrustProxy {
		t.Error("TrustProxy should be true when TRUST_PROXY=true")
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel)
	}
}

func TestLoad_InvalidValues_FallBackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_TIMEOUT", "soon")
	t.Setenv("TOKEN_TTL_DAYS", "-1")
	t.Setenv("RATE_LIMIT_GENERAL", "many")
	t.Setenv("TRUST_PROXY", "sometimes")
	t.Setenv("LOG_LEVEL", "loud")

	cfg, err := LoadFile(missingEnvFile(t))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.APITimeout != 0 {
		t.Errorf("APITimeout = %v, want 0", cfg.APITimeout)
	}
	if cfg.TokenTTLDays != 7 {
		t.Errorf("TokenTTLDays = %d, want 7", cfg.TokenTTLDays)
	}
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want 120", cfg.RateLimitGeneral)
	}
	if cfg.TrustProxy {
		t.Error("TrustProxy should fall back to false")
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
}

func TestLoad_InvalidAPIBaseURL_ReturnsError(t *testing.T) {
	tests := []string{"localhost:5000", "ftp://api.example.com", "/api/v1"}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("API_BASE_URL", raw)

			if _, err := LoadFile(missingEnvFile(t)); err == nil {
				t.Errorf("expected error for API_BASE_URL=%q", raw)
			}
		})
	}
}

func TestLoad_EnvFile_DoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("SERVER_PORT")
	os.Unsetenv("COOKIE_DOMAIN")
	t.Setenv("TOKEN_COOKIE_NAME", "from_env")

	path := filepath.Join(t.TempDir(), ".env")
	content := "SERVER_PORT=9090\nTOKEN_COOKIE_NAME=from_file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("SERVER_PORT") })

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want value from file", cfg.ServerPort)
	}
	if cfg.TokenCookieName != "from_env" {
		t.Errorf("TokenCookieName = %q, want environment to win", cfg.TokenCookieName)
	}
}
