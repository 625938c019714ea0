package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestInit_WithValidConfig_Succeeds(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://api.example.com/api/v1/")
	t.Setenv("BASE_URL", "https://hbnb.example.com")
	t.Setenv("LOG_LEVEL", "")

	var buf bytes.Buffer
	cfg, err := Init(&buf)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg == nil {
		t.Fatal("expected non-nil config")
	}

	if cfg.APIBaseURL != "http://api.example.com/api/v1" {
		t.Errorf("APIBaseURL = %q, want trailing slash trimmed", cfg.APIBaseURL)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should be true for an https BASE_URL")
	}

	// slogのグローバルロガーがJSON出力に設定されていることを確認する
	slog.Default().Info("init test")
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log output, got error: %v\nraw: %s", err, buf.String())
	}
	if entry["msg"] != "init test" {
		t.Errorf("msg = %q, want %q", entry["msg"], "init test")
	}
}

func TestInit_AppliesLogLevel(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:5000/api/v1")
	t.Setenv("LOG_LEVEL", "warn")

	var buf bytes.Buffer
	if _, err := Init(&buf); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	slog.Default().Info("suppressed")
	slog.Default().Warn("emitted")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Error("info log should be suppressed at warn level")
	}
	if !strings.Contains(out, "emitted") {
		t.Error("warn log should be emitted")
	}
}

func TestInit_WithInvalidAPIBaseURL_ReturnsError(t *testing.T) {
	t.Setenv("API_BASE_URL", "ftp://files.example.com")

	var buf bytes.Buffer
	cfg, err := Init(&buf)
	if err == nil {
		t.Fatal("expected error for invalid API_BASE_URL, got nil")
	}
	if cfg != nil {
		t.Error("expected nil config on error")
	}
}
