package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func testRateConfig(burst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    burst,
		LoginRate:       1,
		LoginBurst:      burst,
		CleanupInterval: 1 * time.Minute,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestFrom(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":12345"
	return req
}

// --- GeneralMiddleware のテスト ---

func TestRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(testRateConfig(5))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	// バースト内の5リクエストは全て通る
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("10.0.0.1"))
		if w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
}

func TestRateLimitMiddleware_Returns429WithRetryAfterAndJSON(t *testing.T) {
	rl := NewRateLimiter(testRateConfig(2))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.2"))
	}

	w := httptest.NewRecorder()
	req := requestFrom("10.0.0.2")
	req.Header.Set("Accept", "application/json")
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil || retryAfter < 1 {
		t.Errorf("Retry-After = %q, want positive integer", w.Header().Get("Retry-After"))
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("code = %q, want RATE_LIMIT_EXCEEDED", body.Code)
	}
	if body.Kind != "rate_limit" {
		t.Errorf("kind = %q, want rate_limit", body.Kind)
	}
}

func TestRateLimitMiddleware_PageRequestGetsPlainText(t *testing.T) {
	rl := NewRateLimiter(testRateConfig(1))
	defer rl.Stop()

	handler := rl.LoginMiddleware()(okHandler())

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("email=a%40b.c&password=x"))
		req.RemoteAddr = "10.0.0.20:12345"
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}
	post()
	w := post()

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After should be set for page requests too")
	}
	if !strings.Contains(w.Body.String(), "Too many requests.") {
		t.Errorf("body = %q", w.Body.String())
	}
	if strings.HasPrefix(strings.TrimSpace(w.Body.String()), "{") {
		t.Errorf("page request should not receive JSON: %q", w.Body.String())
	}
}

func TestRateLimitMiddleware_IgnoresForwardedForByDefault(t *testing.T) {
	cfg := RateLimiterConfigPerMinute(120, 3)
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	handler := rl.LoginMiddleware()(okHandler())

	var limited int
	for i := 0; i < 50; i++ {
		req := requestFrom("203.0.113.9")
		req.Header.Set("X-Forwarded-For", "10.0.0."+strconv.Itoa(i+1))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code == http.StatusTooManyRequests {
			limited++
		}
	}

	if limited != 47 {
		t.Errorf("limited = %d, want 47 (burst 3 from one RemoteAddr)", limited)
	}
	if rl.LoginLimiterCount() != 1 {
		t.Errorf("login limiter count = %d, want 1", rl.LoginLimiterCount())
	}
}

func TestRateLimitMiddleware_TrustProxyKeysOnForwardedFor(t *testing.T) {
	cfg := testRateConfig(1)
	cfg.TrustProxy = true
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	for _, client := range []string{"198.51.100.1", "198.51.100.2"} {
		req := requestFrom("10.0.0.254")
		req.Header.Set("X-Forwarded-For", client)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("client %s status = %d, want %d", client, w.Code, http.StatusOK)
		}
	}
	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("limiter count = %d, want 2", rl.GeneralLimiterCount())
	}
}

func TestRateLimitMiddleware_IsolatesClientIPs(t *testing.T) {
	rl := NewRateLimiter(testRateConfig(1))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.3"))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.4"))
	if w.Code != http.StatusOK {
		t.Errorf("other client status = %d, want %d", w.Code, http.StatusOK)
	}
	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("limiter count = %d, want 2", rl.GeneralLimiterCount())
	}
}

func TestLoginRateLimit_IndependentFromGeneralLimit(t *testing.T) {
	rl := NewRateLimiter(testRateConfig(1))
	defer rl.Stop()

	general := rl.GeneralMiddleware()(okHandler())
	login := rl.LoginMiddleware()(okHandler())

	general.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.5"))

	w := httptest.NewRecorder()
	login.ServeHTTP(w, requestFrom("10.0.0.5"))
	if w.Code != http.StatusOK {
		t.Errorf("login status = %d, want %d", w.Code, http.StatusOK)
	}

	w = httptest.NewRecorder()
	login.ServeHTTP(w, requestFrom("10.0.0.5"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second login status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if rl.LoginLimiterCount() != 1 {
		t.Errorf("login limiter count = %d, want 1", rl.LoginLimiterCount())
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{"RemoteAddrのみ", "192.0.2.1:5555", "", false, "192.0.2.1"},
		{"信頼しない場合はX-Forwarded-Forを無視", "203.0.113.9:5555", "10.0.0.1", false, "203.0.113.9"},
		{"信頼する場合はX-Forwarded-Forの末尾", "127.0.0.1:5555", "10.9.9.9, 203.0.113.7", true, "203.0.113.7"},
		{"信頼するがヘッダーなし", "192.0.2.5:5555", "", true, "192.0.2.5"},
		{"ポートなし", "192.0.2.9", "", false, "192.0.2.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientIP(req, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- クリーンアップのテスト ---

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	cfg := testRateConfig(5)
	cfg.CleanupInterval = 50 * time.Millisecond // テスト用に短く

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	rl.GeneralMiddleware()(okHandler()).ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.6"))

	if rl.GeneralLimiterCount() == 0 {
		t.Fatal("expected at least one limiter entry")
	}

	// TTLはCleanupIntervalの2倍（100ms）
	time.Sleep(250 * time.Millisecond)

	if count := rl.GeneralLimiterCount(); count != 0 {
		t.Errorf("expected 0 limiter entries after cleanup, got %d", count)
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(testRateConfig(1))
	rl.Stop()
	rl.Stop()
}

// --- 設定値のテスト ---

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()

	if cfg.GeneralRate != 2.0 { // 120/60 = 2
		t.Errorf("GeneralRate = %f, want 2.0", cfg.GeneralRate)
	}
	if cfg.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", cfg.GeneralBurst)
	}
	if cfg.LoginBurst != 10 {
		t.Errorf("LoginBurst = %d, want 10", cfg.LoginBurst)
	}
}

func TestRateLimiterConfigPerMinute_NonPositiveFallsBack(t *testing.T) {
	cfg := RateLimiterConfigPerMinute(0, -3)
	if cfg.GeneralBurst != 120 || cfg.LoginBurst != 10 {
		t.Errorf("bursts = %d/%d, want 120/10", cfg.GeneralBurst, cfg.LoginBurst)
	}
}
