package handler

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/hitoshi/hbnb-web/internal/middleware"
	"github.com/hitoshi/hbnb-web/internal/review"
	"github.com/hitoshi/hbnb-web/internal/session"
	"github.com/hitoshi/hbnb-web/internal/view"
	"github.com/hitoshi/hbnb-web/internal/web"
)

// --- モック定義 ---

type mockListingService struct {
	loadListingsFn func(ctx context.Context, threshold string) view.ListingIndex
	loadedFn       func() bool
	filterFn       func(threshold string) view.ListingIndex
	detailFn       func(ctx context.Context, id string, sess session.Session) view.ListingDetail
	deleteFn       func(ctx context.Context, id string, confirmed bool) error

	loadCalls   int
	filterCalls int
}

func (m *mockListingService) LoadListings(ctx context.Context, threshold string) view.ListingIndex {
	m.loadCalls++
	if m.loadListingsFn != nil {
		return m.loadListingsFn(ctx, threshold)
	}
	return view.ListingIndex{Empty: true, Options: view.PriceOptions("")}
}

func (m *mockListingService) Loaded() bool {
	if m.loadedFn != nil {
		return m.loadedFn()
	}
	return true
}

func (m *mockListingService) FilterByMaxPrice(threshold string) view.ListingIndex {
	m.filterCalls++
	if m.filterFn != nil {
		return m.filterFn(threshold)
	}
	return view.ListingIndex{Empty: true, MaxPrice: threshold, Options: view.PriceOptions(threshold)}
}

func (m *mockListingService) LoadListingDetail(ctx context.Context, id string, sess session.Session) view.ListingDetail {
	if m.detailFn != nil {
		return m.detailFn(ctx, id, sess)
	}
	return view.ListingDetail{ID: id, Name: "Place " + id}
}

func (m *mockListingService) DeleteListing(ctx context.Context, id string, confirmed bool) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, confirmed)
	}
	return nil
}

type mockReviewService struct {
	submitFn func(ctx context.Context, in review.ReviewInput, sess session.Session) error
	editFn   func(ctx context.Context, id, text, rating string) error
	deleteFn func(ctx context.Context, id string, confirmed bool) error
}

func (m *mockReviewService) SubmitReview(ctx context.Context, in review.ReviewInput, sess session.Session) error {
	if m.submitFn != nil {
		return m.submitFn(ctx, in, sess)
	}
	return nil
}

func (m *mockReviewService) EditReview(ctx context.Context, id, text, rating string) error {
	if m.editFn != nil {
		return m.editFn(ctx, id, text, rating)
	}
	return nil
}

func (m *mockReviewService) DeleteReview(ctx context.Context, id string, confirmed bool) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, confirmed)
	}
	return nil
}

type mockLoginService struct {
	loginFn func(ctx context.Context, email, password string) (string, error)
}

func (m *mockLoginService) Login(ctx context.Context, email, password string) (string, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return "", nil
}

// --- テストヘルパー ---

const testCSRFToken = "test-csrf-token"

var (
	userToken  = testToken(`{"sub":"u1"}`)
	adminToken = testToken(`{"sub":"admin1","is_admin":true}`)
)

// testToken はペイロードを埋め込んだ署名なしトークンを生成する。
func testToken(payload string) string {
	return "h." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + ".s"
}

type testServer struct {
	handler  http.Handler
	listings *mockListingService
	reviews  *mockReviewService
	auth     *mockLoginService
	store    *session.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithLimits(t, middleware.DefaultRateLimiterConfig())
}

func newTestServerWithLimits(t *testing.T, limits middleware.RateLimiterConfig) *testServer {
	t.Helper()

	templates, err := web.New()
	if err != nil {
		t.Fatalf("web.New() error = %v", err)
	}
	rl := middleware.NewRateLimiter(limits)
	t.Cleanup(rl.Stop)

	ts := &testServer{
		listings: &mockListingService{},
		reviews:  &mockReviewService{},
		auth:     &mockLoginService{},
		store:    session.NewStore(session.StoreConfig{}),
	}
	ts.handler = NewRouter(&RouterDeps{
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Templates:         templates,
		Tokens:            ts.store,
		TokenStore:        ts.store,
		TokenTTLDays:      7,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		Listings:          ts.listings,
		Reviews:           ts.reviews,
		Auth:              ts.auth,
	})
	return ts
}

func (ts *testServer) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: ts.store.CookieName(), Value: token})
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

// postForm はCSRFトークン付きのフォームを送信する。
func (ts *testServer) postForm(path, token string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	form.Set(middleware.CSRFFormField, testCSRFToken)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testCSRFToken})
	if token != "" {
		req.AddCookie(&http.Cookie{Name: ts.store.CookieName(), Value: token})
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func parseHTML(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(w.Body.String()))
	if err != nil {
		t.Fatalf("failed to parse HTML: %v", err)
	}
	return doc
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d\nbody: %s", w.Code, http.StatusSeeOther, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != location {
		t.Errorf("Location = %q, want %q", got, location)
	}
}

func assertFlash(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	c := findCookie(w, flashCookieName)
	if c == nil {
		t.Fatal("flash cookie should be set")
	}
	if got, _ := url.QueryUnescape(c.Value); got != want {
		t.Errorf("flash = %q, want %q", got, want)
	}
}
