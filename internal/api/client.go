// Package api はHBnB REST APIのクライアントを提供する。
// JSONリクエストの送信、Bearerトークンの付与、非2xx応答の型付きエラーへの変換を行う。
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/hbnb-web/internal/metrics"
	"github.com/hitoshi/hbnb-web/internal/model"
	"github.com/hitoshi/hbnb-web/internal/session"
)

// maxTextMessageLen は非JSON応答から切り出すメッセージの最大文字数。
const maxTextMessageLen = 200

// Request はAPI呼び出し1回分の内容を表す。
type Request struct {
	Method  string
	Path    string // ベースURLからの相対パス（例: "/places/abc"）
	Route   string // メトリクス用のルートテンプレート（例: "/places/{id}"）。空の場合はPath
	Body    any
	Headers map[string]string
}

// Client はHBnB REST APIのクライアント。
// 1回の呼び出しにつき1回だけ送信し、リトライやバックオフは行わない。
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    metrics.Recorder
}

// NewClient はClientの新しいインスタンスを生成する。
// recorderがnilの場合はメトリクスを記録しない。
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger, recorder metrics.Recorder) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		metrics:    recorder,
	}
}

// BaseURL は接続先のベースURLを返す。
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do はリクエストを送信し、2xx応答のJSONをoutにデコードする。
// コンテキストのSessionにトークンがあればAuthorizationヘッダーを付与する。
// 非2xx応答はKindApplication、送信失敗はKindNetworkの*model.APIErrorを返す。
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	route := req.Route
	if route == "" {
		route = req.Path
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+req.Path, body)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token := session.FromContext(ctx).Token(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	c.logger.Debug("API呼び出し",
		slog.String("method", method),
		slog.String("path", req.Path),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.RecordNetworkError(method, route)
		c.logger.Warn("APIへの接続に失敗しました",
			slog.String("method", method),
			slog.String("path", req.Path),
			slog.String("error", err.Error()),
		)
		if ctx.Err() != nil {
			return model.NewCanceledError(err)
		}
		return model.NewNetworkError(c.baseURL, err)
	}
	defer resp.Body.Close()

	c.metrics.RecordAPIRequest(method, route, resp.StatusCode, time.Since(start))

	payload, message, readErr := readPayload(resp)
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	if !ok {
		if message == "" {
			message = messageFromPayload(payload)
		}
		apiErr := model.NewStatusError(resp.StatusCode, message)
		c.logger.Warn("APIがエラーステータスを返しました",
			slog.String("method", method),
			slog.String("path", req.Path),
			slog.Int("status", resp.StatusCode),
			slog.String("error", apiErr.Message),
		)
		return apiErr
	}

	if readErr != nil {
		c.logger.Warn("APIレスポンスの読み取りに失敗しました",
			slog.String("method", method),
			slog.String("path", req.Path),
			slog.String("error", readErr.Error()),
		)
		return model.NewNetworkError(c.baseURL, readErr)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	return nil
}

// readPayload はレスポンスボディを読み取り、JSONペイロードを返す。
// JSONとして扱えない場合はpayloadをnilとし、代わりに表示用メッセージを返す。
//   - Content-Typeがapplication/json: そのままJSONとして扱う
//   - それ以外: 本文をJSONとして解釈し、失敗時は本文先頭から合成したメッセージ
//   - 読み取り・パース不能: "Server error: <status> <status text>"
func readPayload(resp *http.Response) (payload []byte, message string, err error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, serverErrorMessage(resp.StatusCode), err
	}

	text := bytes.TrimSpace(raw)
	if len(text) == 0 {
		return nil, "", nil
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		if !json.Valid(text) {
			return nil, serverErrorMessage(resp.StatusCode), nil
		}
		return text, "", nil
	}

	if json.Valid(text) {
		return text, "", nil
	}

	s := string(text)
	if strings.Contains(s, "401") || strings.Contains(s, "Unauthorized") {
		return nil, model.MsgInvalidCredentials, nil
	}
	return nil, truncate(s, maxTextMessageLen), nil
}

// messageFromPayload はエラー応答のmessage、なければerrorフィールドを返す。
func messageFromPayload(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error"} {
		if s, ok := body[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func serverErrorMessage(status int) string {
	return fmt.Sprintf("Server error: %d %s", status, http.StatusText(status))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

