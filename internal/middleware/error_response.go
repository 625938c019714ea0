package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hitoshi/hbnb-web/internal/model"
)

// ErrorResponseBody はJSONエラーレスポンスの統一フォーマット。
// エラーの分類と対処方法を含む。
type ErrorResponseBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
	Action  string `json:"action,omitempty"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// AcceptヘッダーがJSONを求める場合はJSON、それ以外はプレーンテキストで返す。
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, apiErr *model.APIError) {
	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(ErrorResponseBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Kind:    string(apiErr.Kind),
			Action:  apiErr.Action,
		})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	msg := apiErr.Message
	if apiErr.Action != "" {
		msg += " " + apiErr.Action
	}
	w.Write([]byte(msg + "\n"))
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter, r *http.Request) {
	WriteErrorResponse(w, r, http.StatusInternalServerError, &model.APIError{
		Kind:    model.KindApplication,
		Code:    "INTERNAL_ERROR",
		Status:  http.StatusInternalServerError,
		Message: "An unexpected error occurred.",
		Action:  "Please wait and try again.",
	})
}

// wantsJSON はリクエストがJSONレスポンスを求めているかを判定する。
func wantsJSON(r *http.Request) bool {
	if r == nil {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
