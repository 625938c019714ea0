// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind はエラーの分類を表す。
// 表示文言の選択は描画層でのみ行い、それまでは分類とコードで扱う。
type ErrorKind string

const (
	// KindValidation はネットワークに到達する前の入力検証エラー。
	KindValidation ErrorKind = "validation"
	// KindGuard はクライアント側の事前チェック（所有者チェック等）の失敗。
	KindGuard ErrorKind = "guard"
	// KindApplication はバックエンドが返したステータスコード付きのエラー。
	KindApplication ErrorKind = "application"
	// KindNetwork は接続拒否・DNS失敗などの通信エラー。
	KindNetwork ErrorKind = "network"
	// KindPartial は副次的な参照（所有者名・設備名・投稿者名）の失敗。
	KindPartial ErrorKind = "partial"
	// KindRateLimit はこのサーバーのレート制限による拒否。
	KindRateLimit ErrorKind = "rate_limit"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示するメッセージと、必要に応じて対処方法を含む。
type APIError struct {
	Kind    ErrorKind // 分類
	Code    string    // エラーコード
	Status  int       // バックエンドのHTTPステータス（application以外は0）
	Message string    // 表示用メッセージ
	Field   string    // 入力検証エラーの対象フィールド
	Action  string    // ユーザー向け対処方法
	Err     error     // 原因となったエラー
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は原因となったエラーを返す。
func (e *APIError) Unwrap() error {
	return e.Err
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeServerError        = "SERVER_ERROR"
	ErrCodeHTTPError          = "HTTP_ERROR"
	ErrCodeNetworkError       = "NETWORK_ERROR"
	ErrCodeNoAccessToken      = "NO_ACCESS_TOKEN"
	ErrCodeOwnPlace           = "OWN_PLACE"
	ErrCodeNotLoggedIn        = "NOT_LOGGED_IN"
	ErrCodePlaceUnverified    = "PLACE_UNVERIFIED"
	ErrCodePlaceNotFound      = "PLACE_NOT_FOUND"
	ErrCodeInvalidPlace       = "INVALID_PLACE"
	ErrCodePartialData        = "PARTIAL_DATA"
	ErrCodeRateLimit          = "RATE_LIMIT_EXCEEDED"
)

// ステータスコードごとの固定フォールバックメッセージ
const (
	MsgInvalidRequest     = "Invalid request. Please check your input."
	MsgInvalidCredentials = "Invalid email or password. Please check your credentials."
	MsgNotFound           = "Resource not found."
	MsgServerError        = "Server error. Please try again later."
	MsgOwnPlace           = "You cannot review your own place. Only other users can review your listing."
)

// ErrNotConfirmed は確認が必要な操作が未確認のまま呼ばれた場合に返す。
var ErrNotConfirmed = errors.New("action not confirmed")

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(field, message string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// NewGuardError はクライアント側の事前チェック失敗を生成する。
func NewGuardError(code, message string) *APIError {
	return &APIError{
		Kind:    KindGuard,
		Code:    code,
		Message: message,
	}
}

// NewOwnPlaceError は自分の物件をレビューしようとした場合のエラーを生成する。
// サーバー側の同名ルールと同じ文言を使う。
func NewOwnPlaceError() *APIError {
	return NewGuardError(ErrCodeOwnPlace, MsgOwnPlace)
}

// NewStatusError はバックエンドの非2xxレスポンスからエラーを生成する。
// messageが空の場合はステータスコードごとの固定文言を使う。
func NewStatusError(status int, message string) *APIError {
	e := &APIError{
		Kind:    KindApplication,
		Status:  status,
		Message: message,
	}

	var fallback string
	switch status {
	case http.StatusBadRequest:
		e.Code = ErrCodeInvalidRequest
		fallback = MsgInvalidRequest
	case http.StatusUnauthorized:
		e.Code = ErrCodeInvalidCredentials
		fallback = MsgInvalidCredentials
	case http.StatusNotFound:
		e.Code = ErrCodeNotFound
		fallback = MsgNotFound
	case http.StatusInternalServerError:
		e.Code = ErrCodeServerError
		fallback = MsgServerError
	default:
		e.Code = ErrCodeHTTPError
		fallback = fmt.Sprintf("HTTP error! status: %d", status)
	}

	if e.Message == "" {
		e.Message = fallback
	}
	return e
}

// NewNoAccessTokenError はログイン成功応答にトークンが含まれない場合のエラーを生成する。
func NewNoAccessTokenError() *APIError {
	return &APIError{
		Kind:    KindApplication,
		Code:    ErrCodeNoAccessToken,
		Message: "No access token received from server",
	}
}

// NewNetworkError は通信エラーを生成する。
// 接続先の確認を促す対処方法を含む。
func NewNetworkError(baseURL string, cause error) *APIError {
	return &APIError{
		Kind:    KindNetwork,
		Code:    ErrCodeNetworkError,
		Message: "Cannot connect to the server.",
		Action:  fmt.Sprintf("Please make sure the API is running on %s and reachable from this server.", baseURL),
		Err:     cause,
	}
}

// NewCanceledError はリクエストが中断された場合の通信エラーを生成する。
func NewCanceledError(cause error) *APIError {
	return &APIError{
		Kind:    KindNetwork,
		Code:    ErrCodeNetworkError,
		Message: "The request was canceled before the server responded.",
		Action:  "Please try again.",
		Err:     cause,
	}
}

// NewPartialError は副次的な参照の失敗を生成する。
// sectionはFieldに保持し、描画層が代替表示の対象を判別するのに使う。
func NewPartialError(section string, cause error) *APIError {
	return &APIError{
		Kind:    KindPartial,
		Code:    ErrCodePartialData,
		Message: fmt.Sprintf("%s unavailable", section),
		Field:   section,
		Err:     cause,
	}
}

// AsAPIError はerrからAPIErrorを取り出す。
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsKind はerrが指定した分類のAPIErrorかどうかを判定する。
func IsKind(err error, kind ErrorKind) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Kind == kind
}

// PartialSection はerrが部分エラーであれば対象のセクション名を返す。
func PartialSection(err error) (string, bool) {
	if !IsKind(err, KindPartial) {
		return "", false
	}
	apiErr, _ := AsAPIError(err)
	return apiErr.Field, true
}

// IsNotFound はerrがバックエンドの404かどうかを判定する。
func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Kind == KindApplication && apiErr.Status == http.StatusNotFound
}
