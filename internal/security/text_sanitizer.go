// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はバックエンドから受け取った文字列（物件名・説明・ユーザー名など）から
// マークアップを除去し、プレーンテキストとしてビューモデルに渡す。
// 出力時のエスケープはhtml/templateが行うため、ここではタグの除去のみを担う。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer は文字列のサニタイズ機能のインターフェースを定義する。
type Sanitizer interface {
	// Text はタグを除去したプレーンテキストを返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Text(raw string) string
}

// TextSanitizer はSanitizerの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフに処理を行う。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Text は全てのタグを除去し、前後の空白を取り除いたプレーンテキストを返す。
// StrictPolicyがエスケープした文字実体参照は元に戻す（テンプレート側での二重エスケープ防止）。
func (s *TextSanitizer) Text(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}
