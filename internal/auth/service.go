// Package auth はメールアドレスとパスワードによるログインフローを提供する。
package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hitoshi/hbnb-web/internal/model"
)

// Authenticator はバックエンドの認証エンドポイントのインターフェース。
type Authenticator interface {
	// Login は認証に成功した場合にアクセストークンを返す。
	Login(ctx context.Context, email, password string) (string, error)
}

// Service はログインに関する処理を提供する。
type Service struct {
	api    Authenticator
	logger *slog.Logger
}

// NewService はServiceを生成する。
func NewService(api Authenticator, logger *slog.Logger) *Service {
	return &Service{
		api:    api,
		logger: logger,
	}
}

// Login は入力を検証したうえで認証を行い、アクセストークンを返す。
// メールアドレスとパスワードの必須チェックは通信前に行う。
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", model.NewValidationError("email", "Email is required")
	}
	if password == "" {
		return "", model.NewValidationError("password", "Password is required")
	}

	token, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.logger.Warn("ログインに失敗しました", slog.String("error", err.Error()))
		return "", err
	}

	s.logger.Info("ログインしました")
	return token, nil
}
