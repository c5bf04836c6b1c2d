// Package auth はパスワード認証（アカウント登録・ログイン）を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
)

// 登録時の最小文字数。
const (
	MinUsernameLen = 3
	MinPasswordLen = 6
)

// CredentialManager はパスワードのハッシュ化と照合のインターフェース。
type CredentialManager interface {
	Hash(raw string) (string, error)
	Verify(raw, hash string) bool
}

// RegisterInput はアカウント登録フォームの入力値。
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Service は登録とログインのビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	credentials CredentialManager

	dummyOnce sync.Once
	dummyHash string
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, credentials CredentialManager) *Service {
	return &Service{
		userRepo:    userRepo,
		credentials: credentials,
	}
}

// Register は入力を検証し、新しいユーザーを作成する。
// 検証は次の順で行い、最初の違反でバリデーションエラーを返す:
// ユーザー名・メール・パスワードの必須、ユーザー名とパスワードの長さ、
// 確認用パスワードの一致、ユーザー名とメールの重複（完全一致）。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	password := strings.TrimSpace(in.Password)
	confirm := strings.TrimSpace(in.ConfirmPassword)

	switch {
	case username == "":
		return nil, model.NewUsernameRequiredError()
	case email == "":
		return nil, model.NewEmailRequiredError()
	case password == "":
		return nil, model.NewPasswordRequiredError()
	case utf8.RuneCountInString(username) < MinUsernameLen:
		return nil, model.NewUsernameTooShortError(MinUsernameLen)
	case utf8.RuneCountInString(password) < MinPasswordLen:
		return nil, model.NewPasswordTooShortError(MinPasswordLen)
	case password != confirm:
		return nil, model.NewPasswordMismatchError()
	}

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, model.NewUsernameTakenError()
	}

	existing, err = s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	hash, err := s.credentials.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	// 重複チェック後に同名で登録された場合は一意制約違反として検出する
	if err := s.userRepo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, model.NewUsernameTakenError()
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login はユーザー名とパスワードを照合し、認証済みユーザーを返す。
// ユーザー未登録とパスワード不一致は同じエラーを返す。
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	if username == "" || password == "" {
		return nil, model.NewCredentialsMissingError()
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil {
		// 応答時間でユーザーの存在が推測されないよう、ダミーハッシュとも照合する
		s.credentials.Verify(password, s.dummyPasswordHash())
		slog.Warn("login failed", slog.String("reason", "unknown_user"))
		return nil, model.NewInvalidCredentialsError()
	}

	if !s.credentials.Verify(password, user.PasswordHash) {
		slog.Warn("login failed",
			slog.String("reason", "password_mismatch"),
			slog.Int64("user_id", user.ID),
		)
		return nil, model.NewInvalidCredentialsError()
	}

	slog.Info("user logged in", slog.Int64("user_id", user.ID))
	return user, nil
}

// dummyPasswordHash は未登録ユーザーのログイン試行で照合に使うハッシュを返す。
func (s *Service) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.credentials.Hash("todoman-dummy-password")
		if err != nil {
			slog.Error("failed to prepare dummy password hash", slog.String("error", err.Error()))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
