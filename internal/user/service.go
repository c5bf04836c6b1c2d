// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
)

// SessionDeleter はセッションの一括削除インターフェース。
type SessionDeleter interface {
	DeleteByUserID(ctx context.Context, userID int64) error
}

// Service はユーザー管理のサービス層。
// 管理者によるユーザー削除のビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	sessions SessionDeleter
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, sessions SessionDeleter) *Service {
	return &Service{
		userRepo: userRepo,
		sessions: sessions,
	}
}

// Delete はユーザー名で指定したユーザーを削除する。
// 削除順序: sessions → user（+ CASCADE: todos）
func (s *Service) Delete(ctx context.Context, username string) (*model.User, error) {
	username = strings.TrimSpace(username)

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("ユーザー削除を開始します",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)

	// 1. セッションを削除（ログイン中のブラウザを即時に無効化する）
	if s.sessions != nil {
		if err := s.sessions.DeleteByUserID(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("セッションの削除に失敗しました: %w", err)
		}
	}

	// 2. ユーザーを削除（todosはCASCADE削除）
	if err := s.userRepo.DeleteByID(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("ユーザー削除が完了しました",
		slog.Int64("user_id", user.ID),
	)

	return user, nil
}
