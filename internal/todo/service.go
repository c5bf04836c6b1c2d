// Package todo はタスク管理のドメインロジックを提供する。
package todo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
)

// Service はタスクのCRUDを所有者単位で提供する。
// 存在しないタスクと他ユーザーのタスクは区別せずNotFoundを返す。
type Service struct {
	repo repository.TodoRepository
}

// NewService はServiceを生成する。
func NewService(repo repository.TodoRepository) *Service {
	return &Service{repo: repo}
}

// List はユーザーのタスクを新しい順に返す。
func (s *Service) List(ctx context.Context, userID int64) ([]*model.Todo, error) {
	todos, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

// Get はユーザーが所有するタスクを返す。
func (s *Service) Get(ctx context.Context, userID, id int64) (*model.Todo, error) {
	todo, err := s.repo.FindByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	if todo == nil {
		return nil, model.NewTodoNotFoundError()
	}
	return todo, nil
}

// Create は入力を検証し、タスクを作成する。
func (s *Service) Create(ctx context.Context, userID int64, title, description string) (*model.Todo, error) {
	title, description, err := normalize(title, description)
	if err != nil {
		return nil, err
	}

	todo := &model.Todo{
		UserID:      userID,
		Title:       title,
		Description: description,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := s.repo.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	slog.Info("todo created",
		slog.Int64("user_id", userID),
		slog.Int64("todo_id", todo.ID),
	)
	return todo, nil
}

// Update はタイトルと説明を更新する。作成日時は変更しない。
// 所有確認を入力検証より先に行う。
func (s *Service) Update(ctx context.Context, userID, id int64, title, description string) (*model.Todo, error) {
	todo, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	title, description, err = normalize(title, description)
	if err != nil {
		return nil, err
	}

	todo.Title = title
	todo.Description = description
	if err := s.repo.Update(ctx, todo); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewTodoNotFoundError()
		}
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}

	slog.Info("todo updated",
		slog.Int64("user_id", userID),
		slog.Int64("todo_id", id),
	)
	return todo, nil
}

// Delete はユーザーが所有するタスクを削除する。
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewTodoNotFoundError()
		}
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	slog.Info("todo deleted",
		slog.Int64("user_id", userID),
		slog.Int64("todo_id", id),
	)
	return nil
}

// normalize は前後の空白を除去し、必須・文字数上限を検証する。
func normalize(title, description string) (string, string, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	switch {
	case title == "":
		return "", "", model.NewTitleRequiredError()
	case description == "":
		return "", "", model.NewDescriptionRequiredError()
	case utf8.RuneCountInString(title) > model.TodoTitleMaxLen:
		return "", "", model.NewTitleTooLongError()
	case utf8.RuneCountInString(description) > model.TodoDescriptionMaxLen:
		return "", "", model.NewDescriptionTooLongError()
	}
	return title, description, nil
}
