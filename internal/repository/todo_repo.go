package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/todoman/internal/model"
)

// SQLTodoRepo はSQLデータベースを使用したタスクリポジトリ。
type SQLTodoRepo struct {
	db *sql.DB
}

// NewSQLTodoRepo はSQLTodoRepoを生成する。
func NewSQLTodoRepo(db *sql.DB) *SQLTodoRepo {
	return &SQLTodoRepo{db: db}
}

// ListByUser はユーザーのタスクを作成日時の降順で返す。
// 同じ作成日時のタスクは後から登録したものを先にする。
func (r *SQLTodoRepo) ListByUser(ctx context.Context, userID int64) ([]*model.Todo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, description, created_at
		 FROM todos
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]*model.Todo, 0)
	for rows.Next() {
		todo := &model.Todo{}
		if err := rows.Scan(&todo.ID, &todo.UserID, &todo.Title, &todo.Description, &todo.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todo.CreatedAt = todo.CreatedAt.UTC()
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}

	return todos, nil
}

// FindByIDAndUser は指定ユーザーが所有するタスクを取得する。見つからない場合はnilを返す。
func (r *SQLTodoRepo) FindByIDAndUser(ctx context.Context, id, userID int64) (*model.Todo, error) {
	todo := &model.Todo{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, created_at
		 FROM todos
		 WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&todo.ID, &todo.UserID, &todo.Title, &todo.Description, &todo.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}

	todo.CreatedAt = todo.CreatedAt.UTC()
	return todo, nil
}

// Create はタスクをトランザクション内で作成し、採番されたIDを設定する。
func (r *SQLTodoRepo) Create(ctx context.Context, todo *model.Todo) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO todos (user_id, title, description, created_at)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			todo.UserID, todo.Title, todo.Description, todo.CreatedAt,
		).Scan(&todo.ID)
		if err != nil {
			return fmt.Errorf("failed to insert todo: %w", err)
		}
		return nil
	})
}

// Update はタイトルと説明のみを更新する。
func (r *SQLTodoRepo) Update(ctx context.Context, todo *model.Todo) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE todos SET title = $1, description = $2
			 WHERE id = $3 AND user_id = $4`,
			todo.Title, todo.Description, todo.ID, todo.UserID,
		)
		if err != nil {
			return fmt.Errorf("failed to update todo: %w", err)
		}
		return requireOneRow(result)
	})
}

// Delete は指定ユーザーが所有するタスクを削除する。
func (r *SQLTodoRepo) Delete(ctx context.Context, id, userID int64) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM todos WHERE id = $1 AND user_id = $2`,
			id, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete todo: %w", err)
		}
		return requireOneRow(result)
	})
}

// requireOneRow は影響行数が0の場合にErrNotFoundを返す。
func requireOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// compile-time interface check
var _ TodoRepository = (*SQLTodoRepo)(nil)
