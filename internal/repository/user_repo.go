package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/todoman/internal/model"
)

// SQLUserRepo はSQLデータベースを使用したユーザーリポジトリ。
type SQLUserRepo struct {
	db *sql.DB
}

// NewSQLUserRepo はSQLUserRepoを生成する。
func NewSQLUserRepo(db *sql.DB) *SQLUserRepo {
	return &SQLUserRepo{db: db}
}

const selectUserColumns = `SELECT id, username, email, password_hash, created_at FROM users`

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *SQLUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, selectUserColumns+` WHERE id = $1`, id)
}

// FindByUsername はユーザー名の完全一致で検索する。見つからない場合はnilを返す。
func (r *SQLUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, selectUserColumns+` WHERE username = $1`, username)
}

// FindByEmail はメールアドレスの完全一致で検索する。見つからない場合はnilを返す。
func (r *SQLUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, selectUserColumns+` WHERE email = $1`, email)
}

func (r *SQLUserRepo) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

// Create はユーザーをトランザクション内で作成し、採番されたIDを設定する。
func (r *SQLUserRepo) Create(ctx context.Context, user *model.User) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO users (username, email, password_hash, created_at)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			user.Username, user.Email, user.PasswordHash, user.CreatedAt,
		).Scan(&user.ID)
		if err != nil {
			if dup := classifyUserUniqueViolation(err); dup != nil {
				return dup
			}
			return fmt.Errorf("failed to insert user: %w", err)
		}
		return nil
	})
}

// DeleteByID は指定IDのユーザーを削除する。
// 関連するtodos、sessionsはCASCADE削除される。
func (r *SQLUserRepo) DeleteByID(ctx context.Context, id int64) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return requireOneRow(result)
	})
}

// compile-time interface check
var _ UserRepository = (*SQLUserRepo)(nil)
