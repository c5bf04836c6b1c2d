package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/todoman/internal/model"
)

// SQLSessionRepo はSQLデータベースを使用したセッションリポジトリ。
type SQLSessionRepo struct {
	db *sql.DB
}

// NewSQLSessionRepo はSQLSessionRepoを生成する。
func NewSQLSessionRepo(db *sql.DB) *SQLSessionRepo {
	return &SQLSessionRepo{db: db}
}

// Create はセッションを作成する。UserIDが0の場合は匿名セッションとして保存する。
func (r *SQLSessionRepo) Create(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session.Data)
	if err != nil {
		return fmt.Errorf("failed to encode session data: %w", err)
	}

	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, user_id, data, expires_at, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			session.ID, nullableUserID(session.UserID), string(data), session.ExpiresAt, session.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		return nil
	})
}

// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
func (r *SQLSessionRepo) FindByID(ctx context.Context, id string, now time.Time) (*model.Session, error) {
	session := &model.Session{}
	var userID sql.NullInt64
	var data string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, data, expires_at, created_at
		 FROM sessions
		 WHERE id = $1 AND expires_at > $2`,
		id, now,
	).Scan(&session.ID, &userID, &data, &session.ExpiresAt, &session.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	if userID.Valid {
		session.UserID = userID.Int64
	}
	if data != "" {
		if err := json.Unmarshal([]byte(data), &session.Data); err != nil {
			return nil, fmt.Errorf("failed to decode session data: %w", err)
		}
	}
	session.ExpiresAt = session.ExpiresAt.UTC()
	session.CreatedAt = session.CreatedAt.UTC()

	return session, nil
}

// UpdateData はセッションデータを上書きする。
func (r *SQLSessionRepo) UpdateData(ctx context.Context, id string, data model.SessionData) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode session data: %w", err)
	}

	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE sessions SET data = $1 WHERE id = $2`,
			string(encoded), id,
		)
		if err != nil {
			return fmt.Errorf("failed to update session data: %w", err)
		}
		return nil
	})
}

// ClearUser はセッションとユーザーの紐付けを解除する。
func (r *SQLSessionRepo) ClearUser(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET user_id = NULL WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to clear session user: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのセッションを削除する。
func (r *SQLSessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteByUserID は指定ユーザーの全セッションを削除する。
func (r *SQLSessionRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
// 削除対象がない場合でもエラーにならない。
func (r *SQLSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// nullableUserID は匿名セッション（UserID=0）をNULLとして保存するための変換を行う。
func nullableUserID(userID int64) sql.NullInt64 {
	return sql.NullInt64{Int64: userID, Valid: userID != 0}
}

// compile-time interface check
var _ SessionRepository = (*SQLSessionRepo)(nil)
