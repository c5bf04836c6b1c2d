// Package repository はデータ永続化のインターフェースとSQL実装を提供する。
// SQLはPostgreSQLとSQLiteの両方で動作する共通サブセットで記述する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/todoman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByUsername はユーザー名（大文字小文字を区別する完全一致）で検索する。
	// 見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindByEmail はメールアドレス（完全一致）で検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDをuser.IDに設定する。
	// 一意制約違反の場合はErrDuplicateUsernameまたはErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するtodos、sessionsはCASCADE削除される。
	DeleteByID(ctx context.Context, id int64) error
}

// TodoRepository はタスクデータの永続化インターフェース。
// すべての操作は所有ユーザーIDで絞り込む。
type TodoRepository interface {
	// ListByUser はユーザーのタスクを作成日時の降順（同時刻はID降順）で返す。
	ListByUser(ctx context.Context, userID int64) ([]*model.Todo, error)

	// FindByIDAndUser は指定ユーザーが所有するタスクを取得する。
	// 存在しない場合も他ユーザーの所有の場合もnilを返す。
	FindByIDAndUser(ctx context.Context, id, userID int64) (*model.Todo, error)

	// Create はタスクを作成し、採番されたIDをtodo.IDに設定する。
	Create(ctx context.Context, todo *model.Todo) error

	// Update はタイトルと説明のみを更新する。created_atは変更しない。
	// 対象行がない場合はErrNotFoundを返す。
	Update(ctx context.Context, todo *model.Todo) error

	// Delete は指定ユーザーが所有するタスクを削除する。
	// 対象行がない場合はErrNotFoundを返す。
	Delete(ctx context.Context, id, userID int64) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。now時点で期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string, now time.Time) (*model.Session, error)
	// UpdateData はセッションデータ（通知など）を上書きする。
	UpdateData(ctx context.Context, id string, data model.SessionData) error
	// ClearUser はセッションとユーザーの紐付けを解除する。
	ClearUser(ctx context.Context, id string) error
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID int64) error
	// DeleteExpired はnow時点で期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
