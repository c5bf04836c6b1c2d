package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound は更新・削除の対象行が存在しないことを示す。
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateUsername はユーザー名の一意制約違反を示す。
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrDuplicateEmail はメールアドレスの一意制約違反を示す。
	ErrDuplicateEmail = errors.New("email already exists")
)

// pgUniqueViolation はPostgreSQLの一意制約違反のSQLSTATE。
const pgUniqueViolation = "23505"

// classifyUserUniqueViolation はINSERTエラーがusersの一意制約違反であれば
// 対応するセンチネルエラーを返す。該当しない場合はnilを返す。
func classifyUserUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		switch pqErr.Constraint {
		case "users_username_key":
			return ErrDuplicateUsername
		case "users_email_key":
			return ErrDuplicateEmail
		}
		return nil
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		// SQLiteは制約名ではなく "UNIQUE constraint failed: users.username" の形式で報告する
		msg := sqliteErr.Error()
		switch {
		case strings.Contains(msg, "users.username"):
			return ErrDuplicateUsername
		case strings.Contains(msg, "users.email"):
			return ErrDuplicateEmail
		}
	}

	return nil
}
