// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// username と email は登録後に変更されない。
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Session はブラウザ単位のセッションを表す。
// UserIDが0の場合は未ログイン（匿名）セッション。
type Session struct {
	ID        string
	UserID    int64
	Data      SessionData
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Authenticated はセッションにユーザーが紐付いているかを返す。
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != 0
}

// SessionData はセッションに保持する任意データ。
// sessions.data列にJSONとして保存される。
type SessionData struct {
	Notices []Notice `json:"notices,omitempty"`
}
