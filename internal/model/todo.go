package model

import "time"

// タスクのフィールド長の上限（文字数）。
const (
	TodoTitleMaxLen       = 200
	TodoDescriptionMaxLen = 500
)

// Todo はユーザーが所有するタスクを表す。
// CreatedAtは作成時に1回だけ設定され、編集では更新しない。
type Todo struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	CreatedAt   time.Time
}
