// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// エラーカテゴリ
const (
	CategoryValidation = "validation"
	CategoryNotFound   = "not_found"
	CategoryAuth       = "auth"
)

// 定義済みエラーコード
const (
	ErrCodeUsernameRequired   = "USERNAME_REQUIRED"
	ErrCodeEmailRequired      = "EMAIL_REQUIRED"
	ErrCodePasswordRequired   = "PASSWORD_REQUIRED"
	ErrCodeUsernameTooShort   = "USERNAME_TOO_SHORT"
	ErrCodePasswordTooShort   = "PASSWORD_TOO_SHORT"
	ErrCodePasswordMismatch   = "PASSWORD_MISMATCH"
	ErrCodeUsernameTaken      = "USERNAME_TAKEN"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeCredentialsMissing = "CREDENTIALS_MISSING"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeTitleRequired      = "TITLE_REQUIRED"
	ErrCodeDescRequired       = "DESCRIPTION_REQUIRED"
	ErrCodeTitleTooLong       = "TITLE_TOO_LONG"
	ErrCodeDescTooLong        = "DESCRIPTION_TOO_LONG"
	ErrCodeTodoNotFound       = "TODO_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
)

// AppError は利用者に提示できるドメインエラーを表す。
// Messageはそのまま画面に表示してよい文言とする。
// AppError以外のエラーは永続化層の失敗として扱い、詳細はログのみに記録する。
type AppError struct {
	Code     string // エラーコード
	Message  string // 画面に表示するメッセージ
	Category string // カテゴリ: validation, not_found, auth
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// IsValidation はerrがバリデーションエラーかどうかを判定する。
func IsValidation(err error) bool {
	return hasCategory(err, CategoryValidation)
}

// IsNotFound はerrが未検出エラーかどうかを判定する。
func IsNotFound(err error) bool {
	return hasCategory(err, CategoryNotFound)
}

// IsAuth はerrが認証エラーかどうかを判定する。
func IsAuth(err error) bool {
	return hasCategory(err, CategoryAuth)
}

func hasCategory(err error, category string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Category == category
}

func newValidationError(code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Category: CategoryValidation}
}

// NewUsernameRequiredError はユーザー名未入力エラーを生成する。
func NewUsernameRequiredError() *AppError {
	return newValidationError(ErrCodeUsernameRequired, "Username is required!")
}

// NewEmailRequiredError はメールアドレス未入力エラーを生成する。
func NewEmailRequiredError() *AppError {
	return newValidationError(ErrCodeEmailRequired, "Email is required!")
}

// NewPasswordRequiredError はパスワード未入力エラーを生成する。
func NewPasswordRequiredError() *AppError {
	return newValidationError(ErrCodePasswordRequired, "Password is required!")
}

// NewUsernameTooShortError はユーザー名が短すぎる場合のエラーを生成する。
func NewUsernameTooShortError(min int) *AppError {
	return newValidationError(ErrCodeUsernameTooShort,
		fmt.Sprintf("Username must be at least %d characters long!", min))
}

// NewPasswordTooShortError はパスワードが短すぎる場合のエラーを生成する。
func NewPasswordTooShortError(min int) *AppError {
	return newValidationError(ErrCodePasswordTooShort,
		fmt.Sprintf("Password must be at least %d characters long!", min))
}

// NewPasswordMismatchError は確認用パスワードが一致しない場合のエラーを生成する。
func NewPasswordMismatchError() *AppError {
	return newValidationError(ErrCodePasswordMismatch, "Passwords do not match!")
}

// NewUsernameTakenError はユーザー名が登録済みの場合のエラーを生成する。
func NewUsernameTakenError() *AppError {
	return newValidationError(ErrCodeUsernameTaken, "Username already exists!")
}

// NewEmailTakenError はメールアドレスが登録済みの場合のエラーを生成する。
func NewEmailTakenError() *AppError {
	return newValidationError(ErrCodeEmailTaken, "Email already registered!")
}

// NewCredentialsMissingError はログインフォームの未入力エラーを生成する。
func NewCredentialsMissingError() *AppError {
	return newValidationError(ErrCodeCredentialsMissing, "Username and password are required!")
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// ユーザー未登録とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *AppError {
	return &AppError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid username or password!",
		Category: CategoryAuth,
	}
}

// NewTitleRequiredError はタイトル未入力エラーを生成する。
func NewTitleRequiredError() *AppError {
	return newValidationError(ErrCodeTitleRequired, "Title is required!")
}

// NewDescriptionRequiredError は説明未入力エラーを生成する。
func NewDescriptionRequiredError() *AppError {
	return newValidationError(ErrCodeDescRequired, "Description is required!")
}

// NewTitleTooLongError はタイトルが長すぎる場合のエラーを生成する。
func NewTitleTooLongError() *AppError {
	return newValidationError(ErrCodeTitleTooLong,
		fmt.Sprintf("Title must be %d characters or less!", TodoTitleMaxLen))
}

// NewDescriptionTooLongError は説明が長すぎる場合のエラーを生成する。
func NewDescriptionTooLongError() *AppError {
	return newValidationError(ErrCodeDescTooLong,
		fmt.Sprintf("Description must be %d characters or less!", TodoDescriptionMaxLen))
}

// NewTodoNotFoundError はタスク未検出エラーを生成する。
// 他ユーザーのタスクと存在しないタスクで同じエラーを返す。
func NewTodoNotFoundError() *AppError {
	return &AppError{
		Code:     ErrCodeTodoNotFound,
		Message:  "Not Found",
		Category: CategoryNotFound,
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError() *AppError {
	return &AppError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: CategoryNotFound,
	}
}
