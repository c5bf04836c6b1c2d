// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/todoman/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	sessionContextKey = contextKey("session")
	userContextKey    = contextKey("user")
)

// SessionManager はセッションミドルウェアが必要とするセッション操作。
// session.Managerの部分集合として定義する。
type SessionManager interface {
	Ensure(w http.ResponseWriter, r *http.Request) (*model.Session, error)
	Unbind(ctx context.Context, sess *model.Session) error
}

// UserFinder はセッションに紐付くユーザーの取得に必要なインターフェース。
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// NewSessionMiddleware はリクエストごとにセッションを確定し、
// セッションとログインユーザーをリクエストコンテキストに注入するミドルウェアを返す。
// Cookieがない場合は匿名セッションを開始する。
// 紐付くユーザーが削除済みの場合は紐付けを解除し、匿名として扱う。
func NewSessionMiddleware(sessions SessionManager, users UserFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Ensure(w, r)
			if err != nil {
				slog.Error("failed to establish session",
					slog.String("error", err.Error()),
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			ctx := ContextWithSession(r.Context(), sess)

			if sess.Authenticated() {
				user, err := users.FindByID(ctx, sess.UserID)
				if err != nil {
					slog.Error("failed to resolve session user",
						slog.String("error", err.Error()),
						slog.Int64("user_id", sess.UserID),
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}

				if user == nil {
					slog.Warn("session bound to missing user, clearing",
						slog.Int64("user_id", sess.UserID),
					)
					if err := sessions.Unbind(ctx, sess); err != nil {
						slog.Error("failed to unbind session",
							slog.String("error", err.Error()),
						)
						http.Error(w, "internal server error", http.StatusInternalServerError)
						return
					}
				} else {
					ctx = ContextWithUser(ctx, user)
					setLogUserID(ctx, user.ID)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext はリクエストコンテキストからセッションを取得する。
// セッションミドルウェアを通過していない場合はnilを返す。
func SessionFromContext(ctx context.Context) *model.Session {
	sess, _ := ctx.Value(sessionContextKey).(*model.Session)
	return sess
}

// UserFromContext はリクエストコンテキストからログインユーザーを取得する。
// 未ログインの場合はnilを返す。
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}

// ContextWithSession はコンテキストにセッションを注入する。
func ContextWithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// ContextWithUser はコンテキストにログインユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
