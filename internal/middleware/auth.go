package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hitoshi/todoman/internal/model"
)

// LoginRequiredMessage は未ログインでタスク画面にアクセスした際の通知。
const LoginRequiredMessage = "Please log in to access this page."

// NoticeAdder は次のページに表示する通知を追加するインターフェース。
type NoticeAdder interface {
	AddNotice(ctx context.Context, sess *model.Session, notice model.Notice) error
}

// NewRequireUserMiddleware は未ログインのリクエストをログイン画面へリダイレクトするミドルウェアを返す。
// 元のパスとクエリはnextパラメータとして引き継ぐ。
func NewRequireUserMiddleware(notices NoticeAdder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFromContext(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}

			if sess := SessionFromContext(r.Context()); sess != nil {
				if err := notices.AddNotice(r.Context(), sess, model.ErrorNotice(LoginRequiredMessage)); err != nil {
					slog.Error("failed to add notice", slog.String("error", err.Error()))
				}
			}

			target := "/login?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusSeeOther)
		})
	}
}

// NewRedirectIfAuthenticatedMiddleware はログイン済みのリクエストをトップページへリダイレクトするミドルウェアを返す。
// ログイン・登録画面に使用する。
func NewRedirectIfAuthenticatedMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFromContext(r.Context()) != nil {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
