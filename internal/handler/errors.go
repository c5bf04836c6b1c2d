package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/model"
)

// userMessage はerrが利用者に表示できるAppErrorであればそのメッセージを返す。
func userMessage(err error) (string, bool) {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		return appErr.Message, true
	}
	return "", false
}

// logRequestError は永続化層などの内部エラーをリクエストIDとともに記録する。
// 詳細は画面に出さない。
func logRequestError(r *http.Request, msg string, err error) {
	attrs := []any{
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	}
	if user := middleware.UserFromContext(r.Context()); user != nil {
		attrs = append(attrs, slog.Int64("user_id", user.ID))
	}
	slog.Error(msg, attrs...)
}

// addNotice は次に描画されるページ用の通知をセッションに追加する。
// 追加に失敗しても応答は継続する。
func addNotice(r *http.Request, notices middleware.NoticeAdder, sess *model.Session, notice model.Notice) {
	if sess == nil {
		return
	}
	if err := notices.AddNotice(r.Context(), sess, notice); err != nil {
		logRequestError(r, "failed to add notice", err)
	}
}
