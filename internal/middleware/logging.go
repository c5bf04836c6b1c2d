package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader はリクエストIDを返すレスポンスヘッダー。
const RequestIDHeader = "X-Request-ID"

var requestLogContextKey = contextKey("request_log")

// requestLog は1リクエスト分のログ属性。
// 内側のミドルウェアで確定したユーザーIDを外側のログ出力に渡すために使う。
type requestLog struct {
	requestID string
	userID    int64
}

// statusRecorder はhttp.ResponseWriterをラップし、ステータスコードを記録する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// WriteHeader はステータスコードを記録してから委譲する。
func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

// Write はデータを書き込む。WriteHeaderが未呼び出しの場合は200を記録する。
func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// NewLoggingMiddleware はリクエストのJSON構造化ログを出力するミドルウェアを返す。
// ログにはmethod、path、status、duration_ms、request_id、user_id（ログイン済みの場合）を含む。
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			info := &requestLog{requestID: uuid.NewString()}
			w.Header().Set(RequestIDHeader, info.requestID)
			ctx := context.WithValue(r.Context(), requestLogContextKey, info)

			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rec, r.WithContext(ctx))

			duration := time.Since(start)
			durationMs := float64(duration.Nanoseconds()) / float64(time.Millisecond)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode),
				slog.Float64("duration_ms", durationMs),
				slog.String("request_id", info.requestID),
			}

			if info.userID != 0 {
				attrs = append(attrs, slog.Int64("user_id", info.userID))
			}

			// slogのログレベルをステータスコードに応じて変更
			level := slog.LevelInfo
			if rec.statusCode >= 500 {
				level = slog.LevelError
			} else if rec.statusCode >= 400 {
				level = slog.LevelWarn
			}

			logger.LogAttrs(ctx, level, "http_request", attrs...)
		})
	}
}

// RequestIDFromContext はリクエストIDを返す。ロギングミドルウェアを通過していない場合は空文字を返す。
func RequestIDFromContext(ctx context.Context) string {
	if info, ok := ctx.Value(requestLogContextKey).(*requestLog); ok {
		return info.requestID
	}
	return ""
}

func setLogUserID(ctx context.Context, userID int64) {
	if info, ok := ctx.Value(requestLogContextKey).(*requestLog); ok {
		info.userID = userID
	}
}
