package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/todoman/internal/metrics"
	"github.com/hitoshi/todoman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger        *slog.Logger
	HealthChecker HealthChecker

	// メトリクス
	Metrics        metrics.Recorder
	MetricsHandler http.Handler

	// セッション・CSRF
	Sessions   SessionService
	UserFinder middleware.UserFinder
	CSRFConfig middleware.CSRFConfig

	// ドメインサービス
	AuthService AuthServiceInterface
	TodoService TodoServiceInterface
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Logging → Metrics → Recovery → SecurityHeaders → Session → CSRF
//
// /health と /metrics はSessionより外側に配置し、セッション行を作らない。
func NewRouter(deps *RouterDeps) (http.Handler, error) {
	renderer, err := NewRenderer(deps.Sessions)
	if err != nil {
		return nil, err
	}

	recorder := deps.Metrics
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Sessions, renderer, recorder)
	todoHandler := NewTodoHandler(deps.TodoService, deps.Sessions, renderer, recorder)

	r := chi.NewRouter()
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(recorder))
	r.Use(middleware.NewRecoveryMiddleware(func(w http.ResponseWriter, req *http.Request) {
		renderer.Error(w, req, http.StatusInternalServerError)
	}))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	r.NotFound(renderer.NotFound)

	// --- セッション不要のルート ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- 画面ルート ---
	// ミドルウェアスタック: Session → CSRF
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.Sessions, deps.UserFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// 未ログイン専用
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewRedirectIfAuthenticatedMiddleware())
			r.Get("/register", authHandler.RegisterForm)
			r.Post("/register", authHandler.Register)
			r.Get("/login", authHandler.LoginForm)
			r.Post("/login", authHandler.Login)
		})

		// ログイン必須
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewRequireUserMiddleware(deps.Sessions))
			r.Get("/logout", authHandler.Logout)
			r.Get("/", todoHandler.Index)
			r.Post("/", todoHandler.Create)
			r.Get("/update/{id}", todoHandler.Edit)
			r.Post("/update/{id}", todoHandler.Update)
			r.Get("/delete/{id}", todoHandler.Delete)
		})
	})

	return r, nil
}
