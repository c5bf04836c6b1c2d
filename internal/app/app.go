package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/todoman/internal/auth"
	"github.com/hitoshi/todoman/internal/cleanup"
	"github.com/hitoshi/todoman/internal/config"
	"github.com/hitoshi/todoman/internal/database"
	"github.com/hitoshi/todoman/internal/handler"
	"github.com/hitoshi/todoman/internal/logger"
	"github.com/hitoshi/todoman/internal/metrics"
	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/repository"
	"github.com/hitoshi/todoman/internal/session"
	"github.com/hitoshi/todoman/internal/todo"
	"github.com/hitoshi/todoman/internal/user"
)

// HTTPサーバーのタイムアウト
const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 30 * time.Second
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, os.Getenv("LOG_LEVEL"))

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. .envで指定されたログレベルを反映する
	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。SIGINTまたはSIGTERMでコンテキストがキャンセルされる。
func Run(w io.Writer, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(w)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// openDB はDB接続を開き、疎通を確認する。
func openDB(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := database.Open(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// newHandler は全依存関係をワイヤリングしたHTTPハンドラーを構築する。
func newHandler(cfg *config.Config, db *sql.DB, log *slog.Logger, reg *prometheus.Registry) (http.Handler, error) {
	// 1. リポジトリの初期化
	userRepo := repository.NewSQLUserRepo(db)
	sessionRepo := repository.NewSQLSessionRepo(db)
	todoRepo := repository.NewSQLTodoRepo(db)

	// 2. ドメインサービスの初期化
	sessions := session.NewManager(sessionRepo, session.Config{
		Secret:       cfg.SessionSecret,
		MaxAge:       cfg.SessionMaxAge,
		CookieSecure: cfg.CookieSecure,
		CookieDomain: cfg.CookieDomain,
	})
	authService := auth.NewService(userRepo, auth.NewPasswordHasher(cfg.BcryptCost))
	todoService := todo.NewService(todoRepo)

	// 3. メトリクス
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// 4. ルーターの構築
	return handler.NewRouter(&handler.RouterDeps{
		Logger:         log,
		HealthChecker:  db,
		Metrics:        collector,
		MetricsHandler: metrics.Handler(reg),
		Sessions:       sessions,
		UserFinder:     userRepo,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
			MaxAge:       cfg.SessionMaxAge,
		},
		AuthService: authService,
		TodoService: todoService,
	})
}

// runServe はHTTPサーバーを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config, migrateFirst bool) error {
	db, err := openDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	if migrateFirst {
		driver, _, err := database.ParseURL(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := database.Migrate(db, driver); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		slog.Info("database migrations applied")
	}

	h, err := newHandler(cfg, db, slog.Default(), prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      h,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server listen error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("HTTP server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runCleanupSessions は期限切れセッションを1回だけ削除して終了する。
func runCleanupSessions(ctx context.Context, cfg *config.Config, out io.Writer) error {
	db, err := openDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	job := cleanup.NewJob(repository.NewSQLSessionRepo(db), slog.Default())
	deleted, err := job.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "deleted %d expired sessions\n", deleted)
	return nil
}

// runDeleteUser はユーザー名で指定したユーザーとそのタスク・セッションを削除する。
func runDeleteUser(ctx context.Context, cfg *config.Config, username string, out io.Writer) error {
	db, err := openDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := user.NewService(repository.NewSQLUserRepo(db), repository.NewSQLSessionRepo(db))
	deleted, err := svc.Delete(ctx, username)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "deleted user %s (id=%d)\n", deleted.Username, deleted.ID)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(ctx context.Context, port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
