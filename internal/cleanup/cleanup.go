// Package cleanup は期限切れセッションの削除ジョブを提供する。
// 常駐せず、CLIから1回実行して終了する。定期実行はcron等の外部スケジューラに任せる。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ExpiredSessionDeleter は期限切れセッションの一括削除インターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Job は期限切れセッションの削除ジョブ。
// 冪等であり、削除対象がない場合でもエラーにならない。
type Job struct {
	sessions ExpiredSessionDeleter
	logger   *slog.Logger
	now      func() time.Time
}

// NewJob は新しいJobを生成する。
func NewJob(sessions ExpiredSessionDeleter, logger *slog.Logger) *Job {
	return &Job{
		sessions: sessions,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run は実行時点で期限切れのセッションを削除し、削除件数を返す。
func (j *Job) Run(ctx context.Context) (int64, error) {
	start := time.Now()

	deletedCount, err := j.sessions.DeleteExpired(ctx, j.now())
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return deletedCount, nil
}
