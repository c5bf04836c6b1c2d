// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 認証・タスク操作の結果ラベル
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder はメトリクス記録のインターフェース。
// ミドルウェアやハンドラーから利用する。
type Recorder interface {
	RecordHTTPRequest(method string, statusCode int, duration time.Duration)
	RecordAuthEvent(event, outcome string)
	RecordTodoOperation(operation, outcome string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests *prometheus.CounterVec
	httpLatency  prometheus.Histogram
	authEvents   *prometheus.CounterVec
	todoOps      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todoman_http_requests_total",
			Help: "HTTPメソッド・ステータスコード別のリクエスト数",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "todoman_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todoman_auth_events_total",
			Help: "登録・ログイン・ログアウトの結果別件数",
		}, []string{"event", "outcome"}),
		todoOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todoman_todo_operations_total",
			Help: "タスク操作の結果別件数",
		}, []string{"operation", "outcome"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.authEvents,
		c.todoOps,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの結果と処理時間を記録する。
func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// RecordAuthEvent は認証イベントを記録する。
func (c *Collector) RecordAuthEvent(event, outcome string) {
	c.authEvents.WithLabelValues(event, outcome).Inc()
}

// RecordTodoOperation はタスク操作を記録する。
func (c *Collector) RecordTodoOperation(operation, outcome string) {
	c.todoOps.WithLabelValues(operation, outcome).Inc()
}

// NopRecorder は何も記録しないRecorder。
type NopRecorder struct{}

func (NopRecorder) RecordHTTPRequest(string, int, time.Duration) {}
func (NopRecorder) RecordAuthEvent(string, string)               {}
func (NopRecorder) RecordTodoOperation(string, string)           {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = NopRecorder{}
)
