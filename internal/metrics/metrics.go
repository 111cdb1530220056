// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// HTTPミドルウェア、サービス層、ワーカーから利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordPasswordRotation(closed int64)
	RecordSessionsExpired(count int64)
	RecordSweepFailure()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests        *prometheus.CounterVec
	httpLatency         *prometheus.HistogramVec
	passwordRotations   prometheus.Counter
	passwordsSuperseded prometheus.Counter
	sessionsExpired     prometheus.Counter
	sweepFail           prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mssecurity_http_requests_total",
			Help: "ルート・メソッド・ステータスコード別のリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mssecurity_http_request_duration_seconds",
			Help:    "リクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		passwordRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mssecurity_password_rotations_total",
			Help: "登録されたパスワードの合計数",
		}),
		passwordsSuperseded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mssecurity_passwords_superseded_total",
			Help: "新しいパスワードの登録により終了日時が設定されたパスワードの合計数",
		}),
		sessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mssecurity_sessions_expired_total",
			Help: "有効期限切れとして更新されたセッションの合計数",
		}),
		sweepFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mssecurity_session_sweep_fail_total",
			Help: "セッション期限切れ処理の失敗回数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.passwordRotations,
		c.passwordsSuperseded,
		c.sessionsExpired,
		c.sweepFail,
	)

	return c
}

// RecordHTTPRequest はリクエストのステータスコードと処理時間を記録する。
// routeはchiのルートパターン（例: /api/users/{id}）で、未マッチの場合は空文字列。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordPasswordRotation はパスワード登録と、それにより閉じられたレコード数を記録する。
func (c *Collector) RecordPasswordRotation(closed int64) {
	c.passwordRotations.Inc()
	if closed > 0 {
		c.passwordsSuperseded.Add(float64(closed))
	}
}

// RecordSessionsExpired は期限切れにしたセッション数を記録する。
func (c *Collector) RecordSessionsExpired(count int64) {
	if count > 0 {
		c.sessionsExpired.Add(float64(count))
	}
}

// RecordSweepFailure はセッション期限切れ処理の失敗を記録する。
func (c *Collector) RecordSweepFailure() {
	c.sweepFail.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
