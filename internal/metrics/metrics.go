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
// ハンドラーやワーカーから利用する。
type MetricsCollector interface {
	RecordRunCreated()
	RecordRunUpdated()
	RecordRunDeleted()
	RecordHTTPStatus(statusCode int)
	RecordQueryLatency(duration time.Duration)
	RecordSessionsPurged(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	runsCreated    prometheus.Counter
	runsUpdated    prometheus.Counter
	runsDeleted    prometheus.Counter
	httpStatus     *prometheus.CounterVec
	queryLatency   prometheus.Histogram
	sessionsPurged prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		runsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stridelog_runs_created_total",
			Help: "作成されたラン記録の合計数",
		}),
		runsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stridelog_runs_updated_total",
			Help: "更新されたラン記録の合計数",
		}),
		runsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stridelog_runs_deleted_total",
			Help: "削除されたラン記録の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stridelog_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		queryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stridelog_query_latency_seconds",
			Help:    "行ストアクエリのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stridelog_sessions_purged_total",
			Help: "クリーンアップで削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.runsCreated,
		c.runsUpdated,
		c.runsDeleted,
		c.httpStatus,
		c.queryLatency,
		c.sessionsPurged,
	)

	return c
}

// RecordRunCreated はラン記録の作成を記録する。
func (c *Collector) RecordRunCreated() {
	c.runsCreated.Inc()
}

// RecordRunUpdated はラン記録の更新を記録する。
func (c *Collector) RecordRunUpdated() {
	c.runsUpdated.Inc()
}

// RecordRunDeleted はラン記録の削除を記録する。
func (c *Collector) RecordRunDeleted() {
	c.runsDeleted.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordQueryLatency は行ストアクエリのレイテンシを記録する。
func (c *Collector) RecordQueryLatency(duration time.Duration) {
	c.queryLatency.Observe(duration.Seconds())
}

// RecordSessionsPurged はクリーンアップで削除されたセッション数を記録する。
func (c *Collector) RecordSessionsPurged(count int64) {
	c.sessionsPurged.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
