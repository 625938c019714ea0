// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder はメトリクス収集のインターフェース。
// APIクライアントや描画層から利用する。
type Recorder interface {
	RecordAPIRequest(method, route string, status int, duration time.Duration)
	RecordNetworkError(method, route string)
	RecordDegraded(section string)
	SetListingCacheSize(n int)
}

// 縮退セクション名
const (
	SectionOwner        = "owner"
	SectionAmenities    = "amenities"
	SectionReviewAuthor = "review_author"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	apiRequests   *prometheus.CounterVec
	apiDuration   *prometheus.HistogramVec
	networkErrors *prometheus.CounterVec
	degraded      *prometheus.CounterVec
	cacheSize     prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hbnb_api_requests_total",
			Help: "バックエンドAPI呼び出しの合計数（ステータスクラス別）",
		}, []string{"method", "route", "status"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hbnb_api_request_duration_seconds",
			Help:    "バックエンドAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		networkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hbnb_api_network_errors_total",
			Help: "バックエンドAPIへの通信エラーの合計数",
		}, []string{"method", "route"}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hbnb_degraded_sections_total",
			Help: "副次的な参照に失敗して縮退表示したセクション数",
		}, []string{"section"}),
		cacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hbnb_listing_cache_size",
			Help: "物件一覧キャッシュの件数",
		}),
	}

	reg.MustRegister(
		c.apiRequests,
		c.apiDuration,
		c.networkErrors,
		c.degraded,
		c.cacheSize,
	)

	return c
}

// RecordAPIRequest はバックエンドAPIの応答を記録する。
// ステータスはクラス（2xx, 4xx等）に丸めてラベル付けする。
func (c *Collector) RecordAPIRequest(method, route string, status int, duration time.Duration) {
	c.apiRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	c.apiDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordNetworkError は通信エラーを記録する。
func (c *Collector) RecordNetworkError(method, route string) {
	c.networkErrors.WithLabelValues(method, route).Inc()
}

// RecordDegraded は縮退表示を記録する。
func (c *Collector) RecordDegraded(section string) {
	c.degraded.WithLabelValues(section).Inc()
}

// SetListingCacheSize は物件一覧キャッシュの件数を設定する。
func (c *Collector) SetListingCacheSize(n int) {
	c.cacheSize.Set(float64(n))
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return fmt.Sprintf("%dxx", status/100)
}

// Nop は何も記録しないRecorder。
type Nop struct{}

func (Nop) RecordAPIRequest(string, string, int, time.Duration) {}
func (Nop) RecordNetworkError(string, string)                   {}
func (Nop) RecordDegraded(string)                               {}
func (Nop) SetListingCacheSize(int)                             {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
