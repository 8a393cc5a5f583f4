// Package metrics provides Prometheus metrics for the critic review service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// latencyBuckets are millisecond buckets shared by the latency histograms.
var latencyBuckets = []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500} //nolint:gochecknoglobals

// Manager owns every metric the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Review lifecycle
	reviewTransitions *prometheus.CounterVec
	degradedCreates   prometheus.Counter
	rerankDuration    prometheus.Histogram
	leaderboardSize   prometheus.Gauge

	// Bookmarks
	bookmarkToggles *prometheus.CounterVec

	// Catalog
	catalogRequests *prometheus.CounterVec
	catalogLatency  *prometheus.HistogramVec

	// Repository
	txDuration *prometheus.HistogramVec
	txRetries  prometheus.Counter
	tableSize  *prometheus.GaugeVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "critic",
		subsystem:        "reviews",
		histogramBuckets: latencyBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place that declares every collector
	auto := promauto.With(m.registry)

	m.reviewTransitions = m.counterVec("transitions_total",
		"Review lifecycle transitions by operation and outcome", "operation", "outcome")
	m.degradedCreates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "degraded_creates_total",
		Help: "Reviews persisted without an artist because catalog metadata was unavailable",
	})
	m.rerankDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "rerank_duration_milliseconds",
		Help:    "Time spent recomputing and writing the leaderboard",
		Buckets: m.histogramBuckets,
	})
	m.leaderboardSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "leaderboard_size",
		Help: "Number of ranked artists after the last re-rank",
	})

	m.bookmarkToggles = m.counterVec("bookmark_toggles_total", "Bookmark toggles by resulting action", "action")

	m.catalogRequests = m.counterVec("catalog_requests_total",
		"Catalog requests by resource and outcome", "resource", "outcome")
	m.catalogLatency = m.histogramVec("catalog_latency_milliseconds",
		"Catalog request latency in milliseconds", "resource")

	m.txDuration = m.histogramVec("tx_duration_milliseconds",
		"Unit of work duration in milliseconds by store backend", "backend")
	m.txRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "tx_retries_total",
		Help: "Units of work retried after a unique constraint conflict",
	})
	m.tableSize = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "table_rows",
		Help: "Rows per table",
	}, []string{"table"})

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total",
		"Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds",
		"Latency of operations that ended in an error", "component", "error_type")

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system",
		Name: "memory_usage_bytes",
		Help: "Heap bytes allocated",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system",
		Name: "goroutines",
		Help: "Number of goroutines",
	})
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "system",
		Name:    "gc_pause_milliseconds",
		Help:    "Average GC pause in milliseconds",
		Buckets: m.histogramBuckets,
	})
}

// Review lifecycle.

// RecordReviewTransition counts a create/update/delete by outcome.
func RecordReviewTransition(operation, outcome string) {
	globalManager.reviewTransitions.WithLabelValues(operation, outcome).Inc()
}

// RecordDegradedCreate counts a review persisted without its artist.
func RecordDegradedCreate() {
	globalManager.degradedCreates.Inc()
}

// RecordRerank records a leaderboard recomputation.
func RecordRerank(durationMs float64, artists int) {
	globalManager.rerankDuration.Observe(durationMs)
	globalManager.leaderboardSize.Set(float64(artists))
}

// RecordBookmarkToggle counts a toggle by the action taken ("added"/"removed").
func RecordBookmarkToggle(action string) {
	globalManager.bookmarkToggles.WithLabelValues(action).Inc()
}

// Catalog.

// RecordCatalogRequest records a catalog call for resource ("artist"/"album").
func RecordCatalogRequest(resource, outcome string, latencyMs float64) {
	globalManager.catalogRequests.WithLabelValues(resource, outcome).Inc()
	globalManager.catalogLatency.WithLabelValues(resource).Observe(latencyMs)
}

// Repository.

// RecordTxDuration records how long a unit of work held the store.
func RecordTxDuration(backend string, durationMs float64) {
	globalManager.txDuration.WithLabelValues(backend).Observe(durationMs)
}

// RecordTxRetry counts a retried unit of work.
func RecordTxRetry() {
	globalManager.txRetries.Inc()
}

// UpdateTableSizes sets the row gauges.
func UpdateTableSizes(artists, albums, bookmarks int) {
	globalManager.tableSize.WithLabelValues("artists").Set(float64(artists))
	globalManager.tableSize.WithLabelValues("albums").Set(float64(albums))
	globalManager.tableSize.WithLabelValues("bookmarks").Set(float64(bookmarks))
}

// HTTP.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
