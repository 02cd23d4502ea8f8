// Package metrics provides Prometheus metrics for the streak service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bucket layout for latency histograms in milliseconds.
var latencyBucketsMs = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000}

// streakBucketsDays covers a year of daily streaks.
var streakBucketsDays = []float64{0, 1, 3, 7, 14, 30, 60, 90, 180, 365}

// Manager manages all Prometheus metrics for the streak service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	streakBuckets  []float64
	enabled        bool
	customLabels   map[string]string
	metricPrefix   string
	registry       prometheus.Registerer

	// Engine metrics
	edits            *prometheus.CounterVec
	bulkDates        *prometheus.CounterVec
	recomputeLatency prometheus.Histogram
	currentStreak    prometheus.Histogram
	profileUpdates   *prometheus.CounterVec
	duplicates       prometheus.Counter

	// Store metrics
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// Summary cache metrics
	cacheLookups *prometheus.CounterVec
	cacheEntries prometheus.Gauge
	activeUsers  prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System metrics
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

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "streak",
		subsystem:      "engine",
		latencyBuckets: latencyBucketsMs,
		streakBuckets:  streakBucketsDays,
		enabled:        true,
		customLabels:   make(map[string]string),
		registry:       prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	return m.metricPrefix + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.edits = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("edits_total"),
		Help:        "Day log edits by operation and outcome",
		ConstLabels: labels,
	}, []string{"operation", "outcome"})

	m.bulkDates = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("bulk_dates_total"),
		Help:        "Dates handled by bulk edits, applied or skipped",
		ConstLabels: labels,
	}, []string{"action", "result"})

	m.recomputeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("recompute_latency_milliseconds"),
		Help:        "Time spent reading the log and rescanning the horizon",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	})

	m.currentStreak = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("current_streak_days"),
		Help:        "Current streak observed after each recomputation",
		Buckets:     m.streakBuckets,
		ConstLabels: labels,
	})

	m.profileUpdates = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("profile_updates_total"),
		Help:        "Streak values pushed to the profile cache",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.duplicates = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("duplicate_requests_total"),
		Help:        "Mutating requests acknowledged without re-applying (idempotency key seen)",
		ConstLabels: labels,
	})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("store_latency_milliseconds"),
		Help:        "Day log store round-trip latency by operation",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	}, []string{"backend", "operation"})

	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("store_errors_total"),
		Help:        "Day log store failures by operation",
		ConstLabels: labels,
	}, []string{"backend", "operation"})

	m.cacheLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("summary_cache_lookups_total"),
		Help:        "Summary cache lookups by result",
		ConstLabels: labels,
	}, []string{"result"})

	m.cacheEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("summary_cache_entries"),
		Help:        "Entries currently held by the summary cache",
		ConstLabels: labels,
	})

	m.activeUsers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("active_users"),
		Help:        "Users edited since the process started",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_requests_total"),
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_component_total"),
		Help:        "Errors by component and type",
		ConstLabels: labels,
	}, []string{"component", "error_type"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_endpoint_total"),
		Help:        "HTTP errors by endpoint, method and type",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        m.name("memory_usage_bytes"),
		Help:        "Heap bytes allocated",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        m.name("goroutines"),
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        m.name("gc_pause_milliseconds"),
		Help:        "Average GC pause in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	})
}

// Enabled reports whether recording is switched on.
func (m *Manager) Enabled() bool { return m.enabled }

// Engine Metrics Functions.

// RecordEdit counts one edit operation with its outcome ("ok", "rejected", "failed", "duplicate").
func RecordEdit(operation, outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.edits.WithLabelValues(operation, outcome).Inc()
}

// RecordBulkDates counts applied and skipped dates of one bulk edit.
func RecordBulkDates(action string, applied, skipped int) {
	if !globalManager.enabled {
		return
	}
	globalManager.bulkDates.WithLabelValues(action, "applied").Add(float64(applied))
	globalManager.bulkDates.WithLabelValues(action, "skipped").Add(float64(skipped))
}

// RecordRecompute records one recomputation and the resulting current streak.
func RecordRecompute(latencyMs float64, current int) {
	if !globalManager.enabled {
		return
	}
	globalManager.recomputeLatency.Observe(latencyMs)
	globalManager.currentStreak.Observe(float64(current))
}

// RecordProfileUpdate counts a profile cache push ("ok" or "failed").
func RecordProfileUpdate(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.profileUpdates.WithLabelValues(outcome).Inc()
}

// RecordDuplicateRequest counts a mutating request dropped by idempotency key.
func RecordDuplicateRequest() {
	if !globalManager.enabled {
		return
	}
	globalManager.duplicates.Inc()
}

// Store Metrics Functions.

// RecordStoreOperation records the latency of one store round-trip.
func RecordStoreOperation(backend, operation string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeLatency.WithLabelValues(backend, operation).Observe(latencyMs)
}

// RecordStoreError counts one failed store round-trip.
func RecordStoreError(backend, operation string) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeErrors.WithLabelValues(backend, operation).Inc()
}

// Cache Metrics Functions.

// RecordSummaryCacheLookup counts a summary cache hit or miss.
func RecordSummaryCacheLookup(hit bool) {
	if !globalManager.enabled {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	globalManager.cacheLookups.WithLabelValues(result).Inc()
}

// UpdateSummaryCacheEntries sets the number of cached summaries.
func UpdateSummaryCacheEntries(count int64) {
	globalManager.cacheEntries.Set(float64(count))
}

// UpdateActiveUsers sets the number of users edited since start.
func UpdateActiveUsers(count int) {
	globalManager.activeUsers.Set(float64(count))
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

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

// SetEnabled switches recording on or off for the global manager.
func SetEnabled(enabled bool) {
	globalManager.enabled = enabled
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Since returns the elapsed time since start in fractional milliseconds.
func Since(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
