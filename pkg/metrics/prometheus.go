// Package metrics provides Prometheus metrics for the Tasklytics dashboard service.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Load cycle outcomes used as label values.
const (
	OutcomeRendered = "rendered"
	OutcomeEmpty    = "empty"
	OutcomeFailed   = "failed"
)

// Latency buckets in milliseconds; upstream calls are slower than the default seconds buckets assume.
var defaultLatencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Manager manages all Prometheus metrics for the dashboard service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Load cycle
	loadCycles        *prometheus.CounterVec
	fetchLatency      prometheus.Histogram
	renderLatency     prometheus.Histogram
	recordsRendered   prometheus.Gauge
	chartInstances    prometheus.Gauge
	lastSuccessUnix   prometheus.Gauge
	breakerState      prometheus.Gauge
	reloadsThrottled  prometheus.Counter
	scheduledRefresh  prometheus.Counter
	upstreamResponses *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level recorders

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // served by /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tasklytics",
		subsystem:        "dashboard",
		histogramBuckets: defaultLatencyBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.loadCycles = auto.NewCounterVec(
		m.counterOpts("load_cycles_total", "Load cycles by outcome (rendered, empty, failed)"),
		[]string{"outcome"},
	)
	m.fetchLatency = auto.NewHistogram(
		m.histogramOpts("fetch_latency_milliseconds", "Upstream fetch latency in milliseconds"),
	)
	m.renderLatency = auto.NewHistogram(
		m.histogramOpts("render_latency_milliseconds", "Time spent rendering table, chart and summary"),
	)
	m.recordsRendered = auto.NewGauge(
		m.gaugeOpts("records_rendered", "Number of records in the currently rendered dataset"),
	)
	m.chartInstances = auto.NewGauge(
		m.gaugeOpts("chart_instances_active", "Live chart instances; anything above 1 is a leak"),
	)
	m.lastSuccessUnix = auto.NewGauge(
		m.gaugeOpts("last_success_unix_seconds", "Unix time of the last cycle that rendered data"),
	)
	m.breakerState = auto.NewGauge(
		m.gaugeOpts("upstream_breaker_state", "Upstream circuit breaker state (0 closed, 1 half-open, 2 open)"),
	)
	m.reloadsThrottled = auto.NewCounter(
		m.counterOpts("reloads_throttled_total", "Manual reloads rejected by the rate limiter"),
	)
	m.scheduledRefresh = auto.NewCounter(
		m.counterOpts("scheduled_refresh_total", "Load cycles started by the refresh schedule"),
	)
	m.upstreamResponses = auto.NewCounterVec(
		m.counterOpts("upstream_responses_total", "Upstream responses by status code"),
		[]string{"status_code"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(
		m.gaugeOpts("system_memory_bytes", "Heap bytes allocated"),
	)
	m.systemGoroutineCount = auto.NewGauge(
		m.gaugeOpts("system_goroutines", "Number of goroutines"),
	)
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause in milliseconds"),
	)
}

// RecordLoadCycle counts a finished load cycle.
func (m *Manager) RecordLoadCycle(outcome string) error {
	switch outcome {
	case OutcomeRendered, OutcomeEmpty, OutcomeFailed:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, outcome)
	}
	m.loadCycles.WithLabelValues(outcome).Inc()
	return nil
}

// Load cycle functions.

// RecordLoadCycle counts a finished load cycle on the global manager.
func RecordLoadCycle(outcome string) error {
	return globalManager.RecordLoadCycle(outcome)
}

// RecordFetchLatency records upstream fetch latency.
func RecordFetchLatency(latencyMs float64) {
	globalManager.fetchLatency.Observe(latencyMs)
}

// RecordRenderLatency records how long the renders took.
func RecordRenderLatency(latencyMs float64) {
	globalManager.renderLatency.Observe(latencyMs)
}

// UpdateRecordsRendered sets the size of the rendered dataset.
func UpdateRecordsRendered(count int) {
	globalManager.recordsRendered.Set(float64(count))
}

// UpdateChartInstances sets the number of live chart instances.
func UpdateChartInstances(count int) {
	globalManager.chartInstances.Set(float64(count))
}

// MarkLoadSuccess stamps the time of the last successful render.
func MarkLoadSuccess(at time.Time) {
	globalManager.lastSuccessUnix.Set(float64(at.Unix()))
}

// UpdateBreakerState sets the upstream breaker state gauge.
func UpdateBreakerState(state int) {
	globalManager.breakerState.Set(float64(state))
}

// RecordReloadThrottled counts a rejected manual reload.
func RecordReloadThrottled() {
	globalManager.reloadsThrottled.Inc()
}

// RecordScheduledRefresh counts a cron-triggered load.
func RecordScheduledRefresh() {
	globalManager.scheduledRefresh.Inc()
}

// RecordUpstreamResponse counts an upstream response by status code.
func RecordUpstreamResponse(statusCode string) {
	globalManager.upstreamResponses.WithLabelValues(statusCode).Inc()
}

// HTTP metrics functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics functions.

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

// System metrics functions.

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
