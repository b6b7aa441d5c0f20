// Package metrics provides Prometheus metrics for the bandboard service and tools.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	refreshInterval  atomic.Int64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Session metrics
	sessionsOpened  prometheus.Counter
	sessionsClosed  *prometheus.CounterVec
	sessionsActive  prometheus.Gauge
	sessionDuration prometheus.Histogram

	// Payload delivery
	payloadsSent    *prometheus.CounterVec
	payloadsDropped *prometheus.CounterVec
	payloadBytes    *prometheus.HistogramVec

	// Source reads and watch events
	sourceReads       *prometheus.CounterVec
	sourceReadLatency prometheus.Histogram
	watchEvents       *prometheus.CounterVec

	// Outbound queue
	queueCapacity prometheus.Gauge
	queueEnqueued prometheus.Counter
	queueDequeued prometheus.Counter
	queueRejected *prometheus.CounterVec

	// PDF consolidation
	pdfParsed     *prometheus.CounterVec
	pdfPages      prometheus.Counter
	rowsExtracted *prometheus.CounterVec
	pdfLatency    prometheus.Histogram

	// Client-side store
	storeApplied     *prometheus.CounterVec
	storeRowsDropped prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

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

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bandboard",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)
	m.refreshInterval.Store(int64(defaultRefreshInterval))

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix != "" {
		return m.metricPrefix + "_" + n
	}
	return n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, Buckets: buckets, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, Buckets: buckets, ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	m.sessionsOpened = m.counter("sessions_opened_total", "Total number of broadcast sessions opened")
	m.sessionsClosed = m.counterVec("sessions_closed_total", "Total number of broadcast sessions closed by reason", "reason")
	m.sessionsActive = m.gauge("sessions_active", "Current number of connected broadcast sessions")
	m.sessionDuration = m.histogram("session_duration_seconds", "Lifetime of broadcast sessions in seconds",
		[]float64{1, 10, 60, 300, 1800, 3600, 14400})

	m.payloadsSent = m.counterVec("payloads_sent_total", "Payloads written to clients by kind", "kind")
	m.payloadsDropped = m.counterVec("payloads_dropped_total", "Payloads dropped before delivery by kind and reason", "kind", "reason")
	m.payloadBytes = m.histogramVec("payload_bytes", "Size of payloads written to clients",
		prometheus.ExponentialBuckets(256, 4, 8), "kind")

	m.sourceReads = m.counterVec("source_reads_total", "Source file reads by kind and outcome", "kind", "outcome")
	m.sourceReadLatency = m.histogram("source_read_latency_milliseconds", "Latency of source read-and-parse in milliseconds", m.histogramBuckets)
	m.watchEvents = m.counterVec("watch_events_total", "Filesystem events observed by operation", "op")

	m.queueCapacity = m.gauge("queue_capacity", "Configured capacity of per-session outbound queues")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Payloads accepted by outbound queues")
	m.queueDequeued = m.counter("queue_dequeued_total", "Payloads drained from outbound queues")
	m.queueRejected = m.counterVec("queue_rejected_total", "Payloads rejected by outbound queues by reason", "reason")

	m.pdfParsed = m.counterVec("pdf_parsed_total", "PDF score sheets processed by outcome", "outcome")
	m.pdfPages = m.counter("pdf_pages_total", "PDF pages reconstructed")
	m.rowsExtracted = m.counterVec("rows_extracted_total", "Score rows extracted by method", "method")
	m.pdfLatency = m.histogram("pdf_parse_latency_milliseconds", "Latency of a single PDF parse in milliseconds",
		[]float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000})

	m.storeApplied = m.counterVec("store_payloads_applied_total", "Payloads applied to the client data store by kind", "kind")
	m.storeRowsDropped = m.counter("store_rows_dropped_total", "Score rows rejected by the client data store for shape mismatch")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		m.histogramBuckets, "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Current heap allocation in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Current number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50})
}

// Session metrics.

// RecordSessionOpened counts a new session and bumps the active gauge.
func RecordSessionOpened() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.sessionsOpened.Inc()
	globalManager.sessionsActive.Inc()
}

// RecordSessionClosed counts a closed session and records its lifetime.
func RecordSessionClosed(reason string, lifetime time.Duration) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.sessionsClosed.WithLabelValues(reason).Inc()
	globalManager.sessionsActive.Dec()
	globalManager.sessionDuration.Observe(lifetime.Seconds())
}

// UpdateActiveSessions overwrites the active session gauge.
func UpdateActiveSessions(count int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.sessionsActive.Set(float64(count))
}

// Payload metrics.

// RecordPayloadSent counts a delivered payload.
func RecordPayloadSent(kind string, size int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.payloadsSent.WithLabelValues(kind).Inc()
	globalManager.payloadBytes.WithLabelValues(kind).Observe(float64(size))
}

// RecordPayloadDropped counts a payload that never reached the client.
func RecordPayloadDropped(kind, reason string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.payloadsDropped.WithLabelValues(kind, reason).Inc()
}

// Source metrics.

// RecordSourceRead counts a source read outcome: ok, not_found, read_error, parse_error.
func RecordSourceRead(kind, outcome string, latencyMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.sourceReads.WithLabelValues(kind, outcome).Inc()
	globalManager.sourceReadLatency.Observe(latencyMs)
}

// RecordWatchEvent counts a filesystem event relevant to a source file.
func RecordWatchEvent(op string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.watchEvents.WithLabelValues(op).Inc()
}

// Queue metrics.

// UpdateQueueCapacity sets the configured outbound queue capacity.
func UpdateQueueCapacity(capacity int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.queueDequeued.Inc()
}

// RecordQueueRejected counts an enqueue that was refused.
func RecordQueueRejected(reason string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// PDF metrics.

// RecordPdfParsed counts a PDF outcome: ok, no_rows, error.
func RecordPdfParsed(outcome string, latencyMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.pdfParsed.WithLabelValues(outcome).Inc()
	globalManager.pdfLatency.Observe(latencyMs)
}

// RecordPdfPage counts a reconstructed page.
func RecordPdfPage() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.pdfPages.Inc()
}

// RecordRowsExtracted counts rows produced by the row pattern or the fallback.
func RecordRowsExtracted(method string, count int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.rowsExtracted.WithLabelValues(method).Add(float64(count))
}

// Store metrics.

// RecordStoreApplied counts a payload applied to the client data store.
func RecordStoreApplied(kind string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.storeApplied.WithLabelValues(kind).Inc()
}

// RecordStoreRowsDropped counts rows rejected for having the wrong number of cells.
func RecordStoreRowsDropped(count int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.storeRowsDropped.Add(float64(count))
}

// HTTP metrics.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System metrics.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// Configure applies runtime options to the global manager. Only
// WithMetricsEnabled and WithRefreshInterval take effect after startup; the
// naming options are fixed once the metrics are registered.
func Configure(opts ...Option) {
	staged := &Manager{customLabels: make(map[string]string)}
	staged.enabled.Store(globalManager.enabled.Load())
	staged.refreshInterval.Store(globalManager.refreshInterval.Load())
	for _, opt := range opts {
		opt(staged)
	}
	globalManager.enabled.Store(staged.enabled.Load())
	globalManager.refreshInterval.Store(staged.refreshInterval.Load())
}

// Enabled reports whether the global manager records metrics.
func Enabled() bool {
	return globalManager.enabled.Load()
}

// RefreshInterval is how often periodic gauges such as the system metrics are sampled.
func RefreshInterval() time.Duration {
	return time.Duration(globalManager.refreshInterval.Load())
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
