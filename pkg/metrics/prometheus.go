// Package metrics provides Prometheus metrics for the hunt leaderboard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the leaderboard service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Sync metrics
	reloads             *prometheus.CounterVec
	reloadLatency       prometheus.Histogram
	snapshotEntries     prometheus.Gauge
	snapshotVersion     prometheus.Gauge
	snapshotLastUnix    prometheus.Gauge
	notifications       *prometheus.CounterVec
	commands            *prometheus.CounterVec
	commandLatency      *prometheus.HistogramVec
	idempotentDuplicate prometheus.Counter
	degraded            prometheus.Gauge

	// Reload queue metrics
	queueSize      prometheus.Gauge
	queueCapacity  prometheus.Gauge
	queueEnqueued  prometheus.Counter
	queueDequeued  prometheus.Counter
	queueDropped   prometheus.Counter
	queueWaitTimes prometheus.Histogram

	// Worker metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	streamClients       prometheus.Gauge

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "hunt",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval reports how often gauge refreshers should run.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// Enabled reports whether recording is active.
func (m *Manager) Enabled() bool { return m.enabled }

func (m *Manager) name(n string) string { return m.metricPrefix + n }

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

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		Buckets: m.histogramBuckets, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		Buckets: m.histogramBuckets, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.reloads = m.counterVec("reloads_total", "Full reloads by result", "result")
	m.reloadLatency = m.histogram("reload_latency_milliseconds", "Full reload latency in milliseconds")
	m.snapshotEntries = m.gauge("snapshot_entries", "Entries in the current snapshot")
	m.snapshotVersion = m.gauge("snapshot_version", "Monotonic version of the current snapshot")
	m.snapshotLastUnix = m.gauge("snapshot_last_unix_seconds", "Unix time of the last snapshot replacement")
	m.notifications = m.counterVec("notifications_total", "Change notifications received by source", "source")
	m.commands = m.counterVec("commands_total", "Insert/delete commands by operation and result", "op", "result")
	m.commandLatency = m.histogramVec("command_latency_milliseconds", "Insert/delete latency in milliseconds", "op")
	m.idempotentDuplicate = m.counter("idempotent_duplicates_total", "Admin inserts skipped by idempotency key")
	m.degraded = m.gauge("degraded", "1 when the remote store is not configured or unreachable")

	m.queueSize = m.gauge("reload_queue_size", "Pending reload requests")
	m.queueCapacity = m.gauge("reload_queue_capacity", "Reload queue capacity")
	m.queueEnqueued = m.counter("reload_queue_enqueued_total", "Reload requests enqueued")
	m.queueDequeued = m.counter("reload_queue_dequeued_total", "Reload requests dequeued")
	m.queueDropped = m.counter("reload_queue_dropped_total", "Reload requests dropped because the queue was full or closed")
	m.queueWaitTimes = m.histogram("reload_queue_wait_milliseconds", "Time a reload request waited in the queue")

	m.workerCount = m.gauge("worker_count", "Configured reload workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Reload workers currently running a reload")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Worker time per reload request")
	m.workerErrors = m.counter("worker_errors_total", "Reload requests that failed in a worker")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")
	m.streamClients = m.gauge("stream_clients", "Connected websocket clients")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of operations that failed", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes in use")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Last GC pause in milliseconds")
}

func on() bool { return globalManager != nil && globalManager.enabled }

// Sync metrics.

// RecordReload records a full reload outcome ("ok" or "error") and its latency.
func RecordReload(result string, latencyMs float64) {
	if !on() {
		return
	}
	globalManager.reloads.WithLabelValues(result).Inc()
	globalManager.reloadLatency.Observe(latencyMs)
}

// UpdateSnapshot records the size and version of a freshly published snapshot.
func UpdateSnapshot(entries int, version uint64, at time.Time) {
	if !on() {
		return
	}
	globalManager.snapshotEntries.Set(float64(entries))
	globalManager.snapshotVersion.Set(float64(version))
	globalManager.snapshotLastUnix.Set(float64(at.Unix()))
}

// RecordNotification counts a change notification from source.
func RecordNotification(source string) {
	if !on() {
		return
	}
	globalManager.notifications.WithLabelValues(source).Inc()
}

// RecordCommand counts an insert/delete command.
func RecordCommand(op, result string, latencyMs float64) {
	if !on() {
		return
	}
	globalManager.commands.WithLabelValues(op, result).Inc()
	globalManager.commandLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordIdempotentDuplicate counts an admin insert skipped by its idempotency key.
func RecordIdempotentDuplicate() {
	if !on() {
		return
	}
	globalManager.idempotentDuplicate.Inc()
}

// SetDegraded flags the service as running without a remote store.
func SetDegraded(degraded bool) {
	if !on() {
		return
	}
	if degraded {
		globalManager.degraded.Set(1)
		return
	}
	globalManager.degraded.Set(0)
}

// Reload queue metrics.

// UpdateQueueSize sets the current reload queue size.
func UpdateQueueSize(size int) {
	if !on() {
		return
	}
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the reload queue capacity.
func UpdateQueueCapacity(capacity int) {
	if !on() {
		return
	}
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if !on() {
		return
	}
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if !on() {
		return
	}
	globalManager.queueDequeued.Inc()
}

// RecordQueueDrop increments the dropped request counter.
func RecordQueueDrop() {
	if !on() {
		return
	}
	globalManager.queueDropped.Inc()
}

// RecordQueueWait records how long a request waited before a worker picked it up.
func RecordQueueWait(latencyMs float64) {
	if !on() {
		return
	}
	globalManager.queueWaitTimes.Observe(latencyMs)
}

// Worker metrics.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	if !on() {
		return
	}
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of workers currently reloading.
func UpdateWorkerActiveCount(count int) {
	if !on() {
		return
	}
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if !on() {
		return
	}
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if !on() {
		return
	}
	globalManager.workerErrors.Inc()
}

// HTTP metrics.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !on() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !on() {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateStreamClients sets the number of connected websocket clients.
func UpdateStreamClients(count int) {
	if !on() {
		return
	}
	globalManager.streamClients.Set(float64(count))
}

// Error metrics.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !on() {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !on() {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if !on() {
		return
	}
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metrics.

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !on() {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !on() {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !on() {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// RefreshInterval returns the global manager's gauge refresh interval.
func RefreshInterval() time.Duration {
	if globalManager == nil {
		return defaultRefreshInterval
	}
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
