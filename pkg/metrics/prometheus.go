// Package metrics provides Prometheus metrics for the ranklist service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Regeneration modes used as label values.
const (
	ModeFull        = "full"
	ModeIncremental = "incremental"
	ModeUntil       = "until"
)

// Manager owns every collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Regeneration
	regenerations        *prometheus.CounterVec
	regenerationDuration *prometheus.HistogramVec
	eventsApplied        *prometheus.CounterVec
	integrityFaults      *prometheus.CounterVec
	seriesFallbacks      *prometheus.CounterVec

	// Ingestion
	eventsDuplicate  prometheus.Counter
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	batchesRejected  *prometheus.CounterVec
	workerCount      prometheus.Gauge
	batchesProcessed *prometheus.CounterVec

	// Repository
	ranklists               prometheus.Gauge
	repositoryUpdateLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by package helpers

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ranklist",
		subsystem:        "regen",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
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
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.regenerations = m.counterVec("regenerations_total", "Ranklist regenerations by mode", "mode")
	m.regenerationDuration = m.histogramVec("regeneration_duration_milliseconds", "Regeneration wall time in milliseconds", "mode")
	m.eventsApplied = m.counterVec("events_applied_total", "Solution events folded into scoreboards", "mode")
	m.integrityFaults = m.counterVec("integrity_faults_total", "Event batches abandoned on an unknown user or problem", "mode")
	m.seriesFallbacks = m.counterVec("series_fallbacks_total", "Series ranked as all-null because of an unusable rule", "preset")

	m.eventsDuplicate = promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "batches_duplicate_total",
		Help:        "Solution batches dropped as already seen",
		ConstLabels: m.constLabels,
	})
	m.queueSize = m.gauge("queue_size", "Solution batches waiting to be applied")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queued solution batches")
	m.batchesRejected = m.counterVec("batches_rejected_total", "Solution batches refused by the queue", "reason")
	m.workerCount = m.gauge("worker_count", "Workers applying incremental batches")
	m.batchesProcessed = m.counterVec("batches_processed_total", "Solution batches handled by workers", "status")

	m.ranklists = m.gauge("ranklists", "Ranklists held in the snapshot store")
	m.repositoryUpdateLatency = m.histogramVec("repository_update_duration_milliseconds", "Snapshot update latency in milliseconds")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")
}

// RecordRegeneration counts a regeneration in mode.
func RecordRegeneration(mode string) {
	globalManager.regenerations.WithLabelValues(mode).Inc()
}

// RecordRegenerationDuration observes a regeneration's duration.
func RecordRegenerationDuration(mode string, ms float64) {
	globalManager.regenerationDuration.WithLabelValues(mode).Observe(ms)
}

// RecordEventsApplied adds n folded events.
func RecordEventsApplied(mode string, n int) {
	globalManager.eventsApplied.WithLabelValues(mode).Add(float64(n))
}

// RecordIntegrityFault counts an abandoned event batch.
func RecordIntegrityFault(mode string) {
	globalManager.integrityFaults.WithLabelValues(mode).Inc()
}

// RecordSeriesFallback counts a series that degraded to null values.
func RecordSeriesFallback(preset string) {
	globalManager.seriesFallbacks.WithLabelValues(preset).Inc()
}

// RecordEventDuplicate counts a duplicate batch.
func RecordEventDuplicate() {
	globalManager.eventsDuplicate.Inc()
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordBatchRejected counts a batch the queue refused.
func RecordBatchRejected(reason string) {
	globalManager.batchesRejected.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordBatchProcessed counts a batch a worker finished with status.
func RecordBatchProcessed(status string) {
	globalManager.batchesProcessed.WithLabelValues(status).Inc()
}

// RecordRepositoryUpdateLatency observes one snapshot update.
func RecordRepositoryUpdateLatency(ms float64) {
	globalManager.repositoryUpdateLatency.WithLabelValues().Observe(ms)
}

// UpdateRanklistCount sets the number of stored ranklists.
func UpdateRanklistCount(count int) {
	globalManager.ranklists.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
