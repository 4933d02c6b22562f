// Package metrics provides Prometheus metrics for the heartfuse service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Fusion pipeline
	fusionRequests      *prometheus.CounterVec
	fusedScore          prometheus.Histogram
	modalitiesPerReport prometheus.Histogram
	normalizeFallbacks  *prometheus.CounterVec

	// Documents
	documentsRendered *prometheus.CounterVec
	renderFailures    *prometheus.CounterVec
	renderLatency     prometheus.Histogram

	// Mail
	mailDispatches *prometheus.CounterVec
	mailLatency    prometheus.Histogram

	// Submissions and storage
	submissionsIngested  *prometheus.CounterVec
	submissionsDuplicate prometheus.Counter
	storeRecords         prometheus.Gauge
	storeQueryLatency    *prometheus.HistogramVec

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

var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics manager

// customRegistry keeps the default Go collectors out of /healthz.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "heartfuse",
		subsystem:        "fusion",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
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
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	if len(buckets) == 0 {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	latencyBuckets := []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

	m.fusionRequests = auto.NewCounterVec(
		m.counterOpts("reports_total", "Fused reports computed, by risk tier"),
		[]string{"tier"},
	)
	m.fusedScore = auto.NewHistogram(m.histogramOpts(
		"fused_score", "Distribution of fused risk scores",
		prometheus.LinearBuckets(0.1, 0.1, 10),
	))
	m.modalitiesPerReport = auto.NewHistogram(m.histogramOpts(
		"modalities_per_report", "Number of modalities contributing to a fused report",
		[]float64{1, 2, 3, 4, 5},
	))
	m.normalizeFallbacks = auto.NewCounterVec(
		m.counterOpts("normalize_fallbacks_total", "Scores resolved without a usable probability, by reason"),
		[]string{"reason"},
	)

	m.documentsRendered = auto.NewCounterVec(
		m.counterOpts("documents_rendered_total", "PDF documents rendered and archived"),
		[]string{"kind"},
	)
	m.renderFailures = auto.NewCounterVec(
		m.counterOpts("document_failures_total", "PDF documents that failed to render or archive"),
		[]string{"kind"},
	)
	m.renderLatency = auto.NewHistogram(m.histogramOpts(
		"render_latency_milliseconds", "Time to render and archive a document", latencyBuckets,
	))

	m.mailDispatches = auto.NewCounterVec(
		m.counterOpts("mail_dispatches_total", "Report e-mail dispatch attempts, by outcome"),
		[]string{"outcome"},
	)
	m.mailLatency = auto.NewHistogram(m.histogramOpts(
		"mail_latency_milliseconds", "Time spent handing a report to the mail relay", latencyBuckets,
	))

	m.submissionsIngested = auto.NewCounterVec(
		m.counterOpts("submissions_total", "Prediction records accepted, by modality"),
		[]string{"modality"},
	)
	m.submissionsDuplicate = auto.NewCounter(
		m.counterOpts("submissions_duplicate_total", "Submissions rejected as duplicates"),
	)
	m.storeRecords = auto.NewGauge(m.gaugeOpts("store_records", "Prediction records held by the store"))
	m.storeQueryLatency = auto.NewHistogramVec(
		m.histogramOpts("store_latency_milliseconds", "Submission store operation latency", latencyBuckets),
		[]string{"operation"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status code"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request latency", latencyBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", latencyBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "Average GC pause time",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
	))
}

// RecordFusion records a computed fused report.
func RecordFusion(tier string, score float64, modalities int) {
	globalManager.fusionRequests.WithLabelValues(tier).Inc()
	globalManager.fusedScore.Observe(score)
	globalManager.modalitiesPerReport.Observe(float64(modalities))
}

// RecordNormalizeFallback counts a score that fell back to label mapping or the uncertain default.
func RecordNormalizeFallback(reason string) {
	globalManager.normalizeFallbacks.WithLabelValues(reason).Inc()
}

// RecordDocumentRendered counts an archived document of the given kind.
func RecordDocumentRendered(kind string, latencyMs float64) {
	globalManager.documentsRendered.WithLabelValues(kind).Inc()
	globalManager.renderLatency.Observe(latencyMs)
}

// RecordDocumentFailure counts a document that could not be produced.
func RecordDocumentFailure(kind string) {
	globalManager.renderFailures.WithLabelValues(kind).Inc()
}

// RecordMailDispatch counts a dispatch attempt with its outcome.
func RecordMailDispatch(outcome string, latencyMs float64) {
	globalManager.mailDispatches.WithLabelValues(outcome).Inc()
	globalManager.mailLatency.Observe(latencyMs)
}

// RecordSubmission counts an accepted prediction record.
func RecordSubmission(modality string) {
	globalManager.submissionsIngested.WithLabelValues(modality).Inc()
}

// RecordSubmissionDuplicate counts a submission rejected by the deduper.
func RecordSubmissionDuplicate() {
	globalManager.submissionsDuplicate.Inc()
}

// UpdateStoreRecords sets the number of stored prediction records.
func UpdateStoreRecords(count int) {
	globalManager.storeRecords.Set(float64(count))
}

// RecordStoreLatency records a store operation latency in milliseconds.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeQueryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

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

// UpdateSystemMemoryUsage sets the heap usage in bytes.
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

// GetRegistry returns the registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
