// Package metrics provides Prometheus metrics for the tourney scoring service.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultRefreshInterval = 10 * time.Second

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	refreshInterval  time.Duration
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Scoring pipeline
	submissionsAccepted  prometheus.Counter
	submissionsDuplicate prometheus.Counter
	recomputeLatency     prometheus.Histogram
	recomputeErrors      prometheus.Counter
	resultsStored        prometheus.Counter
	resultsStale         prometheus.Counter
	scoredRows           *prometheus.CounterVec

	// Side engines
	handicapUpdates prometheus.Counter
	groupsBuilt     *prometheus.CounterVec
	cardsClassified prometheus.Counter

	// Standings
	standingsPlayers *prometheus.GaugeVec
	standingsLatency prometheus.Histogram

	// Queue and workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors *prometheus.CounterVec
	workerCount        prometheus.Gauge
	workerLatency      prometheus.Histogram
	workerErrors       prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         prometheus.Counter

	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level recorders

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tourney",
		subsystem:        "scoring",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.submissionsAccepted = m.counter("submissions_accepted_total", "Classification submissions accepted for recompute")
	m.submissionsDuplicate = m.counter("submissions_duplicate_total", "Classification submissions rejected as duplicates")
	m.recomputeLatency = m.histogram("recompute_latency_milliseconds", "Time spent computing points by category")
	m.recomputeErrors = m.counter("recompute_errors_total", "Recompute jobs that failed to persist")
	m.resultsStored = m.counter("results_stored_total", "Event results written to the results store")
	m.resultsStale = m.counter("results_stale_total", "Event results discarded because a newer result exists")
	m.scoredRows = m.counterVec("scored_rows_total", "Scored rows produced, by scope", "scope")

	m.handicapUpdates = m.counter("handicap_updates_total", "Handicap updates applied")
	m.groupsBuilt = m.counterVec("groups_built_total", "Starting groups built, by schedule type", "type")
	m.cardsClassified = m.counter("cards_classified_total", "Cards ordered by the classification tie-break")

	m.standingsPlayers = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "standings_players",
		Help: "Players tracked in championship standings, by category", ConstLabels: m.constLabels,
	}, []string{"category"})
	m.standingsLatency = m.histogram("standings_update_latency_milliseconds", "Time spent folding an event into standings")

	m.queueSize = m.gauge("queue_size", "Recompute jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum recompute jobs the queue holds")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total", "Rejected enqueues, by reason", "reason")
	m.workerCount = m.gauge("worker_count", "Recompute workers running")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds", "End-to-end job processing time")
	m.workerErrors = m.counter("worker_errors_total", "Jobs that ended in an error")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests, by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "http_request_duration_milliseconds",
		Help: "HTTP request latency", Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.rateLimited = m.counter("http_rate_limited_total", "Requests rejected by the rate limiter")

	m.errorsByComponent = m.counterVec("errors_total", "Errors, by component and type", "component", "type")
}

// Package-level recorders. All of them are no-ops when metrics are disabled.

func RecordSubmissionAccepted() {
	if globalManager.enabled.Load() {
		globalManager.submissionsAccepted.Inc()
	}
}

func RecordSubmissionDuplicate() {
	if globalManager.enabled.Load() {
		globalManager.submissionsDuplicate.Inc()
	}
}

func RecordRecomputeLatency(ms float64) {
	if globalManager.enabled.Load() {
		globalManager.recomputeLatency.Observe(ms)
	}
}

func RecordRecomputeError() {
	if globalManager.enabled.Load() {
		globalManager.recomputeErrors.Inc()
	}
}

func RecordResultStored() {
	if globalManager.enabled.Load() {
		globalManager.resultsStored.Inc()
	}
}

func RecordResultStale() {
	if globalManager.enabled.Load() {
		globalManager.resultsStale.Inc()
	}
}

func RecordScoredRows(scope string, n int) {
	if globalManager.enabled.Load() {
		globalManager.scoredRows.WithLabelValues(scope).Add(float64(n))
	}
}

func RecordHandicapUpdate() {
	if globalManager.enabled.Load() {
		globalManager.handicapUpdates.Inc()
	}
}

func RecordGroupsBuilt(scheduleType string, n int) {
	if globalManager.enabled.Load() {
		globalManager.groupsBuilt.WithLabelValues(scheduleType).Add(float64(n))
	}
}

func RecordCardsClassified(n int) {
	if globalManager.enabled.Load() {
		globalManager.cardsClassified.Add(float64(n))
	}
}

func UpdateStandingsPlayers(category string, n int) {
	if globalManager.enabled.Load() {
		globalManager.standingsPlayers.WithLabelValues(category).Set(float64(n))
	}
}

func RecordStandingsLatency(ms float64) {
	if globalManager.enabled.Load() {
		globalManager.standingsLatency.Observe(ms)
	}
}

func UpdateQueueSize(size int) {
	if globalManager.enabled.Load() {
		globalManager.queueSize.Set(float64(size))
	}
}

func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled.Load() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

func RecordQueueEnqueueError(reason string) {
	if globalManager.enabled.Load() {
		globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
	}
}

func UpdateWorkerCount(n int) {
	if globalManager.enabled.Load() {
		globalManager.workerCount.Set(float64(n))
	}
}

func RecordWorkerLatency(ms float64) {
	if globalManager.enabled.Load() {
		globalManager.workerLatency.Observe(ms)
	}
}

func RecordWorkerError() {
	if globalManager.enabled.Load() {
		globalManager.workerErrors.Inc()
	}
}

func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if globalManager.enabled.Load() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

func RecordRateLimited() {
	if globalManager.enabled.Load() {
		globalManager.rateLimited.Inc()
	}
}

func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled.Load() {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// GetRegistry returns the registry backing the package-level recorders.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
