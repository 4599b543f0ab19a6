// Package metrics provides Prometheus metrics for the SocGPA service.
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

// socialGPABuckets covers the display score range; scores above 40 are rare.
var socialGPABuckets = []float64{0, 5, 10, 15, 20, 25, 30, 35, 40, 50}

// Manager manages all Prometheus metrics for the SocGPA service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         *prometheus.Registry

	// Classification Metrics
	classifications        *prometheus.CounterVec
	strategyFailures       *prometheus.CounterVec
	remoteClassifyDuration *prometheus.HistogramVec

	// Business Metrics
	achievementsSubmitted prometheus.Counter
	coinsAwarded          prometheus.Counter
	scoreComputations     prometheus.Counter
	socialGPA             prometheus.Histogram
	totalUsers            prometheus.Gauge
	totalAchievements     prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Repository Metrics
	repositoryQueryLatency *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// global is the manager behind the package-level Record and Update
// functions. It is replaced by Configure.
var global atomic.Pointer[Manager] //nolint:gochecknoglobals // process-wide metrics

func init() { //nolint:gochecknoinits // metrics must be usable before Configure
	global.Store(NewManager())
}

// Configure replaces the global manager with one built from opts on a
// fresh registry and returns that registry. Call it at startup, before
// handlers capture GetRegistry.
func Configure(opts ...Option) *prometheus.Registry {
	m := NewManager(opts...)
	global.Store(m)
	return m.registry
}

func current() *Manager { return global.Load() }

// NewManager creates a metrics manager. Unless WithRegistry is given, its
// collectors are registered on a new registry without the Go runtime
// collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "socgpa",
		subsystem:        "api",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
	}

	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()

	return m
}

// Enabled reports whether recording is active.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is how often gauge metrics should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// Registry returns the registry the collectors are registered on.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

func (m *Manager) name(base string) string {
	return m.metricPrefix + base
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     buckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	// Classification Metrics
	m.classifications = auto.NewCounterVec(
		m.counterOpts("classifications_total", "Total number of classifications by producing provider"),
		[]string{"provider"},
	)

	m.strategyFailures = auto.NewCounterVec(
		m.counterOpts("classifier_strategy_failures_total", "Classifier strategy failures that caused a fallback"),
		[]string{"strategy", "reason"},
	)

	m.remoteClassifyDuration = auto.NewHistogramVec(
		m.histogramOpts("remote_classify_duration_milliseconds", "Remote classification call latency in milliseconds",
			[]float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 20000, 40000}),
		[]string{"outcome"},
	)

	// Business Metrics
	m.achievementsSubmitted = auto.NewCounter(
		m.counterOpts("achievements_submitted_total", "Total number of achievements submitted and classified"),
	)

	m.coinsAwarded = auto.NewCounter(
		m.counterOpts("soccoins_awarded_total", "Total SocCoins credited to users"),
	)

	m.scoreComputations = auto.NewCounter(
		m.counterOpts("score_computations_total", "Total number of Social GPA computations"),
	)

	m.socialGPA = auto.NewHistogram(
		m.histogramOpts("social_gpa", "Distribution of computed Social GPA display scores", socialGPABuckets),
	)

	m.totalUsers = auto.NewGauge(m.gaugeOpts("users_total", "Number of known users"))
	m.totalAchievements = auto.NewGauge(m.gaugeOpts("achievements_total", "Number of stored achievements"))

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	// Repository Metrics
	m.repositoryQueryLatency = auto.NewHistogramVec(
		m.histogramOpts("repository_query_latency_milliseconds", "Repository operation latency in milliseconds", m.histogramBuckets),
		[]string{"operation"},
	)

	// Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// Classification Metrics Functions.

// RecordClassification increments the classification counter for provider.
func RecordClassification(provider string) {
	if m := current(); m.enabled {
		m.classifications.WithLabelValues(provider).Inc()
	}
}

// RecordStrategyFailure records a classifier strategy that failed and was skipped.
func RecordStrategyFailure(strategy, reason string) {
	if m := current(); m.enabled {
		m.strategyFailures.WithLabelValues(strategy, reason).Inc()
	}
}

// RecordRemoteClassifyLatency records the remote call latency by outcome (ok, error).
func RecordRemoteClassifyLatency(outcome string, latencyMs float64) {
	if m := current(); m.enabled {
		m.remoteClassifyDuration.WithLabelValues(outcome).Observe(latencyMs)
	}
}

// Business Metrics Functions.

// RecordAchievementSubmitted increments the submitted achievements counter.
func RecordAchievementSubmitted() {
	if m := current(); m.enabled {
		m.achievementsSubmitted.Inc()
	}
}

// RecordCoinsAwarded adds coins to the awarded SocCoins counter.
func RecordCoinsAwarded(coins int64) {
	if m := current(); m.enabled && coins > 0 {
		m.coinsAwarded.Add(float64(coins))
	}
}

// RecordScoreComputation records one Social GPA computation and its value.
func RecordScoreComputation(gpa float64) {
	if m := current(); m.enabled {
		m.scoreComputations.Inc()
		m.socialGPA.Observe(gpa)
	}
}

// UpdateTotalUsers sets the number of known users.
func UpdateTotalUsers(count int64) {
	if m := current(); m.enabled {
		m.totalUsers.Set(float64(count))
	}
}

// UpdateTotalAchievements sets the number of stored achievements.
func UpdateTotalAchievements(count int64) {
	if m := current(); m.enabled {
		m.totalAchievements.Set(float64(count))
	}
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if m := current(); m.enabled {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if m := current(); m.enabled {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// Repository Metrics Functions.

// RecordRepositoryQueryLatency records the latency of a repository operation.
func RecordRepositoryQueryLatency(operation string, latencyMs float64) {
	if m := current(); m.enabled {
		m.repositoryQueryLatency.WithLabelValues(operation).Observe(latencyMs)
	}
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if m := current(); m.enabled {
		m.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m := current(); m.enabled {
		m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if m := current(); m.enabled {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if m := current(); m.enabled {
		m.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if m := current(); m.enabled {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}

// Enabled reports whether the global manager records.
func Enabled() bool {
	return current().enabled
}

// RefreshInterval returns the refresh interval of the global manager.
func RefreshInterval() time.Duration {
	return current().refreshInterval
}

// GetRegistry returns the registry of the global manager.
func GetRegistry() *prometheus.Registry {
	return current().registry
}
