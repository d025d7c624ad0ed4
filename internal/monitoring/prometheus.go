package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for actions.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeCancelled = "cancelled"
)

// Metrics holds the engine's Prometheus instruments. All methods are safe on
// a nil receiver so the engine can run without a registry.
type Metrics struct {
	actionsTotal        *prometheus.CounterVec
	actionDuration      *prometheus.HistogramVec
	partitionsProcessed prometheus.Counter
	recordsShuffled     *prometheus.CounterVec
	cacheRequests       *prometheus.CounterVec
	cacheCorruptions    prometheus.Counter
	cacheEntries        prometheus.Gauge
}

// NewMetrics registers the engine metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		actionsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tamarin_actions_total",
			Help: "Total number of dataset actions by action and outcome.",
		}, []string{"action", "outcome"}),
		actionDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tamarin_action_duration_seconds",
			Help:    "Time spent evaluating dataset actions.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"action"}),
		partitionsProcessed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "tamarin_partitions_processed_total",
			Help: "Total number of partitions streamed by the worker pool.",
		}),
		recordsShuffled: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tamarin_records_shuffled_total",
			Help: "Total number of records moved across partitions by shuffle operators.",
		}, []string{"operator"}),
		cacheRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tamarin_cache_requests_total",
			Help: "Cache lookups for persisted datasets by result.",
		}, []string{"result"}),
		cacheCorruptions: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "tamarin_cache_corruptions_total",
			Help: "Cache entries that failed their integrity check.",
		}),
		cacheEntries: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "tamarin_cache_entries",
			Help: "Number of persisted datasets currently held in the cache.",
		}),
	}
}

// ObserveAction counts a finished action and records its duration.
func (m *Metrics) ObserveAction(action, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.actionsTotal.WithLabelValues(action, outcome).Inc()
	m.actionDuration.WithLabelValues(action).Observe(d.Seconds())
}

// PartitionProcessed counts one evaluated partition.
func (m *Metrics) PartitionProcessed() {
	if m == nil {
		return
	}
	m.partitionsProcessed.Inc()
}

// RecordsShuffled adds n to the records moved by operator's shuffle.
func (m *Metrics) RecordsShuffled(operator string, n int) {
	if m == nil {
		return
	}
	m.recordsShuffled.WithLabelValues(operator).Add(float64(n))
}

// CacheHit counts a persisted dataset served from the cache.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues("hit").Inc()
}

// CacheMiss counts a persisted dataset that had to be computed.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues("miss").Inc()
}

// CacheCorruption counts an entry that failed its integrity check.
func (m *Metrics) CacheCorruption() {
	if m == nil {
		return
	}
	m.cacheCorruptions.Inc()
}

// SetCacheEntries sets the number of stored entries.
func (m *Metrics) SetCacheEntries(n int) {
	if m == nil {
		return
	}
	m.cacheEntries.Set(float64(n))
}
