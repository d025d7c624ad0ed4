// Package dataset implements lazily evaluated, partitioned datasets and the
// engine that evaluates them.
//
// Transformations (Map, Filter, FlatMap, Distinct, Subtract, Join,
// GroupByKey, ReduceByKey, Repartition) only record lineage. Work happens
// when an action (Count, Collect, CollectLimited, ForEach, Take, Partitions,
// CountByKey, CountByValue) is invoked: the engine walks the lineage back to
// the nearest source or persisted dataset and streams partitions forward
// through the fused chain of narrow stages on its worker pool. Shuffling
// operators are barriers: their parents are evaluated completely before the
// shuffled partitions are produced.
package dataset

import (
	"context"
	stderrors "errors"
	"hash/maphash"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/paveg/tamarin/internal/cache"
	"github.com/paveg/tamarin/internal/config"
	"github.com/paveg/tamarin/internal/monitoring"
	"github.com/paveg/tamarin/internal/parallel"
)

// Engine evaluates datasets. It owns the worker pool and the cache of
// persisted datasets, and is safe for concurrent use by multiple actions.
type Engine struct {
	cfg       config.Config
	pool      *parallel.WorkerPool
	cache     *cache.Manager
	logger    log.Logger
	metrics   *monitoring.Metrics
	collector *monitoring.MetricsCollector
	seed      maphash.Seed
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. The default discards everything.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the Prometheus instruments the engine reports to.
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(e *Engine) {
		e.metrics = metrics
	}
}

// WithCollector sets the per-action metrics collector. When
// Config.MetricsCollection is true the collector is enabled, or created if
// unset.
func WithCollector(collector *monitoring.MetricsCollector) Option {
	return func(e *Engine) {
		e.collector = collector
	}
}

// NewEngine creates an engine from cfg. Zero values in cfg are replaced by
// their defaults before validation.
func NewEngine(cfg config.Config, opts ...Option) (*Engine, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		logger: log.NewNopLogger(),
		seed:   maphash.MakeSeed(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if cfg.MetricsCollection {
		if e.collector == nil {
			e.collector = monitoring.NewMetricsCollector(true)
		}
		e.collector.SetEnabled(true)
	}

	e.pool = parallel.NewWorkerPool(cfg.Workers())
	e.cache = cache.NewManager(log.With(e.logger, "component", "cache"), e.metrics)

	level.Debug(e.logger).Log("msg", "engine started", "workers", e.pool.Size(), "shuffle_buckets", cfg.ShuffleBuckets)
	return e, nil
}

// Config returns the engine configuration with defaults applied.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Collector returns the per-action metrics collector, or nil.
func (e *Engine) Collector() *monitoring.MetricsCollector {
	return e.collector
}

// CacheStats returns a snapshot of cache activity.
func (e *Engine) CacheStats() cache.Stats {
	return e.cache.Stats()
}

// Close stops the worker pool. Actions in flight fail with context.Canceled.
func (e *Engine) Close() {
	e.pool.Close()
}

// runAction wraps an action with logging, metrics and collection. fn
// returns the number of records the action produced.
func (e *Engine) runAction(ctx context.Context, action string, d node, fn func(ctx context.Context) (int64, error)) error {
	logger := log.With(e.logger, "action", action, "dataset", d.ID())
	level.Debug(logger).Log("msg", "action started", "lineage", d.Operator())

	start := time.Now()
	var records int64
	err := e.collector.RecordOperation(action, func() (int64, error) {
		n, err := fn(ctx)
		records = n
		return n, err
	})
	elapsed := time.Since(start)

	switch {
	case err == nil:
		e.metrics.ObserveAction(action, monitoring.OutcomeSuccess, elapsed)
		level.Info(logger).Log("msg", "action finished", "records", records, "duration", elapsed)
	case stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded):
		e.metrics.ObserveAction(action, monitoring.OutcomeCancelled, elapsed)
		level.Warn(logger).Log("msg", "action cancelled", "duration", elapsed, "err", err)
	default:
		e.metrics.ObserveAction(action, monitoring.OutcomeFailure, elapsed)
		level.Error(logger).Log("msg", "action failed", "duration", elapsed, "err", err)
	}
	return err
}
