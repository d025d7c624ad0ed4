// Package cache holds the materialized partitions of persisted datasets.
//
// Entries are keyed by dataset id. Concurrent requests for the same key are
// collapsed with a singleflight group so that a dataset is computed at most
// once; entries are stored only after a computation finished successfully,
// so a cancelled or failed computation never leaves a partial entry behind.
package cache

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/singleflight"

	"github.com/paveg/tamarin/internal/errors"
	"github.com/paveg/tamarin/internal/monitoring"
)

// Entry is one persisted dataset.
type Entry struct {
	// Partitions holds the typed partition slice; the cache never looks inside.
	Partitions any
	// Counts holds the record count of every partition at store time.
	Counts []int
}

// Verifier checks an entry against the counts it was stored with.
type Verifier func(Entry) error

// ComputeFunc materializes an entry.
type ComputeFunc func(ctx context.Context) (Entry, error)

// Stats reports cache activity.
type Stats struct {
	Hits        int64
	Misses      int64
	Corruptions int64
	Entries     int
}

// Manager is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]Entry
	gens    map[string]uint64 // bumped by Invalidate
	stats   Stats

	group   singleflight.Group
	logger  log.Logger
	metrics *monitoring.Metrics
}

// NewManager creates an empty cache. metrics may be nil.
func NewManager(logger log.Logger, metrics *monitoring.Metrics) *Manager {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Manager{
		entries: make(map[string]Entry),
		gens:    make(map[string]uint64),
		logger:  logger,
		metrics: metrics,
	}
}

// GetOrCompute returns the entry for key, computing it with compute when
// absent. Callers arriving while a computation for key is in flight wait for
// it instead of starting their own. If that computation was cancelled while
// ctx is still live, the caller retries and may become the new leader.
//
// Every entry returned passes verify. An entry that fails is invalidated and
// recomputed once; a second failure is returned as a CacheCorruption error.
func (m *Manager) GetOrCompute(ctx context.Context, key string, compute ComputeFunc, verify Verifier) (Entry, error) {
	recomputed := false
	for {
		entry, err := m.get(ctx, key, compute)
		if err != nil {
			return Entry{}, err
		}

		verr := verify(entry)
		if verr == nil {
			return entry, nil
		}

		m.mu.Lock()
		m.stats.Corruptions++
		m.mu.Unlock()
		m.metrics.CacheCorruption()
		m.Invalidate(key)

		if recomputed {
			level.Error(m.logger).Log("msg", "cache entry corrupt after recompute", "dataset", key, "err", verr)
			return Entry{}, errors.NewCacheCorruptionError("Persist", key, verr.Error())
		}
		level.Warn(m.logger).Log("msg", "cache entry failed integrity check, recomputing", "dataset", key, "err", verr)
		recomputed = true
	}
}

func (m *Manager) get(ctx context.Context, key string, compute ComputeFunc) (Entry, error) {
	for {
		if entry, ok := m.lookup(key); ok {
			m.hit(key)
			return entry, nil
		}

		led := false
		ch := m.group.DoChan(key, func() (any, error) {
			led = true
			gen := m.generation(key)
			// Another flight may have stored the entry between lookup and DoChan.
			if entry, ok := m.lookup(key); ok {
				return entry, nil
			}
			m.miss(key)

			entry, err := compute(ctx)
			if err != nil {
				return nil, err
			}
			m.store(key, gen, entry)
			return entry, nil
		})

		select {
		case <-ctx.Done():
			return Entry{}, ctx.Err()
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(Entry), nil
			}
			if !led && isCancellation(res.Err) && ctx.Err() == nil {
				level.Debug(m.logger).Log("msg", "cache leader cancelled, retrying", "dataset", key)
				continue
			}
			return Entry{}, res.Err
		}
	}
}

// Lookup returns the stored entry for key without computing it.
func (m *Manager) Lookup(key string) (Entry, bool) {
	return m.lookup(key)
}

func (m *Manager) lookup(key string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	return entry, ok
}

func (m *Manager) generation(key string) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gens[key]
}

// store keeps entry unless key was invalidated since gen was read.
func (m *Manager) store(key string, gen uint64, entry Entry) {
	m.mu.Lock()
	if m.gens[key] != gen {
		m.mu.Unlock()
		level.Debug(m.logger).Log("msg", "dropping entry invalidated during compute", "dataset", key)
		return
	}
	m.entries[key] = entry
	n := len(m.entries)
	m.mu.Unlock()

	m.metrics.SetCacheEntries(n)
	level.Debug(m.logger).Log("msg", "cached dataset", "dataset", key, "partitions", len(entry.Counts))
}

func (m *Manager) hit(key string) {
	m.mu.Lock()
	m.stats.Hits++
	m.mu.Unlock()
	m.metrics.CacheHit()
	level.Debug(m.logger).Log("msg", "cache hit", "dataset", key)
}

func (m *Manager) miss(key string) {
	m.mu.Lock()
	m.stats.Misses++
	m.mu.Unlock()
	m.metrics.CacheMiss()
	level.Debug(m.logger).Log("msg", "cache miss", "dataset", key)
}

// Invalidate drops the entry for key, if any. A computation for key that is
// in flight is not stored, and later callers start a new one.
func (m *Manager) Invalidate(key string) {
	m.mu.Lock()
	_, ok := m.entries[key]
	delete(m.entries, key)
	m.gens[key]++
	n := len(m.entries)
	m.mu.Unlock()
	m.group.Forget(key)

	if ok {
		m.metrics.SetCacheEntries(n)
		level.Debug(m.logger).Log("msg", "invalidated cached dataset", "dataset", key)
	}
}

// Stats returns a snapshot of cache activity.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.stats
	s.Entries = len(m.entries)
	return s
}

func isCancellation(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}
