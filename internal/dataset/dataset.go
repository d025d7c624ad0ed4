package dataset

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/paveg/tamarin/internal/cache"
	"github.com/paveg/tamarin/internal/monitoring"
)

// ctxCheckInterval is how many records a partition streams between
// cancellation checks.
const ctxCheckInterval = 256

// node is the type-erased view of a Dataset used for lineage.
type node interface {
	ID() string
	Operator() Operator
	IsPersisted() bool
	parentNodes() []node
}

// emitFunc receives one record and the offset of the source record it was
// derived from.
type emitFunc[T any] func(offset int, record T) error

// plan is a resolved dataset: a partition count and a function that streams
// one partition through the fused chain.
type plan[T any] struct {
	parts int
	run   func(ctx context.Context, part int, emit emitFunc[T]) error
}

// Dataset is an immutable, lazily evaluated collection of records split
// into partitions. Its content is a pure function of its lineage.
type Dataset[T any] struct {
	id        string
	engine    *Engine
	op        Operator
	parents   []node
	resolve   func(ctx context.Context) (plan[T], error)
	persisted atomic.Bool
}

func newDataset[T any](e *Engine, op Operator, parents []node, resolve func(ctx context.Context) (plan[T], error)) *Dataset[T] {
	return &Dataset[T]{
		id:      uuid.NewString(),
		engine:  e,
		op:      op,
		parents: parents,
		resolve: resolve,
	}
}

// Parallelize creates a dataset over in-memory records split into
// numPartitions contiguous partitions. A non-positive count uses
// Config.DefaultPartitions.
func Parallelize[T any](e *Engine, records []T, numPartitions int) *Dataset[T] {
	if numPartitions <= 0 {
		numPartitions = e.cfg.DefaultPartitions
	}
	parts := Split(records, numPartitions)
	return newDataset(e, Operator{Kind: KindSource, Name: "parallelize"}, nil, func(context.Context) (plan[T], error) {
		return partitionPlan(parts), nil
	})
}

// FromSource creates a dataset whose partitions are produced by load. load
// runs on every evaluation unless the dataset is persisted.
func FromSource[T any](e *Engine, name string, load func(ctx context.Context) ([]Partition[T], error)) *Dataset[T] {
	return newDataset(e, Operator{Kind: KindSource, Name: name}, nil, func(ctx context.Context) (plan[T], error) {
		parts, err := load(ctx)
		if err != nil {
			return plan[T]{}, err
		}
		return partitionPlan(parts), nil
	})
}

// partitionPlan streams already materialized partitions.
func partitionPlan[T any](parts []Partition[T]) plan[T] {
	return plan[T]{
		parts: len(parts),
		run: func(ctx context.Context, part int, emit emitFunc[T]) error {
			for off, rec := range parts[part].Records {
				if off%ctxCheckInterval == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if err := emit(off, rec); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// ID returns the dataset's unique id, which is also its cache key.
func (d *Dataset[T]) ID() string { return d.id }

// Operator returns the operator that produced the dataset.
func (d *Dataset[T]) Operator() Operator { return d.op }

// Engine returns the engine the dataset belongs to.
func (d *Dataset[T]) Engine() *Engine { return d.engine }

// IsPersisted reports whether the dataset is marked for caching.
func (d *Dataset[T]) IsPersisted() bool { return d.persisted.Load() }

func (d *Dataset[T]) parentNodes() []node { return d.parents }

// Named returns a copy of d with a descriptive name shown in the lineage.
// The copy shares d's lineage and caching mark but has its own id, so it is
// cached separately. d is left unchanged.
func (d *Dataset[T]) Named(name string) *Dataset[T] {
	op := d.op
	op.Name = name
	named := newDataset(d.engine, op, d.parents, d.resolve)
	named.persisted.Store(d.persisted.Load())
	return named
}

// Persist marks the dataset for caching. The next evaluation materializes
// every partition and stores them; later evaluations reuse the stored
// partitions instead of recomputing the lineage. Persist is idempotent and
// returns d.
func (d *Dataset[T]) Persist() *Dataset[T] {
	if !d.persisted.Swap(true) {
		level.Debug(d.engine.logger).Log("msg", "dataset marked for caching", "dataset", d.id, "op", d.op)
	}
	return d
}

// Unpersist clears the caching mark and drops any stored partitions. A
// computation already in flight still serves its callers but is not stored.
func (d *Dataset[T]) Unpersist() *Dataset[T] {
	d.persisted.Store(false)
	d.engine.cache.Invalidate(d.id)
	return d
}

// Explain returns the lineage of the dataset as a plan tree.
// Persisted datasets whose partitions are already stored are marked cached.
func (d *Dataset[T]) Explain() monitoring.PlanNode {
	return explain(d.engine.cache, d)
}

func explain(c *cache.Manager, n node) monitoring.PlanNode {
	op := n.Operator()
	pn := monitoring.PlanNode{
		Kind:      op.Kind.String(),
		Name:      op.Name,
		Dataset:   n.ID(),
		Persisted: n.IsPersisted(),
		Shuffle:   op.Kind.Shuffle(),
	}
	if pn.Persisted {
		_, pn.Cached = c.Lookup(n.ID())
	}
	for _, p := range n.parentNodes() {
		pn.Children = append(pn.Children, explain(c, p))
	}
	return pn
}

// Lineage returns the operators from the dataset back to its first source,
// following the first parent of every step.
func (d *Dataset[T]) Lineage() []Operator {
	var ops []Operator
	var n node = d
	for {
		ops = append(ops, n.Operator())
		parents := n.parentNodes()
		if len(parents) == 0 {
			break
		}
		n = parents[0]
	}
	return ops
}

func (d *Dataset[T]) String() string {
	return fmt.Sprintf("Dataset[%s]{%s}", d.id, d.op)
}

// plan resolves the dataset, reading it from the cache when it is persisted.
func (d *Dataset[T]) plan(ctx context.Context) (plan[T], error) {
	if !d.persisted.Load() {
		return d.resolve(ctx)
	}

	entry, err := d.engine.cache.GetOrCompute(ctx, d.id, func(ctx context.Context) (cache.Entry, error) {
		p, err := d.resolve(ctx)
		if err != nil {
			return cache.Entry{}, err
		}
		parts, err := materialize(ctx, d.engine, p)
		if err != nil {
			return cache.Entry{}, err
		}
		counts := make([]int, len(parts))
		for i, part := range parts {
			counts[i] = part.Len()
		}
		return cache.Entry{Partitions: parts, Counts: counts}, nil
	}, verifyEntry[T])
	if err != nil {
		return plan[T]{}, err
	}
	return partitionPlan(entry.Partitions.([]Partition[T])), nil
}

// verifyEntry checks a cache entry's partitions against its stored counts.
func verifyEntry[T any](entry cache.Entry) error {
	parts, ok := entry.Partitions.([]Partition[T])
	if !ok {
		return fmt.Errorf("unexpected partition type %T", entry.Partitions)
	}
	if len(parts) != len(entry.Counts) {
		return fmt.Errorf("found %d partitions, expected %d", len(parts), len(entry.Counts))
	}
	for i, p := range parts {
		if p.ID != i {
			return fmt.Errorf("partition %d has id %d", i, p.ID)
		}
		if p.Len() != entry.Counts[i] {
			return fmt.Errorf("partition %d holds %d records, expected %d", i, p.Len(), entry.Counts[i])
		}
	}
	return nil
}
