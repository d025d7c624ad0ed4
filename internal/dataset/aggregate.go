package dataset

import (
	"context"
	"slices"

	"golang.org/x/exp/constraints"

	"github.com/paveg/tamarin/internal/errors"
)

// CountByKey counts the records of d per key. Each partition is folded
// into a local count map on the worker pool; the local maps are merged by
// summing, so the result does not depend on partitioning or scheduling.
func CountByKey[T any, K comparable](ctx context.Context, d *Dataset[T], keyFn func(T) (K, error)) (map[K]int64, error) {
	counts := make(map[K]int64)
	err := d.engine.runAction(ctx, "CountByKey", d, func(ctx context.Context) (int64, error) {
		p, err := d.plan(ctx)
		if err != nil {
			return 0, err
		}
		var total int64
		err = forEachPartition(ctx, d.engine, p,
			func(ctx context.Context, part int) (map[K]int64, error) {
				local := make(map[K]int64)
				err := runPartition(ctx, d.engine, p, part, func(off int, rec T) error {
					k, err := call(keyFn, rec)
					if err != nil {
						return errors.NewTransformError("CountByKey", part, off, err)
					}
					local[k]++
					return nil
				})
				return local, err
			},
			func(_ int, local map[K]int64) error {
				for k, n := range local {
					counts[k] += n
					total += n
				}
				return nil
			})
		return total, err
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// CountByValue counts the occurrences of every distinct record of d.
func CountByValue[T comparable](ctx context.Context, d *Dataset[T]) (map[T]int64, error) {
	return CountByKey(ctx, d, func(rec T) (T, error) { return rec, nil })
}

// SortedCounts returns the entries of counts ordered by key.
func SortedCounts[K constraints.Ordered](counts map[K]int64) []Pair[K, int64] {
	out := make([]Pair[K, int64], 0, len(counts))
	for k, n := range counts {
		out = append(out, Pair[K, int64]{First: k, Second: n})
	}
	slices.SortFunc(out, func(a, b Pair[K, int64]) int {
		switch {
		case a.First < b.First:
			return -1
		case a.First > b.First:
			return 1
		default:
			return 0
		}
	})
	return out
}

// GroupByKey groups the records of d by the key keyFn extracts. Each group
// holds its records in (partition id, offset) order; groups within an
// output partition appear in order of their key's first occurrence.
func GroupByKey[T any, K comparable](d *Dataset[T], keyFn func(T) (K, error)) *Dataset[Pair[K, []T]] {
	e := d.engine
	return newDataset(e, Operator{Kind: KindGroupByKey}, []node{d}, func(ctx context.Context) (plan[Pair[K, []T]], error) {
		p, err := d.plan(ctx)
		if err != nil {
			return plan[Pair[K, []T]]{}, err
		}
		buckets, err := shuffleByKey(ctx, e, "GroupByKey", keyedPlan(p, "GroupByKey", keyFn), e.cfg.ShuffleBuckets)
		if err != nil {
			return plan[Pair[K, []T]]{}, err
		}

		return plan[Pair[K, []T]]{
			parts: len(buckets),
			run: func(ctx context.Context, part int, emit emitFunc[Pair[K, []T]]) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				var order []K
				groups := make(map[K][]T)
				for _, rec := range buckets[part] {
					if _, ok := groups[rec.First]; !ok {
						order = append(order, rec.First)
					}
					groups[rec.First] = append(groups[rec.First], rec.Second)
				}
				for off, k := range order {
					if err := emit(off, Pair[K, []T]{First: k, Second: groups[k]}); err != nil {
						return err
					}
				}
				return nil
			},
		}, nil
	})
}

// ReduceByKey merges the values of every key with fn, which must be
// associative and commutative. Values are combined within each partition
// before the shuffle, so only one record per key and partition is moved.
func ReduceByKey[K comparable, V any](d *Dataset[Pair[K, V]], fn func(V, V) (V, error)) *Dataset[Pair[K, V]] {
	e := d.engine
	return newDataset(e, Operator{Kind: KindReduceByKey}, []node{d}, func(ctx context.Context) (plan[Pair[K, V]], error) {
		p, err := d.plan(ctx)
		if err != nil {
			return plan[Pair[K, V]]{}, err
		}
		buckets, err := shuffleByKey(ctx, e, "ReduceByKey", combinePlan(p, fn), e.cfg.ShuffleBuckets)
		if err != nil {
			return plan[Pair[K, V]]{}, err
		}
		return combinePlan(partitionPlan(bucketPartitions(buckets)), fn), nil
	})
}

// combinePlan reduces the values of each key within a partition. Keys are
// emitted in order of first occurrence, at the offset of that occurrence.
func combinePlan[K comparable, V any](p plan[Pair[K, V]], fn func(V, V) (V, error)) plan[Pair[K, V]] {
	type slot struct {
		offset int
		value  V
	}
	return plan[Pair[K, V]]{
		parts: p.parts,
		run: func(ctx context.Context, part int, emit emitFunc[Pair[K, V]]) error {
			var order []K
			acc := make(map[K]*slot)
			err := p.run(ctx, part, func(off int, rec Pair[K, V]) error {
				s, ok := acc[rec.First]
				if !ok {
					acc[rec.First] = &slot{offset: off, value: rec.Second}
					order = append(order, rec.First)
					return nil
				}
				v, err := call2(fn, s.value, rec.Second)
				if err != nil {
					return errors.NewTransformError("ReduceByKey", part, off, err)
				}
				s.value = v
				return nil
			})
			if err != nil {
				return err
			}
			for _, k := range order {
				s := acc[k]
				if err := emit(s.offset, Pair[K, V]{First: k, Second: s.value}); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
