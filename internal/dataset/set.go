package dataset

import (
	"context"
)

// Distinct returns a dataset holding each distinct record of d exactly once.
//
// Records are deduplicated within each partition, shuffled by hash into
// Config.ShuffleBuckets buckets, and deduplicated again per bucket. The
// first occurrence by (partition id, offset) is kept, so the output is
// deterministic. The result has one partition per bucket.
func Distinct[T comparable](d *Dataset[T]) *Dataset[T] {
	e := d.engine
	return newDataset(e, Operator{Kind: KindDistinct}, []node{d}, func(ctx context.Context) (plan[T], error) {
		p, err := d.plan(ctx)
		if err != nil {
			return plan[T]{}, err
		}

		buckets := e.cfg.ShuffleBuckets
		hash := hasherFor[T](e.seed)
		shuffled, err := shuffle(ctx, e, "Distinct", dedupPlan(p), buckets, func(_, _ int, rec T) int {
			return bucketOf(hash(rec), buckets)
		})
		if err != nil {
			return plan[T]{}, err
		}

		// Every copy of a record hashes to the same bucket, so deduplicating
		// a bucket on its own is enough.
		return dedupPlan(partitionPlan(bucketPartitions(shuffled))), nil
	})
}

// dedupPlan drops records already seen earlier in the same partition.
func dedupPlan[T comparable](p plan[T]) plan[T] {
	return plan[T]{
		parts: p.parts,
		run: func(ctx context.Context, part int, emit emitFunc[T]) error {
			seen := make(map[T]struct{})
			return p.run(ctx, part, func(off int, rec T) error {
				if _, ok := seen[rec]; ok {
					return nil
				}
				seen[rec] = struct{}{}
				return emit(off, rec)
			})
		},
	}
}

// Subtract returns the records of a that do not occur in b. Records of a
// keep their multiplicity, order and partitioning.
func Subtract[T comparable](a, b *Dataset[T]) *Dataset[T] {
	probe := Distinct(b)
	e := a.engine
	return newDataset(e, Operator{Kind: KindSubtract}, []node{a, probe}, func(ctx context.Context) (plan[T], error) {
		pp, err := probe.plan(ctx)
		if err != nil {
			return plan[T]{}, err
		}
		parts, err := materialize(ctx, e, pp)
		if err != nil {
			return plan[T]{}, err
		}
		exclude := make(map[T]struct{})
		for _, part := range parts {
			for _, rec := range part.Records {
				exclude[rec] = struct{}{}
			}
		}

		p, err := a.plan(ctx)
		if err != nil {
			return plan[T]{}, err
		}
		return filterPlan(p, "Subtract", func(rec T) (bool, error) {
			_, found := exclude[rec]
			return !found, nil
		}), nil
	})
}
