package dataset

import (
	"context"

	"github.com/go-kit/log/level"
)

// shuffle evaluates every partition of p and routes each record into the
// bucket route chooses for it. Within a bucket, records keep the order of
// (source partition id, offset), so shuffles are deterministic.
func shuffle[T any](
	ctx context.Context,
	e *Engine,
	op string,
	p plan[T],
	buckets int,
	route func(part, offset int, rec T) int,
) ([][]T, error) {
	local := make([][][]T, p.parts)
	err := forEachPartition(ctx, e, p,
		func(ctx context.Context, part int) ([][]T, error) {
			out := make([][]T, buckets)
			err := runPartition(ctx, e, p, part, func(off int, rec T) error {
				b := route(part, off, rec)
				out[b] = append(out[b], rec)
				return nil
			})
			return out, err
		},
		func(part int, out [][]T) error {
			local[part] = out
			return nil
		})
	if err != nil {
		return nil, err
	}

	result := make([][]T, buckets)
	total := 0
	for b := range result {
		n := 0
		for _, out := range local {
			n += len(out[b])
		}
		merged := make([]T, 0, n)
		for _, out := range local {
			merged = append(merged, out[b]...)
		}
		result[b] = merged
		total += n
	}

	e.metrics.RecordsShuffled(op, total)
	level.Debug(e.logger).Log("msg", "shuffle complete", "op", op, "partitions", p.parts, "buckets", buckets, "records", total)
	return result, nil
}

// shuffleByKey shuffles keyed records into buckets by the hash of their key.
func shuffleByKey[K comparable, V any](ctx context.Context, e *Engine, op string, p plan[Pair[K, V]], buckets int) ([][]Pair[K, V], error) {
	hash := hasherFor[K](e.seed)
	return shuffle(ctx, e, op, p, buckets, func(_, _ int, rec Pair[K, V]) int {
		return bucketOf(hash(rec.First), buckets)
	})
}

// bucketPartitions wraps shuffle output as partitions.
func bucketPartitions[T any](buckets [][]T) []Partition[T] {
	parts := make([]Partition[T], len(buckets))
	for i, b := range buckets {
		parts[i] = Partition[T]{ID: i, Records: b}
	}
	return parts
}

// Repartition redistributes the records of d round-robin over n partitions.
// A non-positive n uses Config.DefaultPartitions.
func Repartition[T any](d *Dataset[T], n int) *Dataset[T] {
	if n <= 0 {
		n = d.engine.cfg.DefaultPartitions
	}
	return newDataset(d.engine, Operator{Kind: KindRepartition}, []node{d}, func(ctx context.Context) (plan[T], error) {
		p, err := d.plan(ctx)
		if err != nil {
			return plan[T]{}, err
		}
		buckets, err := shuffle(ctx, d.engine, "Repartition", p, n, func(part, off int, _ T) int {
			return (part + off) % n
		})
		if err != nil {
			return plan[T]{}, err
		}
		return partitionPlan(bucketPartitions(buckets)), nil
	})
}
