package dataset

import (
	"context"
	stderrors "errors"
	"sync/atomic"

	"github.com/paveg/tamarin/internal/errors"
	"github.com/paveg/tamarin/internal/memory"
	"github.com/paveg/tamarin/internal/validation"
)

// errStop ends a partition scan early without failing the action.
var errStop = stderrors.New("stop")

// unlimited disables the record bound of collect.
const unlimited = -1

// Count returns the number of records in d. Partitions are counted as they
// stream and are never materialized.
func (d *Dataset[T]) Count(ctx context.Context) (int64, error) {
	var total int64
	err := d.engine.runAction(ctx, "Count", d, func(ctx context.Context) (int64, error) {
		p, err := d.plan(ctx)
		if err != nil {
			return 0, err
		}
		err = forEachPartition(ctx, d.engine, p,
			func(ctx context.Context, part int) (int64, error) {
				var n int64
				err := runPartition(ctx, d.engine, p, part, func(int, T) error {
					n++
					return nil
				})
				return n, err
			},
			func(_ int, n int64) error {
				total += n
				return nil
			})
		return total, err
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Collect returns every record of d in partition order. It fails with a
// ResultTooLarge error when the result exceeds Config.MaxCollectRecords or
// Config.MaxCollectBytes.
func (d *Dataset[T]) Collect(ctx context.Context) ([]T, error) {
	cfg := d.engine.cfg
	maxRecords := int64(unlimited)
	if cfg.MaxCollectRecords > 0 {
		maxRecords = cfg.MaxCollectRecords
	}
	return d.collect(ctx, "Collect", maxRecords, cfg.MaxCollectBytes)
}

// CollectLimited is Collect with a record limit of n. It fails as soon as
// more than n records would be returned; exactly n records is a success.
func (d *Dataset[T]) CollectLimited(ctx context.Context, n int64) ([]T, error) {
	if err := validation.ValidateNonNegative(n, "CollectLimited", "limit"); err != nil {
		return nil, err
	}
	cfg := d.engine.cfg
	limit := n
	if cfg.MaxCollectRecords > 0 && cfg.MaxCollectRecords < limit {
		limit = cfg.MaxCollectRecords
	}
	return d.collect(ctx, "CollectLimited", limit, cfg.MaxCollectBytes)
}

// collect gathers all records in partition order. A negative maxRecords
// disables the record bound; a zero maxBytes disables the byte bound.
func (d *Dataset[T]) collect(ctx context.Context, op string, maxRecords, maxBytes int64) ([]T, error) {
	var out []T
	err := d.engine.runAction(ctx, op, d, func(ctx context.Context) (int64, error) {
		p, err := d.plan(ctx)
		if err != nil {
			return 0, err
		}

		// Workers share a record counter so an oversized partition fails
		// before it is fully buffered; the byte bound is checked as
		// partitions arrive.
		var produced atomic.Int64
		budget := memory.NewBudget(op, 0, maxBytes)
		parts := make([][]T, p.parts)

		err = forEachPartition(ctx, d.engine, p,
			func(ctx context.Context, part int) ([]T, error) {
				var records []T
				err := runPartition(ctx, d.engine, p, part, func(_ int, rec T) error {
					if maxRecords >= 0 && produced.Add(1) > maxRecords {
						return errors.NewResultTooLargeError(op, maxRecords, "records")
					}
					records = append(records, rec)
					return nil
				})
				return records, err
			},
			func(part int, records []T) error {
				for _, rec := range records {
					if err := budget.Add(rec); err != nil {
						return err
					}
				}
				parts[part] = records
				return nil
			})
		if err != nil {
			return 0, err
		}

		total := 0
		for _, records := range parts {
			total += len(records)
		}
		out = make([]T, 0, total)
		for _, records := range parts {
			out = append(out, records...)
		}
		return int64(total), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ForEach calls fn for every record of d in partition order. Partitions are
// streamed one at a time, so memory use is bounded by the chain, not the
// dataset. An error returned by fn stops the iteration and is reported as
// a transform error.
func (d *Dataset[T]) ForEach(ctx context.Context, fn func(T) error) error {
	return d.engine.runAction(ctx, "ForEach", d, func(ctx context.Context) (int64, error) {
		p, err := d.plan(ctx)
		if err != nil {
			return 0, err
		}
		apply := func(rec T) (struct{}, error) { return struct{}{}, fn(rec) }

		var n int64
		for part := range p.parts {
			err := runPartition(ctx, d.engine, p, part, func(off int, rec T) error {
				if _, err := call(apply, rec); err != nil {
					return errors.NewTransformError("ForEach", part, off, err)
				}
				n++
				return nil
			})
			if err != nil {
				return n, err
			}
		}
		return n, nil
	})
}

// Take returns the first n records of d in partition order. Partitions
// after the one that completes the result are never evaluated.
func (d *Dataset[T]) Take(ctx context.Context, n int) ([]T, error) {
	if err := validation.ValidateNonNegative(int64(n), "Take", "count"); err != nil {
		return nil, err
	}
	// n may be far larger than d, so out grows with what is read.
	var out []T
	err := d.engine.runAction(ctx, "Take", d, func(ctx context.Context) (int64, error) {
		if n == 0 {
			return 0, nil
		}
		p, err := d.plan(ctx)
		if err != nil {
			return 0, err
		}
		for part := range p.parts {
			err := runPartition(ctx, d.engine, p, part, func(_ int, rec T) error {
				out = append(out, rec)
				if len(out) == n {
					return errStop
				}
				return nil
			})
			if stderrors.Is(err, errStop) {
				break
			}
			if err != nil {
				return 0, err
			}
		}
		return int64(len(out)), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Partitions evaluates d and returns all of its partitions.
func (d *Dataset[T]) Partitions(ctx context.Context) ([]Partition[T], error) {
	var parts []Partition[T]
	err := d.engine.runAction(ctx, "Partitions", d, func(ctx context.Context) (int64, error) {
		p, err := d.plan(ctx)
		if err != nil {
			return 0, err
		}
		parts, err = materialize(ctx, d.engine, p)
		if err != nil {
			return 0, err
		}
		var total int64
		for _, part := range parts {
			total += int64(part.Len())
		}
		return total, nil
	})
	if err != nil {
		return nil, err
	}
	return parts, nil
}
