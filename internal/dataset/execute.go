package dataset

import (
	"context"
	"fmt"

	"github.com/paveg/tamarin/internal/errors"
	"github.com/paveg/tamarin/internal/parallel"
)

func partitionIndexes(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// runPartition streams one partition of p into emit. Panics raised outside
// user functions surface as internal errors instead of crashing the process.
func runPartition[T any](ctx context.Context, e *Engine, p plan[T], part int, emit emitFunc[T]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewInternalError("Execute", fmt.Errorf("partition %d: %v", part, r))
		}
	}()

	if err := p.run(ctx, part, emit); err != nil {
		return err
	}
	e.metrics.PartitionProcessed()
	return nil
}

// materialize evaluates every partition of p into memory, in partition order.
func materialize[T any](ctx context.Context, e *Engine, p plan[T]) ([]Partition[T], error) {
	if p.parts == 0 {
		return []Partition[T]{}, ctx.Err()
	}
	return parallel.ProcessIndexed(ctx, e.pool, partitionIndexes(p.parts),
		func(ctx context.Context, _ int, part int) (Partition[T], error) {
			var records []T
			err := runPartition(ctx, e, p, part, func(_ int, rec T) error {
				records = append(records, rec)
				return nil
			})
			return Partition[T]{ID: part, Records: records}, err
		})
}

// forEachPartition runs fold for every partition of p on the worker pool and
// hands each result to merge on the calling goroutine.
func forEachPartition[T, R any](
	ctx context.Context,
	e *Engine,
	p plan[T],
	fold func(ctx context.Context, part int) (R, error),
	merge func(part int, result R) error,
) error {
	return parallel.Stream(ctx, e.pool, partitionIndexes(p.parts),
		func(ctx context.Context, _ int, part int) (R, error) {
			return fold(ctx, part)
		},
		merge)
}

// call invokes a user function, turning a panic into an error.
func call[T, U any](fn func(T) (U, error), rec T) (out U, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(rec)
}

// call2 is call for two-argument user functions.
func call2[A, B, U any](fn func(A, B) (U, error), a A, b B) (out U, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(a, b)
}
