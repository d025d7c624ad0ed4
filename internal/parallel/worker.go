// Package parallel provides the worker pool that executes partition work.
//
// A WorkerPool runs a fixed number of goroutines per call. Items are fanned
// out to the workers over a channel and results are fanned back in to the
// calling goroutine, so callers can fold results as they arrive without
// holding all of them at once. The first failing item cancels the remaining
// work (fail-fast), and cancellation of the caller's context is observed
// between items.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// WorkerPool manages a pool of goroutines for parallel processing
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool. A non-positive size uses the CPU count.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		numWorkers: numWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Size returns the number of workers used per call.
func (wp *WorkerPool) Size() int {
	return wp.numWorkers
}

// Stream executes worker for every item in parallel and hands each result to
// sink on the calling goroutine, in completion order. sink is never called
// concurrently. The first error from worker or sink stops the remaining work
// and is returned.
func Stream[T, R any](
	ctx context.Context,
	wp *WorkerPool,
	items []T,
	worker func(ctx context.Context, index int, item T) (R, error),
	sink func(index int, result R) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := wp.ctx.Err(); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(wp.ctx, cancel)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)

	itemCh := make(chan indexedItem[T])
	resultCh := make(chan indexedResult[R])

	workers := min(wp.numWorkers, len(items))
	for range workers {
		g.Go(func() error {
			for item := range itemCh {
				if err := gctx.Err(); err != nil {
					return err
				}
				result, err := worker(gctx, item.index, item.value)
				if err != nil {
					return err
				}
				select {
				case resultCh <- indexedResult[R]{index: item.index, result: result}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	// Send items to workers
	go func() {
		defer close(itemCh)
		for i, item := range items {
			select {
			case <-gctx.Done():
				return
			case itemCh <- indexedItem[T]{index: i, value: item}:
			}
		}
	}()

	waitCh := make(chan error, 1)
	go func() {
		waitCh <- g.Wait()
		close(resultCh)
	}()

	var sinkErr error
	for result := range resultCh {
		if sinkErr != nil {
			continue
		}
		if err := sink(result.index, result.result); err != nil {
			sinkErr = err
			cancel()
		}
	}

	waitErr := <-waitCh
	if sinkErr != nil {
		return sinkErr
	}
	if waitErr != nil {
		return waitErr
	}
	// Workers drain a closed channel without error when the feeder stopped
	// early, so cancellation has to be checked explicitly.
	return runCtx.Err()
}

// ProcessIndexed executes work items in parallel while preserving order
func ProcessIndexed[T, R any](
	ctx context.Context,
	wp *WorkerPool,
	items []T,
	worker func(ctx context.Context, index int, item T) (R, error),
) ([]R, error) {
	if len(items) == 0 {
		return nil, ctx.Err()
	}

	results := make([]R, len(items))
	err := Stream(ctx, wp, items, worker, func(index int, result R) error {
		results[index] = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Close shuts down the worker pool. Calls in flight are cancelled and later
// calls fail with context.Canceled.
func (wp *WorkerPool) Close() {
	wp.cancel()
}

// indexedItem holds an item with its index
type indexedItem[T any] struct {
	index int
	value T
}

// indexedResult holds a result with its index
type indexedResult[R any] struct {
	index  int
	result R
}
