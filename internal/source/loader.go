package source

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/paveg/tamarin/internal/dataset"
	"github.com/paveg/tamarin/internal/errors"
)

// Record is a structured record decoded from JSON or parquet.
type Record = map[string]any

// openFunc opens the bytes a reader decodes.
type openFunc func(ctx context.Context) (io.ReadCloser, error)

// load creates a lazy dataset whose records are decoded from the file at
// path by read, split into minPartitions contiguous partitions. Read and
// decode failures are reported as SourceUnavailable errors; cancellation is
// returned unchanged.
func load[T any](
	e *dataset.Engine,
	op, path string,
	minPartitions int,
	openFn openFunc,
	read func(ctx context.Context, r io.Reader) ([]T, error),
) *dataset.Dataset[T] {
	return dataset.FromSource(e, op+" "+path, func(ctx context.Context) ([]dataset.Partition[T], error) {
		r, err := openFn(ctx)
		if err != nil {
			return nil, sourceError(ctx, op, path, err)
		}
		defer r.Close()

		records, err := read(ctx, r)
		if err != nil {
			return nil, sourceError(ctx, op, path, err)
		}

		n := minPartitions
		if n <= 0 {
			n = e.Config().DefaultPartitions
		}
		return dataset.Split(records, n), nil
	})
}

func sourceError(ctx context.Context, op, path string, err error) error {
	if ctx.Err() != nil && (stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)) {
		return err
	}
	return errors.NewSourceUnavailableError(op, path, err)
}

// decompressing opens path through store, decoding .gz and .zst files.
func decompressing(store Store, path string) openFunc {
	return func(ctx context.Context) (io.ReadCloser, error) {
		return open(ctx, store, path)
	}
}
