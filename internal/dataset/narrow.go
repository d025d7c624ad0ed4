package dataset

import (
	"context"

	"github.com/paveg/tamarin/internal/errors"
)

// Map returns a dataset with fn applied to every record. Adjacent narrow
// stages are fused, so no intermediate partitions are built.
func Map[T, U any](d *Dataset[T], fn func(T) (U, error)) *Dataset[U] {
	return newDataset(d.engine, Operator{Kind: KindMap}, []node{d}, func(ctx context.Context) (plan[U], error) {
		p, err := d.plan(ctx)
		if err != nil {
			return plan[U]{}, err
		}
		return mapPlan(p, "Map", fn), nil
	})
}

func mapPlan[T, U any](p plan[T], op string, fn func(T) (U, error)) plan[U] {
	return plan[U]{
		parts: p.parts,
		run: func(ctx context.Context, part int, emit emitFunc[U]) error {
			return p.run(ctx, part, func(off int, rec T) error {
				out, err := call(fn, rec)
				if err != nil {
					return errors.NewTransformError(op, part, off, err)
				}
				return emit(off, out)
			})
		},
	}
}

// Filter returns a dataset holding the records for which pred is true.
// Rejected records never reach later stages.
func (d *Dataset[T]) Filter(pred func(T) (bool, error)) *Dataset[T] {
	return newDataset(d.engine, Operator{Kind: KindFilter}, []node{d}, func(ctx context.Context) (plan[T], error) {
		p, err := d.plan(ctx)
		if err != nil {
			return plan[T]{}, err
		}
		return filterPlan(p, "Filter", pred), nil
	})
}

func filterPlan[T any](p plan[T], op string, pred func(T) (bool, error)) plan[T] {
	return plan[T]{
		parts: p.parts,
		run: func(ctx context.Context, part int, emit emitFunc[T]) error {
			return p.run(ctx, part, func(off int, rec T) error {
				keep, err := call(pred, rec)
				if err != nil {
					return errors.NewTransformError(op, part, off, err)
				}
				if !keep {
					return nil
				}
				return emit(off, rec)
			})
		},
	}
}

// FlatMap returns a dataset with every record replaced by the records fn
// returns for it, in order.
func FlatMap[T, U any](d *Dataset[T], fn func(T) ([]U, error)) *Dataset[U] {
	return newDataset(d.engine, Operator{Kind: KindFlatMap}, []node{d}, func(ctx context.Context) (plan[U], error) {
		p, err := d.plan(ctx)
		if err != nil {
			return plan[U]{}, err
		}
		return plan[U]{
			parts: p.parts,
			run: func(ctx context.Context, part int, emit emitFunc[U]) error {
				return p.run(ctx, part, func(off int, rec T) error {
					outs, err := call(fn, rec)
					if err != nil {
						return errors.NewTransformError("FlatMap", part, off, err)
					}
					for _, out := range outs {
						if err := emit(off, out); err != nil {
							return err
						}
					}
					return nil
				})
			},
		}, nil
	})
}

// KeyBy pairs every record with the key fn extracts from it.
func KeyBy[T any, K comparable](d *Dataset[T], fn func(T) (K, error)) *Dataset[Pair[K, T]] {
	return Map(d, func(rec T) (Pair[K, T], error) {
		k, err := fn(rec)
		if err != nil {
			return Pair[K, T]{}, err
		}
		return Pair[K, T]{First: k, Second: rec}, nil
	}).Named("KeyBy")
}

// keyedPlan is KeyBy at the plan level, used by shuffling operators.
func keyedPlan[T any, K comparable](p plan[T], op string, fn func(T) (K, error)) plan[Pair[K, T]] {
	return mapPlan(p, op, func(rec T) (Pair[K, T], error) {
		k, err := fn(rec)
		if err != nil {
			return Pair[K, T]{}, err
		}
		return Pair[K, T]{First: k, Second: rec}, nil
	})
}
