package dataset

import (
	"context"
	"reflect"

	"github.com/paveg/tamarin/internal/validation"
)

// Join returns the inner equi-join of left and right on the keys extracted
// by lk and rk.
//
// Both sides are co-partitioned by key hash into Config.ShuffleBuckets
// buckets. For every bucket the right records are indexed by key in input
// order and probed with the left records in input order; a key present on
// both sides emits the cross product of its records. Keys present on only
// one side produce nothing.
func Join[L, R any, K comparable](left *Dataset[L], right *Dataset[R], lk func(L) (K, error), rk func(R) (K, error)) *Dataset[Pair[L, R]] {
	e := left.engine
	return newDataset(e, Operator{Kind: KindJoin}, []node{left, right}, func(ctx context.Context) (plan[Pair[L, R]], error) {
		buckets := e.cfg.ShuffleBuckets

		lp, err := left.plan(ctx)
		if err != nil {
			return plan[Pair[L, R]]{}, err
		}
		lb, err := shuffleByKey(ctx, e, "Join", keyedPlan(lp, "Join", lk), buckets)
		if err != nil {
			return plan[Pair[L, R]]{}, err
		}

		rp, err := right.plan(ctx)
		if err != nil {
			return plan[Pair[L, R]]{}, err
		}
		rb, err := shuffleByKey(ctx, e, "Join", keyedPlan(rp, "Join", rk), buckets)
		if err != nil {
			return plan[Pair[L, R]]{}, err
		}

		return plan[Pair[L, R]]{
			parts: buckets,
			run: func(ctx context.Context, part int, emit emitFunc[Pair[L, R]]) error {
				index := make(map[K][]R)
				for _, rec := range rb[part] {
					index[rec.First] = append(index[rec.First], rec.Second)
				}
				for off, rec := range lb[part] {
					if off%ctxCheckInterval == 0 {
						if err := ctx.Err(); err != nil {
							return err
						}
					}
					for _, r := range index[rec.First] {
						if err := emit(off, Pair[L, R]{First: rec.Second, Second: r}); err != nil {
							return err
						}
					}
				}
				return nil
			},
		}, nil
	})
}

// JoinWith is Join for key functions declared with independent key types.
// The key types are checked before any work is scheduled: they must be
// identical or one of them an interface type, otherwise JoinWith fails with
// a JoinKeyTypeMismatch error.
func JoinWith[L, R any, KL, KR comparable](left *Dataset[L], right *Dataset[R], lk func(L) (KL, error), rk func(R) (KR, error)) (*Dataset[Pair[L, R]], error) {
	if err := validation.ValidateKeyTypes(reflect.TypeFor[KL](), reflect.TypeFor[KR](), "Join"); err != nil {
		return nil, err
	}
	return Join(left, right,
		func(l L) (any, error) {
			k, err := lk(l)
			return k, err
		},
		func(r R) (any, error) {
			k, err := rk(r)
			return k, err
		}), nil
}
