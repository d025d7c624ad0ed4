package dataset_test

import (
	"context"
	stderrors "errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/tamarin/internal/config"
	"github.com/paveg/tamarin/internal/dataset"
	"github.com/paveg/tamarin/internal/errors"
)

func TestCountMatchesCollect(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	cases := map[string]*dataset.Dataset[int]{
		"empty":        dataset.Parallelize(e, []int{}, 3),
		"single":       dataset.Parallelize(e, []int{42}, 4),
		"filtered":     dataset.Parallelize(e, ints(1000), 7).Filter(isEven),
		"mapped":       dataset.Map(dataset.Parallelize(e, ints(333), 5), double),
		"distinct":     dataset.Distinct(dataset.Map(dataset.Parallelize(e, ints(100), 4), func(x int) (int, error) { return x % 17, nil })),
		"repartition":  dataset.Repartition(dataset.Parallelize(e, ints(50), 2), 5),
		"empty splits": fromPartitions(e, []int{}, []int{1, 2}, []int{}),
	}

	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			n, err := d.Count(ctx)
			require.NoError(t, err)
			got, err := d.Collect(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(len(got)), n)
		})
	}
}

func TestCollectOrder(t *testing.T) {
	e := newTestEngine(t)
	got, err := fromPartitions(e, []string{"a", "b"}, []string{"c"}, []string{"d", "e", "f"}).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, got)
}

func TestCollectBounds(t *testing.T) {
	ctx := context.Background()

	t.Run("record bound", func(t *testing.T) {
		e := newTestEngine(t, func(c *config.Config) { c.MaxCollectRecords = 10 })

		got, err := dataset.Parallelize(e, ints(10), 3).Collect(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 10)

		_, err = dataset.Parallelize(e, ints(11), 3).Collect(ctx)
		require.ErrorIs(t, err, errors.ErrResultTooLarge)
	})

	t.Run("byte bound", func(t *testing.T) {
		e := newTestEngine(t, func(c *config.Config) { c.MaxCollectBytes = 1024 })
		big := []string{strings.Repeat("x", 600), strings.Repeat("y", 600)}

		_, err := dataset.Parallelize(e, big, 2).Collect(ctx)
		require.ErrorIs(t, err, errors.ErrResultTooLarge)

		got, err := dataset.Parallelize(e, big[:1], 1).Collect(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("count is not bounded", func(t *testing.T) {
		e := newTestEngine(t, func(c *config.Config) { c.MaxCollectRecords = 1 })
		n, err := dataset.Parallelize(e, ints(100), 4).Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(100), n)
	})
}

func TestCollectLimited(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	d := dataset.Parallelize(e, ints(5), 2)

	t.Run("under the limit", func(t *testing.T) {
		got, err := d.CollectLimited(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, ints(5), got)
	})

	t.Run("exactly the limit", func(t *testing.T) {
		got, err := d.CollectLimited(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, ints(5), got)
	})

	t.Run("over the limit", func(t *testing.T) {
		got, err := d.CollectLimited(ctx, 4)
		require.ErrorIs(t, err, errors.ErrResultTooLarge)
		assert.Nil(t, got)
	})

	t.Run("zero limit", func(t *testing.T) {
		got, err := dataset.Parallelize(e, []int{}, 2).CollectLimited(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, got)

		_, err = d.CollectLimited(ctx, 0)
		require.ErrorIs(t, err, errors.ErrResultTooLarge)
	})

	t.Run("negative limit", func(t *testing.T) {
		_, err := d.CollectLimited(ctx, -1)
		require.ErrorIs(t, err, errors.ErrInvalidArgument)
	})
}

func TestForEach(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	t.Run("partition order", func(t *testing.T) {
		var seen []int
		err := dataset.Parallelize(e, ints(20), 6).ForEach(ctx, func(x int) error {
			seen = append(seen, x)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, ints(20), seen)
	})

	t.Run("callback error stops iteration", func(t *testing.T) {
		stop := stderrors.New("stop")
		var seen []int
		err := dataset.Parallelize(e, ints(20), 4).ForEach(ctx, func(x int) error {
			if x == 7 {
				return stop
			}
			seen = append(seen, x)
			return nil
		})
		require.ErrorIs(t, err, stop)
		require.ErrorIs(t, err, errors.ErrTransform)
		assert.Equal(t, ints(7), seen)
	})
}

func TestTake(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	var evaluated []int
	d := fromPartitions(e, []int{1, 2}, []int{3, 4}, []int{5, 6})
	tracked := dataset.Map(d, func(x int) (int, error) {
		evaluated = append(evaluated, x)
		return x, nil
	})

	got, err := tracked.Take(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, []int{1, 2, 3}, evaluated, "partitions after the result must not be evaluated")

	got, err = d.Take(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, got)

	got, err = d.Take(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = d.Take(ctx, -1)
	require.ErrorIs(t, err, errors.ErrInvalidArgument)

	t.Run("count far beyond the dataset", func(t *testing.T) {
		small := dataset.Parallelize(e, []int{1, 2, 3}, 2)
		var got []int
		require.NotPanics(t, func() {
			got, err = small.Take(ctx, math.MaxInt)
		})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, got)
	})
}

func TestPartitions(t *testing.T) {
	e := newTestEngine(t)
	parts, err := dataset.Parallelize(e, ints(7), 3).Partitions(context.Background())
	require.NoError(t, err)
	require.Len(t, parts, 3)

	for i, p := range parts {
		assert.Equal(t, i, p.ID)
	}
	assert.Equal(t, []int{0, 1, 2}, parts[0].Records)
	assert.Equal(t, []int{3, 4}, parts[1].Records)
	assert.Equal(t, []int{5, 6}, parts[2].Records)
}

func TestCancellation(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := dataset.Parallelize(e, ints(100), 4).Persist()
	_, err := d.Count(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, e.CacheStats().Entries, "a cancelled persist must store nothing")

	_, err = d.Collect(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSourceError(t *testing.T) {
	e := newTestEngine(t)
	missing := errors.NewSourceUnavailableError("TextFile", "/nope", stderrors.New("no such file"))
	d := dataset.FromSource(e, "broken", func(context.Context) ([]dataset.Partition[string], error) {
		return nil, missing
	})

	_, err := dataset.Map(d, func(s string) (int, error) { return len(s), nil }).Count(context.Background())
	require.ErrorIs(t, err, errors.ErrSourceUnavailable)
}
