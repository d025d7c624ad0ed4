package dataset_test

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/tamarin/internal/dataset"
	"github.com/paveg/tamarin/internal/errors"
)

func first(r row) (string, error) { return r.First, nil }

func TestCountByKey(t *testing.T) {
	ctx := context.Background()

	t.Run("counts by first element", func(t *testing.T) {
		e := newTestEngine(t)
		d := dataset.Parallelize(e, []row{
			{First: "eng", Second: "a"},
			{First: "eng", Second: "b"},
			{First: "ops", Second: "c"},
		}, 2)

		counts, err := dataset.CountByKey(ctx, d, first)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"eng": 2, "ops": 1}, counts)
	})

	t.Run("sum equals count regardless of partitioning", func(t *testing.T) {
		e := newTestEngine(t)
		r := rand.New(rand.NewPCG(7, 8))
		input := make([]int, 5000)
		for i := range input {
			input[i] = r.IntN(37)
		}

		var reference map[int]int64
		for _, parts := range []int{1, 3, 16, 64} {
			d := dataset.Parallelize(e, input, parts)
			counts, err := dataset.CountByKey(ctx, d, func(x int) (int, error) { return x % 10, nil })
			require.NoError(t, err)

			var sum int64
			for _, n := range counts {
				sum += n
			}
			total, err := d.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, total, sum)

			if reference == nil {
				reference = counts
			}
			assert.Equal(t, reference, counts)
		}
	})

	t.Run("key function panic", func(t *testing.T) {
		e := newTestEngine(t)
		_, err := dataset.CountByKey(ctx, dataset.Parallelize(e, ints(4), 2), func(x int) (int, error) {
			var m map[string]int
			m["boom"] = x
			return x, nil
		})
		require.ErrorIs(t, err, errors.ErrTransform)
	})
}

func TestCountByValue(t *testing.T) {
	e := newTestEngine(t)
	counts, err := dataset.CountByValue(context.Background(), dataset.Parallelize(e, strings.Fields("a b a c a b"), 3))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"a": 3, "b": 2, "c": 1}, counts)
}

func TestSortedCounts(t *testing.T) {
	sorted := dataset.SortedCounts(map[string]int64{"ops": 1, "eng": 2, "adm": 5})
	assert.Equal(t, []dataset.Pair[string, int64]{
		{First: "adm", Second: 5},
		{First: "eng", Second: 2},
		{First: "ops", Second: 1},
	}, sorted)

	assert.Empty(t, dataset.SortedCounts(map[int]int64{}))
}

func TestGroupByKey(t *testing.T) {
	e := newTestEngine(t)
	d := dataset.Parallelize(e, []row{
		{First: "eng", Second: "bob"},
		{First: "ops", Second: "ann"},
		{First: "eng", Second: "sue"},
		{First: "eng", Second: "joe"},
	}, 3)

	got, err := dataset.GroupByKey(d, first).Collect(context.Background())
	require.NoError(t, err)

	groups := make(map[string][]string)
	for _, g := range got {
		require.NotContains(t, groups, g.First, "key emitted twice")
		for _, r := range g.Second {
			groups[g.First] = append(groups[g.First], r.Second)
		}
	}
	assert.Equal(t, map[string][]string{
		"eng": {"bob", "sue", "joe"},
		"ops": {"ann"},
	}, groups)
}

func TestReduceByKey(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	words := dataset.FlatMap(dataset.Parallelize(e, []string{"a b", "b c c", "c"}, 2), func(s string) ([]string, error) {
		return strings.Fields(s), nil
	})
	pairs := dataset.Map(words, func(w string) (dataset.Pair[string, int], error) {
		return dataset.NewPair(w, 1), nil
	})

	got, err := dataset.ReduceByKey(pairs, func(a, b int) (int, error) { return a + b, nil }).Collect(ctx)
	require.NoError(t, err)

	counts := make(map[string]int)
	for _, p := range got {
		require.NotContains(t, counts, p.First, "key emitted twice")
		counts[p.First] = p.Second
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 2, "c": 3}, counts)

	t.Run("reducer error", func(t *testing.T) {
		_, err := dataset.ReduceByKey(pairs, func(a, b int) (int, error) {
			panic("reducer")
		}).Count(ctx)
		require.ErrorIs(t, err, errors.ErrTransform)
	})
}

func TestRepartition(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	parts, err := dataset.Repartition(dataset.Parallelize(e, ints(12), 1), 4).Partitions(ctx)
	require.NoError(t, err)
	require.Len(t, parts, 4)

	var all []int
	for _, p := range parts {
		assert.Len(t, p.Records, 3)
		all = append(all, p.Records...)
	}
	assert.ElementsMatch(t, ints(12), all)
}
