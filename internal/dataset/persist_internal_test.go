//nolint:testpackage // requires internal access to the engine cache
package dataset

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/tamarin/internal/config"
)

func TestCacheCorruptionIsRecomputed(t *testing.T) {
	e, err := NewEngine(config.Config{WorkerPoolSize: 2})
	require.NoError(t, err)
	defer e.Close()

	ctx := context.Background()
	var calls atomic.Int32
	d := Map(Parallelize(e, []int{1, 2, 3, 4}, 2), func(x int) (int, error) {
		calls.Add(1)
		return x, nil
	}).Persist()

	_, err = d.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int32(4), calls.Load())

	entry, ok := e.cache.Lookup(d.ID())
	require.True(t, ok)
	entry.Partitions.([]Partition[int])[1].Records = nil

	got, err := d.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, got)
	assert.Equal(t, int32(8), calls.Load())
	assert.Equal(t, int64(1), e.CacheStats().Corruptions)
}

func TestHasherConsistency(t *testing.T) {
	e, err := NewEngine(config.NewConfig())
	require.NoError(t, err)
	defer e.Close()

	strHash := hasherFor[string](e.seed)
	assert.Equal(t, strHash("abc"), strHash("abc"))

	intHash := hasherFor[int](e.seed)
	assert.Equal(t, intHash(7), intHash(7))

	pairHash := hasherFor[Pair[string, int]](e.seed)
	assert.Equal(t, pairHash(NewPair("a", 1)), pairHash(NewPair("a", 1)))

	for _, n := range []int{1, 3, 8} {
		b := bucketOf(strHash("key"), n)
		assert.GreaterOrEqual(t, b, 0)
		assert.Less(t, b, n)
	}
}

func TestSplit(t *testing.T) {
	parts := Split([]int{1, 2, 3, 4, 5}, 3)
	require.Len(t, parts, 3)
	assert.Equal(t, []int{1, 2}, parts[0].Records)
	assert.Equal(t, []int{3, 4}, parts[1].Records)
	assert.Equal(t, []int{5}, parts[2].Records)

	assert.Len(t, Split([]int{}, 0), 1)
}
