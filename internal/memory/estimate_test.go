package memory_test

import (
	"strings"
	"testing"

	"github.com/paveg/tamarin/internal/errors"
	"github.com/paveg/tamarin/internal/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateMemoryUsage(t *testing.T) {
	t.Run("nil is free", func(t *testing.T) {
		assert.Equal(t, int64(0), memory.EstimateMemoryUsage(nil))
	})

	t.Run("longer strings cost more", func(t *testing.T) {
		short := memory.EstimateMemoryUsage("a")
		long := memory.EstimateMemoryUsage(strings.Repeat("a", 1000))
		assert.Equal(t, int64(999), long-short)
	})

	t.Run("slices count their elements", func(t *testing.T) {
		ints := make([]int64, 100)
		assert.GreaterOrEqual(t, memory.EstimateMemoryUsage(ints), int64(800))

		words := []string{strings.Repeat("x", 500), strings.Repeat("y", 500)}
		assert.Greater(t, memory.EstimateMemoryUsage(words), int64(1000))
	})

	t.Run("maps follow keys and values", func(t *testing.T) {
		m := map[string]any{"payload": strings.Repeat("z", 2048)}
		assert.Greater(t, memory.EstimateMemoryUsage(m), int64(2048))
	})

	t.Run("structs follow fields", func(t *testing.T) {
		type record struct {
			Name  string
			Count int
		}
		assert.Greater(t, memory.EstimateMemoryUsage(record{Name: strings.Repeat("n", 300)}), int64(300))
	})

	t.Run("multiple resources are summed", func(t *testing.T) {
		one := memory.EstimateMemoryUsage(int64(1))
		assert.Equal(t, 3*one, memory.EstimateMemoryUsage(int64(1), int64(2), int64(3)))
	})
}

func TestBudget(t *testing.T) {
	t.Run("record limit", func(t *testing.T) {
		b := memory.NewBudget("Collect", 2, 0)
		require.NoError(t, b.Add(1))
		require.NoError(t, b.Add(2))

		err := b.Add(3)
		require.ErrorIs(t, err, errors.ErrResultTooLarge)
		assert.Contains(t, err.Error(), "2 records")
	})

	t.Run("byte limit", func(t *testing.T) {
		b := memory.NewBudget("Collect", 0, 100)
		require.NoError(t, b.Add("small"))

		err := b.Add(strings.Repeat("x", 200))
		require.ErrorIs(t, err, errors.ErrResultTooLarge)
		assert.Contains(t, err.Error(), "100 bytes")
	})

	t.Run("unbounded", func(t *testing.T) {
		b := memory.NewBudget("Collect", 0, 0)
		for i := range 1000 {
			require.NoError(t, b.Add(i))
		}
		assert.Equal(t, int64(1000), b.Records())
		assert.Equal(t, int64(0), b.Bytes())
	})
}
