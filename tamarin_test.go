package tamarin_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/paveg/tamarin"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newEngine(t *testing.T) *tamarin.Engine {
	t.Helper()
	cfg := tamarin.NewConfig()
	cfg.WorkerPoolSize = 4
	e, err := tamarin.NewEngine(cfg)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

type cargo = tamarin.Pair[string, string]

// splitCargo turns "NOME;CARGO" into (cargo, nome), defaulting an empty
// cargo to "SEM CARGO".
func splitCargo(line string) (cargo, error) {
	fields := strings.Split(line, ";")
	if len(fields) < 2 {
		return cargo{}, fmt.Errorf("malformed line %q", line)
	}
	if fields[1] == "" {
		return tamarin.NewPair("SEM CARGO", fields[0]), nil
	}
	return tamarin.NewPair(strings.TrimSpace(fields[1]), fields[0]), nil
}

func TestDistinctScenario(t *testing.T) {
	e := newEngine(t)
	got, err := tamarin.Distinct(tamarin.Parallelize(e, []string{"a", "b", "a", "c"}, 2)).Collect(context.Background())
	require.NoError(t, err)
	sort.Strings(got)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestCargosPipeline(t *testing.T) {
	e := newEngine(t)
	lines := tamarin.Parallelize(e, []string{
		"NOME;CARGO",
		"----;-----",
		"Ana;eng",
		"Bia; eng",
		"Caio;ops",
		"Ana;eng",
		"Duda;",
	}, 3)

	header := tamarin.Parallelize(e, []cargo{
		tamarin.NewPair("CARGO", "NOME"),
		tamarin.NewPair("-----", "----"),
	}, 1)
	pairs := tamarin.Subtract(tamarin.Distinct(tamarin.Map(lines, splitCargo)), header).Persist()

	counts, err := tamarin.CountByKey(context.Background(), pairs, tamarin.Pure(func(p cargo) string { return p.First }))
	require.NoError(t, err)
	assert.Equal(t, []tamarin.Pair[string, int64]{
		tamarin.NewPair("SEM CARGO", int64(1)),
		tamarin.NewPair("eng", int64(2)),
		tamarin.NewPair("ops", int64(1)),
	}, tamarin.SortedCounts(counts))

	n, err := pairs.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestCargosMalformedLine(t *testing.T) {
	e := newEngine(t)
	lines := tamarin.Parallelize(e, []string{"Ana;eng", "no separator"}, 1)

	_, err := tamarin.Map(lines, splitCargo).Collect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, tamarin.ErrTransform)

	var engineErr *tamarin.EngineError
	require.True(t, errors.As(err, &engineErr))
	assert.Equal(t, 0, engineErr.Partition)
	assert.Equal(t, 1, engineErr.Offset)
}

func TestJoinScenario(t *testing.T) {
	e := newEngine(t)
	left := tamarin.Parallelize(e, []tamarin.Pair[string, int]{
		tamarin.NewPair("x", 1), tamarin.NewPair("y", 1), tamarin.NewPair("z", 2),
	}, 2)
	right := tamarin.Parallelize(e, []tamarin.Pair[string, int]{tamarin.NewPair("p", 1)}, 1)

	key := tamarin.Pure(func(p tamarin.Pair[string, int]) int { return p.Second })
	joined, err := tamarin.Map(tamarin.Join(left, right, key, key),
		tamarin.Pure(func(p tamarin.Pair[tamarin.Pair[string, int], tamarin.Pair[string, int]]) string {
			return p.First.First + p.Second.First
		})).Collect(context.Background())
	require.NoError(t, err)
	sort.Strings(joined)
	assert.Equal(t, []string{"xp", "yp"}, joined)
}

func TestJoinWithMismatchedKeys(t *testing.T) {
	e := newEngine(t)
	left := tamarin.Parallelize(e, []int{1}, 1)
	right := tamarin.Parallelize(e, []string{"1"}, 1)

	_, err := tamarin.JoinWith(left, right,
		tamarin.Pure(func(v int) int { return v }),
		tamarin.Pure(func(s string) string { return s }))
	assert.ErrorIs(t, err, tamarin.ErrJoinKeyTypeMismatch)
}

func TestCountByKeyScenario(t *testing.T) {
	e := newEngine(t)
	staff := tamarin.Parallelize(e, []cargo{
		tamarin.NewPair("eng", "ana"), tamarin.NewPair("eng", "bia"), tamarin.NewPair("ops", "caio"),
	}, 2)
	counts, err := tamarin.CountByKey(context.Background(), staff, tamarin.Pure(func(p cargo) string { return p.First }))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"eng": 2, "ops": 1}, counts)
}

func TestPersistedSourceLoadsOnce(t *testing.T) {
	e := newEngine(t)
	var loads atomic.Int32
	src := tamarin.FromSource(e, "counted", func(context.Context) ([]tamarin.Partition[int], error) {
		loads.Add(1)
		return []tamarin.Partition[int]{{ID: 0, Records: []int{1, 2, 3}}, {ID: 1, Records: []int{4}}}, nil
	}).Persist()

	first, err := src.Collect(context.Background())
	require.NoError(t, err)
	second, err := src.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), loads.Load())
}

func TestLineCountFromLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "README.md")
	require.NoError(t, os.WriteFile(path, []byte("code\ndata\nnothing\nc and d\n"), 0o600))

	err := tamarin.WithEngine(tamarin.NewConfig(), func(e *tamarin.Engine) error {
		lines := tamarin.TextFile(e, tamarin.LocalStore(), path, 2).Persist()
		withC, err := lines.Filter(tamarin.Predicate(func(s string) bool { return strings.Contains(s, "c") })).Count(context.Background())
		if err != nil {
			return err
		}
		withD, err := lines.Filter(tamarin.Predicate(func(s string) bool { return strings.Contains(s, "d") })).Count(context.Background())
		if err != nil {
			return err
		}
		assert.Equal(t, int64(2), withC)
		assert.Equal(t, int64(3), withD)
		return nil
	})
	require.NoError(t, err)
}

func TestMissingFile(t *testing.T) {
	e := newEngine(t)
	_, err := tamarin.TextFile(e, tamarin.LocalStore(), filepath.Join(t.TempDir(), "absent.txt"), 1).Count(context.Background())
	assert.ErrorIs(t, err, tamarin.ErrSourceUnavailable)
}

func TestWithEngineInvalidConfig(t *testing.T) {
	cfg := tamarin.NewConfig()
	cfg.ShuffleBuckets = -1
	called := false
	err := tamarin.WithEngine(cfg, func(*tamarin.Engine) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, tamarin.ErrInvalidArgument)
	assert.False(t, called)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tamarin.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shuffle_buckets: 16\ndefault_partitions: 2\n"), 0o600))
	t.Setenv("TAMARIN_DEFAULT_PARTITIONS", "6")

	cfg, err := tamarin.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.ShuffleBuckets)
	assert.Equal(t, 6, cfg.DefaultPartitions)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("TAMARIN_SHUFFLE_BUCKETS", "16")

	cfg := tamarin.ConfigFromEnv()
	assert.Equal(t, 16, cfg.ShuffleBuckets)
	assert.Equal(t, tamarin.NewConfig().DefaultPartitions, cfg.DefaultPartitions)
}
