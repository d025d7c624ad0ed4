// Package testutil provides common testing utilities shared by the engine,
// source loader and command tests.
//
// It consolidates the setup repeated across test files:
// - engine creation with small, deterministic pools
// - in-memory filesystems and stores for source loaders
// - generated record sets
package testutil

import (
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/paveg/tamarin/internal/config"
	"github.com/paveg/tamarin/internal/dataset"
	"github.com/paveg/tamarin/internal/source"
)

const (
	// defaultWorkers keeps test pools small but concurrent.
	defaultWorkers = 4
)

// EngineOption configures test engine creation.
type EngineOption func(*engineConfig)

type engineConfig struct {
	cfg  config.Config
	opts []dataset.Option
}

// WithWorkers sets the worker pool size.
func WithWorkers(n int) EngineOption {
	return func(ec *engineConfig) {
		ec.cfg.WorkerPoolSize = n
	}
}

// WithBuckets sets the shuffle bucket count.
func WithBuckets(n int) EngineOption {
	return func(ec *engineConfig) {
		ec.cfg.ShuffleBuckets = n
	}
}

// WithConfig applies arbitrary changes to the engine configuration.
func WithConfig(mutate ...func(*config.Config)) EngineOption {
	return func(ec *engineConfig) {
		for _, m := range mutate {
			m(&ec.cfg)
		}
	}
}

// WithEngineOptions passes options through to dataset.NewEngine.
func WithEngineOptions(opts ...dataset.Option) EngineOption {
	return func(ec *engineConfig) {
		ec.opts = append(ec.opts, opts...)
	}
}

// NewEngine creates an engine that is closed when the test finishes.
//
// Example usage:
//
//	e := testutil.NewEngine(t, testutil.WithBuckets(3))
func NewEngine(tb testing.TB, opts ...EngineOption) *dataset.Engine {
	tb.Helper()
	ec := &engineConfig{cfg: config.NewConfig()}
	ec.cfg.WorkerPoolSize = defaultWorkers
	for _, opt := range opts {
		opt(ec)
	}

	e, err := dataset.NewEngine(ec.cfg, ec.opts...)
	require.NoError(tb, err)
	tb.Cleanup(e.Close)
	return e
}

// MemFS creates an in-memory filesystem holding files.
func MemFS(tb testing.TB, files map[string][]byte) afero.Fs {
	tb.Helper()
	fs := afero.NewMemMapFs()
	for name, data := range files {
		require.NoError(tb, afero.WriteFile(fs, name, data, 0o644))
	}
	return fs
}

// MemStore creates a store over an in-memory filesystem holding files.
func MemStore(tb testing.TB, files map[string][]byte) *source.FSStore {
	tb.Helper()
	return source.NewFSStore(MemFS(tb, files))
}

// TextFiles converts text file contents for MemFS and MemStore.
func TextFiles(files map[string]string) map[string][]byte {
	out := make(map[string][]byte, len(files))
	for name, text := range files {
		out[name] = []byte(text)
	}
	return out
}

// Ints returns 0..n-1.
func Ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// Lines returns n distinct text lines.
func Lines(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("line-%d", i)
	}
	return out
}
