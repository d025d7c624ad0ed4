// Package tamarin is a partitioned dataset transformation engine.
// This package is the sole public API for the library.
//
// A Dataset is an immutable, lazily evaluated collection of records split
// into partitions. Transformations such as Map, Filter, Distinct, Join and
// GroupByKey build a lineage of operators; nothing runs until an action
// (Count, Collect, CountByKey, ...) is called, at which point the engine
// executes the lineage on a bounded worker pool. Persisted datasets are
// materialized once and shared by every later action.
package tamarin

import (
	"context"

	"golang.org/x/exp/constraints"

	"github.com/paveg/tamarin/internal/config"
	"github.com/paveg/tamarin/internal/dataset"
	"github.com/paveg/tamarin/internal/errors"
	"github.com/paveg/tamarin/internal/monitoring"
	"github.com/paveg/tamarin/internal/source"
)

type (
	// Engine executes dataset actions.
	Engine = dataset.Engine
	// Option configures an Engine.
	Option = dataset.Option
	// Config holds engine settings.
	Config = config.Config
	// Dataset is an immutable, partitioned collection of records of type T.
	Dataset[T any] = dataset.Dataset[T]
	// Partition is one slice of a dataset's records.
	Partition[T any] = dataset.Partition[T]
	// Pair is a two-element record, used for keyed data and join output.
	Pair[A, B any] = dataset.Pair[A, B]
	// Operator describes one step of a dataset's lineage.
	Operator = dataset.Operator
	// PlanNode is the explained lineage of a dataset.
	PlanNode = monitoring.PlanNode
	// EngineError is the error type returned by the engine.
	EngineError = errors.EngineError
	// Store opens files for the source loaders.
	Store = source.Store
	// Record is a structured record loaded from JSON or parquet.
	Record = source.Record
	// CSVOptions configures CSVFile.
	CSVOptions = source.CSVOptions
	// S3Config configures the S3 client used by NewS3Store.
	S3Config = source.ClientConfig
)

// Errors returned by the engine, for use with errors.Is.
var (
	ErrSourceUnavailable   = errors.ErrSourceUnavailable
	ErrTransform           = errors.ErrTransform
	ErrJoinKeyTypeMismatch = errors.ErrJoinKeyTypeMismatch
	ErrCacheCorruption     = errors.ErrCacheCorruption
	ErrResultTooLarge      = errors.ErrResultTooLarge
	ErrInvalidArgument     = errors.ErrInvalidArgument
)

// Engine options.
var (
	WithLogger    = dataset.WithLogger
	WithMetrics   = dataset.WithMetrics
	WithCollector = dataset.WithCollector
)

// NewConfig returns a configuration with default values.
func NewConfig() Config {
	return config.NewConfig()
}

// ConfigFromEnv returns the default configuration with TAMARIN_*
// environment overrides applied.
func ConfigFromEnv() Config {
	return config.FromEnv()
}

// LoadConfig reads a JSON or YAML configuration file and applies TAMARIN_*
// environment overrides on top of it.
func LoadConfig(path string) (Config, error) {
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return Config{}, err
	}
	return config.LoadFromEnv(cfg), nil
}

// NewEngine creates an engine.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	return dataset.NewEngine(cfg, opts...)
}

// WithEngine creates an engine, passes it to fn and closes it afterwards.
//
// Example:
//
//	err := tamarin.WithEngine(tamarin.NewConfig(), func(e *tamarin.Engine) error {
//		n, err := tamarin.Parallelize(e, []string{"a", "b"}, 2).Count(ctx)
//		...
//	})
func WithEngine(cfg Config, fn func(*Engine) error, opts ...Option) error {
	e, err := NewEngine(cfg, opts...)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(e)
}

// Sources

// Parallelize distributes records over numPartitions partitions.
func Parallelize[T any](e *Engine, records []T, numPartitions int) *Dataset[T] {
	return dataset.Parallelize(e, records, numPartitions)
}

// FromSource creates a dataset from a custom partition loader.
func FromSource[T any](e *Engine, name string, load func(ctx context.Context) ([]Partition[T], error)) *Dataset[T] {
	return dataset.FromSource(e, name, load)
}

// LocalStore opens paths on the local filesystem.
func LocalStore() Store {
	return source.NewOSStore()
}

// NewS3Store creates a store that reads s3://bucket/key paths.
func NewS3Store(ctx context.Context, cfg S3Config) (Store, error) {
	client, err := source.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := source.NewS3Store(client)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// NewRouter creates a store that opens s3:// paths with remote and every
// other path with local. remote may be nil.
func NewRouter(local, remote Store) Store {
	return source.NewRouter(local, remote)
}

// TextFile creates a dataset of the lines of a text file.
func TextFile(e *Engine, store Store, path string, minPartitions int) *Dataset[string] {
	return source.TextFile(e, store, path, minPartitions)
}

// DefaultCSVOptions returns comma-delimited options with a header row.
func DefaultCSVOptions() CSVOptions {
	return source.DefaultCSVOptions()
}

// CSVFile creates a dataset of the rows of a CSV file.
func CSVFile(e *Engine, store Store, path string, options CSVOptions) *Dataset[[]string] {
	return source.CSVFile(e, store, path, options)
}

// JSONFile creates a dataset of the objects of a JSON file.
func JSONFile(e *Engine, store Store, path string, minPartitions int) *Dataset[Record] {
	return source.JSONFile(e, store, path, minPartitions)
}

// ParquetFile creates a dataset of the rows of a parquet file.
func ParquetFile(e *Engine, store Store, path string, minPartitions int) *Dataset[Record] {
	return source.ParquetFile(e, store, path, minPartitions)
}

// Field returns the named field of a record as text. Numbers keep their
// literal form and a missing or null field is empty.
func Field(r Record, name string) string {
	return source.String(r, name)
}

// Transformations

// Map applies fn to every record.
func Map[T, U any](d *Dataset[T], fn func(T) (U, error)) *Dataset[U] {
	return dataset.Map(d, fn)
}

// FlatMap applies fn to every record and flattens the results.
func FlatMap[T, U any](d *Dataset[T], fn func(T) ([]U, error)) *Dataset[U] {
	return dataset.FlatMap(d, fn)
}

// KeyBy pairs every record with the key fn computes for it.
func KeyBy[T any, K comparable](d *Dataset[T], fn func(T) (K, error)) *Dataset[Pair[K, T]] {
	return dataset.KeyBy(d, fn)
}

// Distinct removes duplicate records.
func Distinct[T comparable](d *Dataset[T]) *Dataset[T] {
	return dataset.Distinct(d)
}

// Subtract removes from a every record that occurs in b.
func Subtract[T comparable](a, b *Dataset[T]) *Dataset[T] {
	return dataset.Subtract(a, b)
}

// Join pairs every left record with every right record of equal key.
func Join[L, R any, K comparable](left *Dataset[L], right *Dataset[R], lk func(L) (K, error), rk func(R) (K, error)) *Dataset[Pair[L, R]] {
	return dataset.Join(left, right, lk, rk)
}

// JoinWith joins datasets whose key functions return different types. The
// key types must match unless one of them is an interface type.
func JoinWith[L, R any, KL, KR comparable](left *Dataset[L], right *Dataset[R], lk func(L) (KL, error), rk func(R) (KR, error)) (*Dataset[Pair[L, R]], error) {
	return dataset.JoinWith(left, right, lk, rk)
}

// GroupByKey groups records by key.
func GroupByKey[T any, K comparable](d *Dataset[T], keyFn func(T) (K, error)) *Dataset[Pair[K, []T]] {
	return dataset.GroupByKey(d, keyFn)
}

// ReduceByKey merges the values of each key with fn.
func ReduceByKey[K comparable, V any](d *Dataset[Pair[K, V]], fn func(V, V) (V, error)) *Dataset[Pair[K, V]] {
	return dataset.ReduceByKey(d, fn)
}

// Repartition redistributes records over n partitions.
func Repartition[T any](d *Dataset[T], n int) *Dataset[T] {
	return dataset.Repartition(d, n)
}

// Actions

// CountByKey counts the records of each key.
func CountByKey[T any, K comparable](ctx context.Context, d *Dataset[T], keyFn func(T) (K, error)) (map[K]int64, error) {
	return dataset.CountByKey(ctx, d, keyFn)
}

// CountByValue counts the occurrences of each record.
func CountByValue[T comparable](ctx context.Context, d *Dataset[T]) (map[T]int64, error) {
	return dataset.CountByValue(ctx, d)
}

// SortedCounts returns counts ordered by key.
func SortedCounts[K constraints.Ordered](counts map[K]int64) []Pair[K, int64] {
	return dataset.SortedCounts(counts)
}

// Function adapters

// Pure adapts an infallible function for use with Map and the key-based
// operators.
func Pure[T, U any](fn func(T) U) func(T) (U, error) {
	return func(v T) (U, error) {
		return fn(v), nil
	}
}

// Predicate adapts an infallible predicate for use with Filter.
func Predicate[T any](fn func(T) bool) func(T) (bool, error) {
	return func(v T) (bool, error) {
		return fn(v), nil
	}
}

// NewPair creates a pair.
func NewPair[A, B any](first A, second B) Pair[A, B] {
	return dataset.NewPair(first, second)
}
