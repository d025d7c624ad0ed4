// Package config provides configuration management for tamarin engines
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/paveg/tamarin/internal/validation"
)

// Config represents the configuration of an Engine
type Config struct {
	// Execution
	WorkerPoolSize    int `json:"worker_pool_size" yaml:"worker_pool_size"`     // Number of worker goroutines (0 = auto-detect)
	ShuffleBuckets    int `json:"shuffle_buckets" yaml:"shuffle_buckets"`       // Bucket count for distinct/join/group shuffles
	DefaultPartitions int `json:"default_partitions" yaml:"default_partitions"` // Partition count for sources without an explicit one

	// Result bounds (0 = unlimited)
	MaxCollectRecords int64 `json:"max_collect_records" yaml:"max_collect_records"` // Maximum records returned by Collect
	MaxCollectBytes   int64 `json:"max_collect_bytes" yaml:"max_collect_bytes"`     // Maximum estimated bytes returned by Collect

	// Debugging
	VerboseLogging    bool `json:"verbose_logging" yaml:"verbose_logging"`       // Log at debug level
	MetricsCollection bool `json:"metrics_collection" yaml:"metrics_collection"` // Record per-action metrics
}

// Default configuration values
const (
	DefaultShuffleBuckets    = 8
	DefaultDefaultPartitions = 4
	envPrefix                = "TAMARIN_"
)

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		WorkerPoolSize:    0, // Auto-detect
		ShuffleBuckets:    DefaultShuffleBuckets,
		DefaultPartitions: DefaultDefaultPartitions,

		MaxCollectRecords: 0,
		MaxCollectBytes:   0,

		VerboseLogging:    false,
		MetricsCollection: false,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	return validation.NewCompoundValidator(
		validation.NewNonNegativeValidator(int64(c.WorkerPoolSize), "Config", "WorkerPoolSize"),
		validation.NewPositiveValidator(int64(c.ShuffleBuckets), "Config", "ShuffleBuckets"),
		validation.NewPositiveValidator(int64(c.DefaultPartitions), "Config", "DefaultPartitions"),
		validation.NewNonNegativeValidator(c.MaxCollectRecords, "Config", "MaxCollectRecords"),
		validation.NewNonNegativeValidator(c.MaxCollectBytes, "Config", "MaxCollectBytes"),
	).Validate()
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.ShuffleBuckets == 0 {
		c.ShuffleBuckets = defaults.ShuffleBuckets
	}
	if c.DefaultPartitions == 0 {
		c.DefaultPartitions = defaults.DefaultPartitions
	}

	// WorkerPoolSize and the collect bounds keep 0 as a meaningful value
	// (auto-detect and unlimited), so they are left untouched.
	return c
}

// Workers resolves WorkerPoolSize, mapping 0 to the CPU count.
func (c Config) Workers() int {
	if c.WorkerPoolSize <= 0 {
		return runtime.NumCPU()
	}
	return c.WorkerPoolSize
}

// LoadFromJSON loads configuration from JSON data
func LoadFromJSON(data []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromYAML loads configuration from YAML data
func LoadFromYAML(data []byte) (Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing YAML configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a file (supports JSON, YAML)
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		config, err = LoadFromJSON(data)
	case ".yaml", ".yml":
		config, err = LoadFromYAML(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", filename, err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating config file %s: %w", filename, err)
	}
	return config, nil
}

// FromEnv returns the default configuration with TAMARIN_* environment
// overrides applied.
func FromEnv() Config {
	return LoadFromEnv(NewConfig())
}

// LoadFromEnv loads configuration from TAMARIN_* environment variables on
// top of base. Unparseable values are ignored.
func LoadFromEnv(base Config) Config {
	config := base

	setInt := func(name string, dst *int) {
		if val := os.Getenv(envPrefix + name); val != "" {
			if parsed, err := strconv.Atoi(val); err == nil {
				*dst = parsed
			}
		}
	}
	setInt64 := func(name string, dst *int64) {
		if val := os.Getenv(envPrefix + name); val != "" {
			if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
				*dst = parsed
			}
		}
	}
	setBool := func(name string, dst *bool) {
		if val := os.Getenv(envPrefix + name); val != "" {
			if parsed, err := strconv.ParseBool(val); err == nil {
				*dst = parsed
			}
		}
	}

	setInt("WORKER_POOL_SIZE", &config.WorkerPoolSize)
	setInt("SHUFFLE_BUCKETS", &config.ShuffleBuckets)
	setInt("DEFAULT_PARTITIONS", &config.DefaultPartitions)
	setInt64("MAX_COLLECT_RECORDS", &config.MaxCollectRecords)
	setInt64("MAX_COLLECT_BYTES", &config.MaxCollectBytes)
	setBool("VERBOSE_LOGGING", &config.VerboseLogging)
	setBool("METRICS_COLLECTION", &config.MetricsCollection)

	return config
}
