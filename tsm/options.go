package tsm

import (
	"fmt"
	"log"

	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/coordinates"
)

// Config holds the engine-wide configuration an Engine is built from,
// grounded on the teacher's libravdb.Config / Option pattern
// (libravdb/database.go, libravdb/options.go).
type Config struct {
	StoragePath           string
	SpatialDimension      int
	Metric                coordinates.Metric
	TemporalBucketSeconds float64
	CacheSize             int
	AutoTune              bool
	MetricsEnabled        bool
	Logger                *log.Logger
}

// Option configures an Engine at construction time.
type Option func(*Config) error

// WithStoragePath roots disk-backed node storage and delta persistence
// (under path/deltas) at path. Without this option the engine uses
// "./data"; the node store and deltas are always written to disk, and no
// option selects an in-memory-only engine.
func WithStoragePath(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return fmt.Errorf("storage path cannot be empty")
		}
		c.StoragePath = path
		return nil
	}
}

// WithSpatialDimension fixes the spatial index's working dimensionality.
func WithSpatialDimension(dim int) Option {
	return func(c *Config) error {
		if dim <= 0 {
			return fmt.Errorf("spatial dimension must be positive")
		}
		c.SpatialDimension = dim
		return nil
	}
}

// WithMetric sets the distance metric used by the spatial index.
func WithMetric(metric coordinates.Metric) Option {
	return func(c *Config) error {
		c.Metric = metric
		return nil
	}
}

// WithTemporalBucketSeconds sets the temporal index's initial bucket
// width in seconds.
func WithTemporalBucketSeconds(seconds float64) Option {
	return func(c *Config) error {
		if seconds <= 0 {
			return fmt.Errorf("temporal bucket seconds must be positive")
		}
		c.TemporalBucketSeconds = seconds
		return nil
	}
}

// WithCacheSize sets the LRU cache size shared by the spatial NN cache
// and the query result cache (floor 100 applies at each cache site).
func WithCacheSize(size int) Option {
	return func(c *Config) error {
		if size <= 0 {
			return fmt.Errorf("cache size must be positive")
		}
		c.CacheSize = size
		return nil
	}
}

// WithAutoTune enables the combined index's temporal bucket auto-tuner.
func WithAutoTune(enabled bool) Option {
	return func(c *Config) error {
		c.AutoTune = enabled
		return nil
	}
}

// WithMetrics enables or disables Prometheus metrics collection.
func WithMetrics(enabled bool) Option {
	return func(c *Config) error {
		c.MetricsEnabled = enabled
		return nil
	}
}

// WithLogger sets the logger the engine reports warnings through (e.g.
// skipped nodes during BulkLoad). Defaults to log.Default() when unset.
func WithLogger(logger *log.Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

func defaultConfig() *Config {
	return &Config{
		StoragePath:           "./data",
		SpatialDimension:      2,
		Metric:                coordinates.Euclidean,
		TemporalBucketSeconds: 3600,
		CacheSize:             1000,
		AutoTune:              true,
		MetricsEnabled:        true,
		Logger:                log.Default(),
	}
}
