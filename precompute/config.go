package precompute

import (
	"fmt"
	"runtime"
	"time"
)

// Config holds configuration for a precompute run.
type Config struct {
	// Model names the embedding model. It is part of every cache key so
	// vectors from different models never mix.
	Model string

	// BatchSize is the number of texts sent per embedding call
	BatchSize int

	// PoolSize is the number of batches embedded concurrently
	PoolSize int

	// ReportInterval is how often to report progress (number of courses)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Normalize scales every output vector to unit length
	Normalize bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      64,
		PoolSize:       max(runtime.NumCPU()/2, 1),
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: BatchSize must be at least 1", ErrInvalidConfig)
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("%w: PoolSize must be at least 1", ErrInvalidConfig)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("%w: MaxRetries must be at least 1", ErrInvalidConfig)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: RetryDelay must not be negative", ErrInvalidConfig)
	}
	if c.ReportInterval < 1 {
		return fmt.Errorf("%w: ReportInterval must be at least 1", ErrInvalidConfig)
	}
	return nil
}
