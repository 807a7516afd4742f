package api

import (
	"errors"
	"time"
)

// Config holds HTTP server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8000".
	Addr string

	// AllowedOrigins lists CORS origins. "*" allows any origin.
	AllowedOrigins []string

	// DefaultLimit is used when a search omits limit.
	DefaultLimit int

	// MaxLimit is the largest accepted limit.
	MaxLimit int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the settings of the reference deployment.
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8000",
		AllowedOrigins:  []string{"*"},
		DefaultLimit:    10,
		MaxLimit:        100,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    120 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Validate checks that the configuration is valid and complete.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("api config: Addr is required")
	}
	if c.MaxLimit < 1 {
		return errors.New("api config: MaxLimit must be at least 1")
	}
	if c.DefaultLimit < 1 || c.DefaultLimit > c.MaxLimit {
		return errors.New("api config: DefaultLimit must be between 1 and MaxLimit")
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 || c.ShutdownTimeout < 0 {
		return errors.New("api config: timeouts must not be negative")
	}
	return nil
}
