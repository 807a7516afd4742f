package precompute

import "errors"

var (
	// ErrEmbedderRequired is returned when no embedder is provided
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrInvalidConfig is returned by Config.Validate
	ErrInvalidConfig = errors.New("invalid precompute config")

	// ErrEmbeddingCountMismatch is returned when the embedder answers a batch
	// with a different number of vectors than texts sent
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")
)
