package storage

import (
	"context"

	"github.com/poiesic/coursesearch/core"
)

// CacheKey identifies one embedding: the model that produced it and the
// exact text that was embedded.
func CacheKey(model, text string) core.ID {
	return core.IDFromContent(model + "\x00" + text)
}

// EmbeddingCache stores embedding vectors keyed by CacheKey.
// Implementations must be thread-safe and support concurrent access.
type EmbeddingCache interface {
	// Get returns the vector stored under key.
	// Returns ErrNotFound if the key is absent.
	Get(ctx context.Context, key core.ID) ([]float32, error)

	// GetMany returns the vectors that exist for keys. Missing keys are
	// omitted from the result; they are not an error.
	GetMany(ctx context.Context, keys []core.ID) (map[core.ID][]float32, error)

	// Put stores vectors, replacing any existing entry for the same key.
	Put(ctx context.Context, entries map[core.ID][]float32) error

	// Count returns the number of cached vectors.
	Count(ctx context.Context) (int, error)

	// Close closes the cache and releases resources.
	Close() error
}
