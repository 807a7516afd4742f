package coursesearch

import "errors"

var (
	// ErrStoreRequired is returned when no catalog store is provided
	ErrStoreRequired = errors.New("catalog store is required")

	// ErrEmbedderRequired is returned when no embedder is provided
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrEmbeddingFailed wraps failures of the embedding service
	ErrEmbeddingFailed = errors.New("query embedding failed")

	// ErrNoCatalogFiles is returned by Reload on a Service not created by Open
	ErrNoCatalogFiles = errors.New("service has no catalog files to reload")
)
