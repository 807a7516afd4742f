package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/coursesearch/core"
	"github.com/poiesic/coursesearch/storage"
)

// Cache implements storage.EmbeddingCache on BadgerDB.
type Cache struct {
	backend    *Backend
	ownBackend bool
	logger     *slog.Logger
}

var _ storage.EmbeddingCache = (*Cache)(nil)

// NewCache opens (or creates) an on-disk cache at path.
func NewCache(path string) (storage.EmbeddingCache, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	c := newCache(backend)
	c.ownBackend = true
	return c, nil
}

// NewCacheWithBackend creates a cache on an existing backend.
// Closing the cache does not close the backend.
func NewCacheWithBackend(backend *Backend) (*Cache, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	return newCache(backend), nil
}

func newCache(backend *Backend) *Cache {
	return &Cache{
		backend: backend,
		logger:  slog.Default().With("component", "embedding-cache"),
	}
}

// Get returns the vector stored under key.
func (c *Cache) Get(ctx context.Context, key core.ID) ([]float32, error) {
	if c.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var vec []float32
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEmbeddingKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			vec, unmarshalErr = storage.UnmarshalVector(val)
			return unmarshalErr
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// GetMany returns the vectors that exist for keys in one read transaction.
func (c *Cache) GetMany(ctx context.Context, keys []core.ID) (map[core.ID][]float32, error) {
	if c.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	found := make(map[core.ID][]float32, len(keys))
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := tx.Get(makeEmbeddingKey(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				vec, err := storage.UnmarshalVector(val)
				if err != nil {
					return fmt.Errorf("cache entry %d: %w", key, err)
				}
				found[key] = vec
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Put stores vectors with a write batch.
func (c *Cache) Put(ctx context.Context, entries map[core.ID][]float32) error {
	if c.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if len(entries) == 0 {
		return nil
	}

	wb := c.backend.NewWriteBatch()
	defer wb.Cancel()
	for key, vec := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := wb.Set(makeEmbeddingKey(key), storage.MarshalVector(vec)); err != nil {
			return err
		}
	}
	if err := wb.Flush(); err != nil {
		return err
	}
	c.logger.Debug("cached embeddings", "count", len(entries))
	return nil
}

// Count returns the number of cached vectors using a key-only scan.
func (c *Cache) Count(ctx context.Context) (int, error) {
	if c.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}
	count := 0
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(embeddingPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if _, ok := parseEmbeddingKey(iter.Item().Key()); ok {
				count++
			}
		}
		return ctx.Err()
	}, false)
	return count, err
}

// Close closes the backend if the cache opened it.
func (c *Cache) Close() error {
	if !c.ownBackend || c.backend.IsClosed() {
		return nil
	}
	return c.backend.Close()
}
