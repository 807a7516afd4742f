package badger

import (
	"encoding/binary"

	"github.com/poiesic/coursesearch/core"
)

// Key prefixes for different data types
const (
	embeddingPrefix = "embvec:"
)

// makeEmbeddingKey generates a key for a cached vector.
// Format: prefix + 8 byte big-endian cache key
func makeEmbeddingKey(id core.ID) []byte {
	buf := make([]byte, len(embeddingPrefix)+8)
	offset := copy(buf, embeddingPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// parseEmbeddingKey recovers the cache key from a stored key.
func parseEmbeddingKey(key []byte) (core.ID, bool) {
	if len(key) != len(embeddingPrefix)+8 || string(key[:len(embeddingPrefix)]) != embeddingPrefix {
		return 0, false
	}
	return core.ID(binary.BigEndian.Uint64(key[len(embeddingPrefix):])), true
}
