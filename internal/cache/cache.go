package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"doc-embeddings/internal/embeddings"
)

// Cache stores fragment vectors per embedding model.
type Cache interface {
	// GetVectors returns one entry per text; misses are nil.
	GetVectors(ctx context.Context, model string, texts []string) ([]embeddings.Vector, error)

	// SetVectors stores vectors[i] for texts[i] with TTL.
	SetVectors(ctx context.Context, model string, texts []string, vectors []embeddings.Vector, ttl time.Duration) error

	// Close closes the cache connection
	Close() error
}

// Key builds the cache key for a fragment under a model.
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return cacheKeyPrefix + model + ":" + hex.EncodeToString(sum[:])
}
