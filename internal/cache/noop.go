package cache

import (
	"context"
	"time"

	"doc-embeddings/internal/embeddings"
)

// NoOpCache is a cache implementation that does nothing.
// Used as a fallback when Redis is unavailable: every lookup misses.
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// GetVectors reports a miss for every text.
func (c *NoOpCache) GetVectors(_ context.Context, _ string, texts []string) ([]embeddings.Vector, error) {
	return make([]embeddings.Vector, len(texts)), nil
}

func (c *NoOpCache) SetVectors(context.Context, string, []string, []embeddings.Vector, time.Duration) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}
