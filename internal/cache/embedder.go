package cache

import (
	"context"
	"log/slog"
	"time"

	"doc-embeddings/internal/embeddings"
	"doc-embeddings/internal/metrics"
)

// Embedder serves vectors from the cache and forwards misses to the wrapped
// embedder in a single call. Cache failures never fail a request.
type Embedder struct {
	next  embeddings.Embedder
	cache Cache
	model string
	ttl   time.Duration
	log   *slog.Logger
}

// NewEmbedder wraps next with cache lookups keyed by model.
func NewEmbedder(next embeddings.Embedder, c Cache, model string, ttl time.Duration, log *slog.Logger) *Embedder {
	return &Embedder{next: next, cache: c, model: model, ttl: ttl, log: log}
}

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([]embeddings.Vector, error) {
	cached, err := e.cache.GetVectors(ctx, e.model, texts)
	if err != nil || len(cached) != len(texts) {
		e.log.Warn("embedding cache lookup failed", "err", err)
		cached = make([]embeddings.Vector, len(texts))
	}

	out := make([]embeddings.Vector, len(texts))
	var missIdx []int
	var missTexts []string
	for i, v := range cached {
		if v == nil {
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, texts[i])
			continue
		}
		out[i] = v
	}
	metrics.CacheLookupsTotal.WithLabelValues("hit").Add(float64(len(texts) - len(missIdx)))
	metrics.CacheLookupsTotal.WithLabelValues("miss").Add(float64(len(missIdx)))
	if len(missIdx) == 0 {
		return out, nil
	}

	fresh, err := e.next.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, embeddings.ErrVectorCountMismatch
	}
	for j, i := range missIdx {
		out[i] = fresh[j]
	}

	if err := e.cache.SetVectors(ctx, e.model, missTexts, fresh, e.ttl); err != nil {
		e.log.Warn("failed to cache embeddings", "err", err)
	}
	return out, nil
}
