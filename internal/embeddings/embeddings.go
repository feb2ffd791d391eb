package embeddings

import (
	"context"
	"errors"
)

// Vector is a simple float32 slice wrapper.
type Vector []float32

// Embedder turns text fragments into vectors. Implementations must return
// exactly one vector per input text, in the same order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([]Vector, error)
}

// ErrVectorCountMismatch is returned when a provider answers with a different
// number of vectors than texts were sent.
var ErrVectorCountMismatch = errors.New("embedder returned a different number of vectors than texts")

// Embed is a convenience for a single text.
func Embed(ctx context.Context, e Embedder, text string) (Vector, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, ErrVectorCountMismatch
	}
	return vecs[0], nil
}
