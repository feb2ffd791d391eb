package embeddings

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"doc-embeddings/internal/embeddable"
	"doc-embeddings/internal/metrics"
	"doc-embeddings/internal/nonempty"
)

const (
	defaultBatchSize   = 64
	defaultConcurrency = 4
)

// Embedding pairs a fragment with the vector generated for it.
type Embedding struct {
	Fragment string `json:"fragment"`
	Vector   Vector `json:"vector"`
}

// DocumentEmbeddings holds one document's embeddings in fragment order.
type DocumentEmbeddings struct {
	ID         string
	Embeddings nonempty.Collection[Embedding]
}

// BuilderOptions controls batching. Zero values fall back to defaults.
type BuilderOptions struct {
	BatchSize   int
	Concurrency int
}

// Builder collects documents, extracts their fragments and embeds them in
// batches while keeping every vector attached to the fragment it came from.
type Builder struct {
	embedder    Embedder
	batchSize   int
	concurrency int
	docs        []pendingDoc
}

type pendingDoc struct {
	id  string
	doc embeddable.Embeddable
}

// NewBuilder returns a Builder that embeds with e.
func NewBuilder(e Embedder, opts BuilderOptions) *Builder {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &Builder{
		embedder:    e,
		batchSize:   opts.BatchSize,
		concurrency: opts.Concurrency,
	}
}

// Add queues a document. Fragments are extracted when Build runs.
func (b *Builder) Add(id string, doc embeddable.Embeddable) *Builder {
	b.docs = append(b.docs, pendingDoc{id: id, doc: doc})
	return b
}

// Build extracts fragments from every document, stopping at the first
// extraction error, then embeds all fragments. Results follow Add order.
func (b *Builder) Build(ctx context.Context) ([]DocumentEmbeddings, error) {
	if len(b.docs) == 0 {
		return nil, nonempty.ErrEmptyInput
	}

	type span struct{ start, end int }
	spans := make([]span, len(b.docs))
	var texts []string
	for i, d := range b.docs {
		fragments, err := embeddable.Fragments(d.doc)
		if err != nil {
			return nil, fmt.Errorf("document %q: %w", d.id, err)
		}
		spans[i] = span{start: len(texts), end: len(texts) + len(fragments)}
		texts = append(texts, fragments...)
	}
	metrics.FragmentsTotal.Add(float64(len(texts)))

	vectors, err := b.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	out := make([]DocumentEmbeddings, len(b.docs))
	for i, d := range b.docs {
		s := spans[i]
		embs := make([]Embedding, 0, s.end-s.start)
		for j := s.start; j < s.end; j++ {
			embs = append(embs, Embedding{Fragment: texts[j], Vector: vectors[j]})
		}
		c, err := nonempty.FromSlice(embs)
		if err != nil {
			return nil, fmt.Errorf("document %q: %w", d.id, err)
		}
		out[i] = DocumentEmbeddings{ID: d.id, Embeddings: c}
	}
	return out, nil
}

// embedAll splits texts into batches and embeds them concurrently. Each batch
// writes into its own region of the result, so positions never shift.
func (b *Builder) embedAll(ctx context.Context, texts []string) ([]Vector, error) {
	vectors := make([]Vector, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for start := 0; start < len(texts); start += b.batchSize {
		end := min(start+b.batchSize, len(texts))
		g.Go(func() error {
			began := time.Now()
			vecs, err := b.embedder.EmbedBatch(gctx, texts[start:end])
			metrics.EmbeddingBatchDuration.Observe(time.Since(began).Seconds())
			if err == nil && len(vecs) != end-start {
				err = fmt.Errorf("batch [%d:%d]: got %d vectors: %w", start, end, len(vecs), ErrVectorCountMismatch)
			}
			if err != nil {
				metrics.EmbeddingBatchesTotal.WithLabelValues("error").Inc()
				return err
			}
			metrics.EmbeddingBatchesTotal.WithLabelValues("ok").Inc()
			copy(vectors[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// EmbedDocument is a shortcut for building a single document.
func EmbedDocument(ctx context.Context, e Embedder, id string, doc embeddable.Embeddable) (DocumentEmbeddings, error) {
	res, err := NewBuilder(e, BuilderOptions{}).Add(id, doc).Build(ctx)
	if err != nil {
		return DocumentEmbeddings{}, err
	}
	return res[0], nil
}
