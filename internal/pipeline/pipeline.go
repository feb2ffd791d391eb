// Package pipeline connects submitted documents to the embedding builder and
// the store. It is shared by the gateway (validation) and the worker.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"doc-embeddings/internal/app"
	"doc-embeddings/internal/chunker"
	"doc-embeddings/internal/embeddable"
	"doc-embeddings/internal/embeddings"
	"doc-embeddings/internal/nonempty"
	"doc-embeddings/internal/store"
)

// ErrChunkedNotText is returned when a chunked document's content is not a JSON string.
var ErrChunkedNotText = errors.New("chunked documents must have string content")

// TaskPayload is the body of an embed task.
type TaskPayload struct {
	DocumentID uuid.UUID `json:"document_id"`
}

// Embeddable turns stored document content into its fragment source.
// Chunked documents must hold a JSON string, which is split into overlapping
// chunks. Everything else is decoded and embedded by value: strings and
// numbers as text, arrays element by element, objects as compact JSON.
func Embeddable(doc store.Document) (embeddable.Embeddable, error) {
	v, err := embeddable.DecodeJSON(doc.Content)
	if err != nil {
		return nil, err
	}

	if doc.Chunked {
		text, ok := v.(string)
		if !ok {
			return nil, ErrChunkedNotText
		}
		return chunker.Document{
			Title:   doc.Title,
			Text:    text,
			Options: chunker.Options{MaxWords: chunker.DefaultMaxWords, Overlap: chunker.DefaultOverlap},
		}, nil
	}
	return embeddable.Of(v)
}

// Fragments validates content and returns the fragments it would produce.
func Fragments(doc store.Document) ([]string, error) {
	e, err := Embeddable(doc)
	if err != nil {
		return nil, err
	}
	return embeddable.Fragments(e)
}

// IsPermanent reports errors that retrying cannot fix.
func IsPermanent(err error) bool {
	return errors.Is(err, nonempty.ErrEmptyInput) ||
		errors.Is(err, embeddable.ErrSerialization) ||
		errors.Is(err, ErrChunkedNotText) ||
		errors.Is(err, store.ErrDocumentNotFound)
}

// Process embeds one document and stores its fragments in order. Permanent
// failures mark the document failed and return nil so the task is not
// retried. Other failures are returned for the queue to retry; the document
// stays pending unless final reports that no retry will follow.
func Process(ctx context.Context, deps app.Deps, payload TaskPayload, final bool) error {
	log := deps.Log.With("document_id", payload.DocumentID)

	doc, err := deps.Store.GetDocument(ctx, payload.DocumentID)
	if err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			log.Warn("document vanished before embedding")
			return nil
		}
		return fmt.Errorf("load document: %w", err)
	}

	result, err := embed(ctx, deps, doc)
	if err != nil {
		if IsPermanent(err) {
			log.Warn("document cannot be embedded", "err", err)
			return deps.Store.UpdateDocumentStatus(ctx, doc.ID, store.StatusFailed)
		}
		if final {
			markFailed(ctx, deps, doc.ID)
		}
		return err
	}

	if err := deps.Store.SaveEmbeddings(ctx, doc.ID, deps.Config.EmbeddingModel, result.Embeddings); err != nil {
		if final {
			markFailed(ctx, deps, doc.ID)
		}
		return fmt.Errorf("save embeddings: %w", err)
	}
	log.Info("document embedded", "fragments", result.Embeddings.Len())
	return deps.Store.UpdateDocumentStatus(ctx, doc.ID, store.StatusReady)
}

func embed(ctx context.Context, deps app.Deps, doc store.Document) (embeddings.DocumentEmbeddings, error) {
	e, err := Embeddable(doc)
	if err != nil {
		return embeddings.DocumentEmbeddings{}, err
	}
	res, err := embeddings.NewBuilder(deps.Embedder, deps.BuilderOptions()).
		Add(doc.ID.String(), e).
		Build(ctx)
	if err != nil {
		return embeddings.DocumentEmbeddings{}, err
	}
	return res[0], nil
}

func markFailed(ctx context.Context, deps app.Deps, id uuid.UUID) {
	if err := deps.Store.UpdateDocumentStatus(ctx, id, store.StatusFailed); err != nil {
		deps.Log.Error("failed to mark document failed", "document_id", id, "err", err)
	}
}
