package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"doc-embeddings/internal/embeddings"
	"doc-embeddings/internal/nonempty"
)

type DocumentStatus string

const (
	StatusPending DocumentStatus = "pending"
	StatusReady   DocumentStatus = "ready"
	StatusFailed  DocumentStatus = "failed"
)

var ErrDocumentNotFound = errors.New("document not found")

// Document is a submitted value awaiting or holding embeddings. Content is the
// raw JSON the fragments were extracted from.
type Document struct {
	ID        uuid.UUID
	Title     string
	Content   json.RawMessage
	Chunked   bool
	Status    DocumentStatus
	CreatedAt time.Time
}

// Fragment is one embedded text unit; Position is its index in the document's
// fragment list.
type Fragment struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	Position   int
	Text       string
}

type SearchResult struct {
	Fragment Fragment
	Score    float32
}

// Store defines the persistence contract.
type Store interface {
	CreateDocument(ctx context.Context, doc Document) (Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (Document, error)
	UpdateDocumentStatus(ctx context.Context, id uuid.UUID, status DocumentStatus) error
	// SaveEmbeddings replaces the document's fragments; element i is stored at position i.
	SaveEmbeddings(ctx context.Context, docID uuid.UUID, model string, embs nonempty.Collection[embeddings.Embedding]) error
	ListFragments(ctx context.Context, docID uuid.UUID) ([]Fragment, error)
	// Search returns the k closest fragments, optionally restricted to docIDs.
	Search(ctx context.Context, vector embeddings.Vector, docIDs []uuid.UUID, k int) ([]SearchResult, error)
}
