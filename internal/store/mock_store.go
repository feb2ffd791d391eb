package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"doc-embeddings/internal/embeddings"
	"doc-embeddings/internal/nonempty"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateDocument(ctx context.Context, doc Document) (Document, error) {
	args := m.Called(ctx, doc)
	return args.Get(0).(Document), args.Error(1)
}

func (m *MockStore) GetDocument(ctx context.Context, id uuid.UUID) (Document, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Document), args.Error(1)
}

func (m *MockStore) UpdateDocumentStatus(ctx context.Context, id uuid.UUID, status DocumentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockStore) SaveEmbeddings(ctx context.Context, docID uuid.UUID, model string, embs nonempty.Collection[embeddings.Embedding]) error {
	args := m.Called(ctx, docID, model, embs)
	return args.Error(0)
}

func (m *MockStore) ListFragments(ctx context.Context, docID uuid.UUID) ([]Fragment, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Fragment), args.Error(1)
}

func (m *MockStore) Search(ctx context.Context, vector embeddings.Vector, docIDs []uuid.UUID, k int) ([]SearchResult, error) {
	args := m.Called(ctx, vector, docIDs, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]SearchResult), args.Error(1)
}
