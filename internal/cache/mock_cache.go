package cache

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"doc-embeddings/internal/embeddings"
)

// MockCache is a mock implementation of the Cache interface for testing
type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetVectors(ctx context.Context, model string, texts []string) ([]embeddings.Vector, error) {
	args := m.Called(ctx, model, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]embeddings.Vector), args.Error(1)
}

func (m *MockCache) SetVectors(ctx context.Context, model string, texts []string, vectors []embeddings.Vector, ttl time.Duration) error {
	args := m.Called(ctx, model, texts, vectors, ttl)
	return args.Error(0)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}
