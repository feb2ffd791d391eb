package queue

import (
	"context"

	"github.com/stretchr/testify/mock"
)

var _ Queue = (*MockQueue)(nil)

// MockQueue records enqueued embedding tasks for handler and gateway tests.
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Enqueue(ctx context.Context, task Task) error {
	return m.Called(ctx, task).Error(0)
}

// Worker returns immediately with the configured error; handlers are
// exercised directly in tests rather than through a subscription.
func (m *MockQueue) Worker(ctx context.Context, taskType TaskType, handler Handler) error {
	return m.Called(ctx, taskType, handler).Error(0)
}
