package queue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"doc-embeddings/internal/retry"
)

// TaskType enumerates supported task categories.
type TaskType string

const (
	TaskTypeEmbed TaskType = "embed"
)

// Task represents a unit of work handed from the gateway to workers.
type Task struct {
	ID          uuid.UUID
	Type        TaskType
	Payload     []byte
	Attempts    int
	MaxAttempts int
	NotBefore   time.Time
}

// DefaultMaxAttempts applies when a task leaves MaxAttempts unset.
const DefaultMaxAttempts = 5

// Final reports whether a failure of this delivery will not be retried.
func (t Task) Final() bool {
	limit := t.MaxAttempts
	if limit <= 0 {
		limit = DefaultMaxAttempts
	}
	return t.Attempts+1 >= limit
}

type Handler func(context.Context, Task) error

// Queue exposes a minimal contract to enqueue and consume tasks.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Worker(ctx context.Context, taskType TaskType, handler Handler) error
}

// EnqueueWithRetry attempts to enqueue with retries and exponential backoff.
func EnqueueWithRetry(ctx context.Context, q Queue, task Task, attempts int, base time.Duration) error {
	return retry.Do(ctx, attempts, base, func(ctx context.Context) error {
		return q.Enqueue(ctx, task)
	})
}
