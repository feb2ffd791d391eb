package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestEnqueueWithRetry(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*MockQueue)
		wantErr bool
	}{
		{
			name: "first attempt succeeds",
			setup: func(q *MockQueue) {
				q.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Once()
			},
		},
		{
			name: "succeeds after transient failure",
			setup: func(q *MockQueue) {
				q.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("nats down")).Once()
				q.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Once()
			},
		},
		{
			name: "gives up after all attempts",
			setup: func(q *MockQueue) {
				q.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("nats down")).Times(3)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := new(MockQueue)
			tt.setup(q)

			err := EnqueueWithRetry(context.Background(), q, Task{Type: TaskTypeEmbed}, 3, time.Millisecond)
			if (err != nil) != tt.wantErr {
				t.Errorf("EnqueueWithRetry() error = %v, wantErr %v", err, tt.wantErr)
			}
			q.AssertExpectations(t)
		})
	}
}

func TestDecodeTaskRejectsGarbage(t *testing.T) {
	_, err := decodeTask([]byte("not json"))
	assert.Error(t, err)

	task, err := decodeTask([]byte(`{"Type":"embed","Attempts":2}`))
	assert.NoError(t, err)
	assert.Equal(t, TaskTypeEmbed, task.Type)
	assert.Equal(t, 2, task.Attempts)
}

func TestTaskFinal(t *testing.T) {
	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"first delivery, default limit", Task{}, false},
		{"last delivery, default limit", Task{Attempts: DefaultMaxAttempts - 1}, true},
		{"explicit limit not reached", Task{Attempts: 1, MaxAttempts: 3}, false},
		{"explicit limit reached", Task{Attempts: 2, MaxAttempts: 3}, true},
		{"single attempt", Task{MaxAttempts: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.Final())
		})
	}
}
