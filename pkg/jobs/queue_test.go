package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("widgets", func(context.Context, Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{Type: "refresh"})
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan Job, 1)
	q := NewQueue("widgets", func(_ context.Context, job Job) error {
		done <- job
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "refresh", Payload: "owner-1"}))

	select {
	case job := <-done:
		assert.Equal(t, "owner-1", job.Payload)
		assert.NotEmpty(t, job.ID)
		assert.False(t, job.Enqueued.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueCoalescesWaitingKeys(t *testing.T) {
	q := NewQueue("widgets", func(context.Context, Job) error { return nil }, QueueConfig{Workers: 1, BufferSize: 4})
	q.mu.Lock()
	q.ctx, q.cancel = context.WithCancel(context.Background())
	q.started = true
	q.mu.Unlock()
	defer q.cancel()

	require.NoError(t, q.Enqueue(Job{Type: "refresh", Key: "owner-1"}))
	require.NoError(t, q.Enqueue(Job{Type: "refresh", Key: "owner-1"}))
	require.NoError(t, q.Enqueue(Job{Type: "refresh", Key: "owner-2"}))

	assert.Len(t, q.jobs, 2)
	assert.Equal(t, 2, q.Pending())
}

func TestQueueReportsFullBuffer(t *testing.T) {
	q := NewQueue("widgets", func(context.Context, Job) error { return nil }, QueueConfig{Workers: 1, BufferSize: 1})
	q.mu.Lock()
	q.ctx, q.cancel = context.WithCancel(context.Background())
	q.started = true
	q.mu.Unlock()
	defer q.cancel()

	require.NoError(t, q.Enqueue(Job{Type: "refresh"}))
	assert.ErrorIs(t, q.Enqueue(Job{Type: "refresh"}), ErrQueueFull)
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("widgets", func(context.Context, Job) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{Workers: 1, RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "refresh"}))

	select {
	case <-done:
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
}
