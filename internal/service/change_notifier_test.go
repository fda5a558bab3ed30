package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-planner-api/pkg/jobs"
)

type fakeEnqueuer struct {
	jobs []jobs.Job
	err  error
}

func (f *fakeEnqueuer) Enqueue(job jobs.Job) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func TestChangeNotifierInvalidatesAndQueues(t *testing.T) {
	cacheRepo := &stubCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	queue := &fakeEnqueuer{}
	notifier := NewChangeNotifier(cache, queue, zap.NewNop())

	notifier.OwnerChanged(context.Background(), "owner-1")

	assert.Equal(t, []string{"planner:agenda:owner-1:*"}, cacheRepo.deleted)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeWidgetRefresh, queue.jobs[0].Type)
	assert.Equal(t, "owner-1", queue.jobs[0].Key)
	assert.Equal(t, "owner-1", queue.jobs[0].Payload)
}

func TestChangeNotifierToleratesFailuresAndNil(t *testing.T) {
	notifier := NewChangeNotifier(nil, &fakeEnqueuer{err: jobs.ErrQueueFull}, zap.NewNop())
	assert.NotPanics(t, func() { notifier.OwnerChanged(context.Background(), "owner-1") })

	var none *ChangeNotifier
	assert.NotPanics(t, func() { none.OwnerChanged(context.Background(), "owner-1") })
	assert.NotPanics(t, func() { notifyOwner(context.Background(), nil, "owner-1") })
}
