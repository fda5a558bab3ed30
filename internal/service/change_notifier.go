package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/student-planner-api/pkg/jobs"
)

// JobTypeWidgetRefresh identifies queued widget snapshot refreshes.
const JobTypeWidgetRefresh = "widget.refresh"

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type ownerChangeListener interface {
	OwnerChanged(ctx context.Context, ownerID string)
}

// ChangeNotifier reacts to writes on an owner's planner data: cached agendas
// are dropped and a widget refresh is queued.
type ChangeNotifier struct {
	cache  *CacheService
	queue  jobEnqueuer
	logger *zap.Logger
}

// NewChangeNotifier builds a notifier. Either dependency may be nil.
func NewChangeNotifier(cache *CacheService, queue jobEnqueuer, logger *zap.Logger) *ChangeNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeNotifier{cache: cache, queue: queue, logger: logger}
}

// OwnerChanged invalidates and schedules. Failures are logged only.
func (n *ChangeNotifier) OwnerChanged(ctx context.Context, ownerID string) {
	if n == nil || ownerID == "" {
		return
	}
	if err := n.cache.Invalidate(ctx, agendaCachePattern(ownerID)); err != nil {
		n.logger.Warn("agenda cache invalidation failed", zap.String("owner_id", ownerID), zap.Error(err))
	}
	if n.queue == nil {
		return
	}
	job := jobs.Job{Type: JobTypeWidgetRefresh, Key: ownerID, Payload: ownerID}
	if err := n.queue.Enqueue(job); err != nil {
		n.logger.Warn("widget refresh not queued", zap.String("owner_id", ownerID), zap.Error(err))
	}
}

func notifyOwner(ctx context.Context, listener ownerChangeListener, ownerID string) {
	if listener == nil {
		return
	}
	listener.OwnerChanged(ctx, ownerID)
}
