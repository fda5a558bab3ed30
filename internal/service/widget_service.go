package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/student-planner-api/internal/dto"
	"github.com/noah-isme/student-planner-api/internal/models"
	appErrors "github.com/noah-isme/student-planner-api/pkg/errors"
	"github.com/noah-isme/student-planner-api/pkg/jobs"
	"github.com/noah-isme/student-planner-api/pkg/storage"
)

// WidgetSnapshotBucket is the bbolt bucket holding one snapshot per owner.
const WidgetSnapshotBucket = "widget_snapshots"

type snapshotStore interface {
	Put(bucket, key string, value interface{}) error
	Get(bucket, key string, out interface{}) error
}

type agendaProvider interface {
	Day(ctx context.Context, ownerID string, date time.Time, mode string) (*dto.AgendaResponse, bool, error)
}

type dueTaskLister interface {
	ListDueBetween(ctx context.Context, ownerID string, from, to time.Time) ([]models.Task, error)
}

type ownerLister interface {
	ListOwners(ctx context.Context) ([]string, error)
}

// WidgetServiceConfig tunes snapshot production.
type WidgetServiceConfig struct {
	Enabled     bool
	Concurrency int
	Location    *time.Location
}

// WidgetServiceParams groups constructor dependencies.
type WidgetServiceParams struct {
	Agenda  agendaProvider
	Tasks   dueTaskLister
	Owners  ownerLister
	Store   snapshotStore
	Metrics *MetricsService
	Logger  *zap.Logger
	Config  WidgetServiceConfig
}

// WidgetService precomputes what a home-screen widget shows and stores it so
// widgets can render without calling the API.
type WidgetService struct {
	agenda  agendaProvider
	tasks   dueTaskLister
	owners  ownerLister
	store   snapshotStore
	metrics *MetricsService
	logger  *zap.Logger
	cfg     WidgetServiceConfig
	now     func() time.Time
}

// NewWidgetService constructs a WidgetService.
func NewWidgetService(params WidgetServiceParams) *WidgetService {
	cfg := params.Config
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WidgetService{
		agenda:  params.Agenda,
		tasks:   params.Tasks,
		owners:  params.Owners,
		store:   params.Store,
		metrics: params.Metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Enabled reports whether snapshots can be produced and read.
func (s *WidgetService) Enabled() bool {
	return s != nil && s.cfg.Enabled && s.store != nil
}

// Refresh recomputes today's snapshot for one owner and stores it.
func (s *WidgetService) Refresh(ctx context.Context, ownerID string) (*dto.WidgetSnapshot, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "widgets are disabled")
	}
	snapshot, err := s.compose(ctx, ownerID)
	if err != nil {
		s.metrics.RecordWidgetRefresh(WidgetRefreshFailed)
		return nil, err
	}
	if err := s.store.Put(WidgetSnapshotBucket, ownerID, snapshot); err != nil {
		s.metrics.RecordWidgetRefresh(WidgetRefreshFailed)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store widget snapshot")
	}
	s.metrics.RecordWidgetRefresh(WidgetRefreshOK)
	return snapshot, nil
}

// RefreshAll refreshes every owner with bounded concurrency. Individual
// failures are counted, not returned.
func (s *WidgetService) RefreshAll(ctx context.Context) (*dto.WidgetRefreshResult, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "widgets are disabled")
	}
	owners, err := s.owners.ListOwners(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list owners")
	}

	var refreshed, failed int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, ownerID := range owners {
		ownerID := ownerID
		g.Go(func() error {
			if _, err := s.Refresh(gctx, ownerID); err != nil {
				atomic.AddInt64(&failed, 1)
				s.logger.Warn("widget refresh failed", zap.String("owner_id", ownerID), zap.Error(err))
				return nil
			}
			atomic.AddInt64(&refreshed, 1)
			return nil
		})
	}
	_ = g.Wait()

	result := &dto.WidgetRefreshResult{Owners: len(owners), Refreshed: int(refreshed), Failed: int(failed)}
	s.logger.Info("widget refresh finished",
		zap.Int("owners", result.Owners),
		zap.Int("refreshed", result.Refreshed),
		zap.Int("failed", result.Failed),
	)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// Snapshot returns the stored snapshot and whether it is stale at the current time.
func (s *WidgetService) Snapshot(ctx context.Context, ownerID string) (*dto.WidgetSnapshotResponse, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "widgets are disabled")
	}
	var snapshot dto.WidgetSnapshot
	if err := s.store.Get(WidgetSnapshotBucket, ownerID, &snapshot); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no widget snapshot yet")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read widget snapshot")
	}
	return &dto.WidgetSnapshotResponse{Snapshot: snapshot, Stale: s.Stale(snapshot, s.now())}, nil
}

// Stale reports whether a snapshot no longer reflects now: its refresh
// instant has passed or it was produced for another day.
func (s *WidgetService) Stale(snapshot dto.WidgetSnapshot, now time.Time) bool {
	if snapshot.Date != now.In(s.cfg.Location).Format(dateLayout) {
		return true
	}
	return snapshot.RefreshAt != nil && !now.Before(*snapshot.RefreshAt)
}

// HandleJob refreshes the owner carried by a queued widget job.
func (s *WidgetService) HandleJob(ctx context.Context, job jobs.Job) error {
	ownerID, ok := job.Payload.(string)
	if !ok || ownerID == "" {
		return fmt.Errorf("widget job %s: unexpected payload %T", job.ID, job.Payload)
	}
	_, err := s.Refresh(ctx, ownerID)
	return err
}

func (s *WidgetService) compose(ctx context.Context, ownerID string) (*dto.WidgetSnapshot, error) {
	now := s.now().In(s.cfg.Location)
	agenda, _, err := s.agenda.Day(ctx, ownerID, now, "")
	if err != nil {
		return nil, err
	}

	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.cfg.Location)
	tasks, err := s.tasks.ListDueBetween(ctx, ownerID, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load due tasks")
	}
	due := make([]dto.WidgetTask, len(tasks))
	for i, task := range tasks {
		due[i] = dto.WidgetTask{
			ID:        task.ID,
			Title:     task.Title,
			DueDate:   task.DueDate,
			Priority:  task.Priority,
			IsFlagged: task.IsFlagged,
		}
	}

	return &dto.WidgetSnapshot{
		OwnerID:     ownerID,
		Date:        agenda.Date,
		GeneratedAt: now.UTC(),
		Current:     agenda.Current,
		Next:        agenda.Next,
		Remaining:   agenda.Remaining,
		TasksDue:    due,
		RefreshAt:   agenda.RefreshAt,
	}, nil
}
