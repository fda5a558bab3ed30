package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-planner-api/internal/dto"
	"github.com/noah-isme/student-planner-api/internal/models"
	"github.com/noah-isme/student-planner-api/internal/planner"
	"github.com/noah-isme/student-planner-api/pkg/config"
	appErrors "github.com/noah-isme/student-planner-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type subjectLister interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Subject, error)
}

type weekResolver interface {
	WeekNumber(ctx context.Context, date time.Time) (*int, error)
}

// ParseAgendaMode validates a recurrence mode, returning fallback for an empty value.
func ParseAgendaMode(raw, fallback string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(raw))
	if mode == "" {
		mode = fallback
	}
	switch mode {
	case config.AgendaModeAcademic, config.AgendaModeDate:
		return mode, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "mode must be academic or date")
	}
}

// AgendaServiceConfig tunes agenda building.
type AgendaServiceConfig struct {
	CacheTTL    time.Duration
	DefaultMode string
	Location    *time.Location
}

// AgendaServiceParams groups constructor dependencies.
type AgendaServiceParams struct {
	Subjects subjectLister
	Calendar weekResolver
	Cache    *CacheService
	Metrics  *MetricsService
	Logger   *zap.Logger
	Config   AgendaServiceConfig
}

// AgendaService expands an owner's subjects into day agendas and classifies
// them against the clock.
type AgendaService struct {
	subjects subjectLister
	calendar weekResolver
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      AgendaServiceConfig
	now      func() time.Time
}

// NewAgendaService constructs an AgendaService with sane defaults.
func NewAgendaService(params AgendaServiceParams) *AgendaService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = config.AgendaModeAcademic
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgendaService{
		subjects: params.Subjects,
		calendar: params.Calendar,
		cache:    params.Cache,
		metrics:  params.Metrics,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Location returns the zone agendas are built in.
func (s *AgendaService) Location() *time.Location {
	return s.cfg.Location
}

// DefaultMode returns the mode used when a caller passes none.
func (s *AgendaService) DefaultMode() string {
	return s.cfg.DefaultMode
}

// Day returns the agenda of date classified against the current time. The
// bool reports whether the expanded day came from cache.
func (s *AgendaService) Day(ctx context.Context, ownerID string, date time.Time, mode string) (*dto.AgendaResponse, bool, error) {
	day, hit, err := s.BuildDay(ctx, ownerID, date, mode)
	if err != nil {
		return nil, false, err
	}
	return classifyDay(day, s.now().In(s.cfg.Location)), hit, nil
}

// Now returns today's agenda at the current time.
func (s *AgendaService) Now(ctx context.Context, ownerID, mode string) (*dto.AgendaResponse, bool, error) {
	return s.Day(ctx, ownerID, s.now(), mode)
}

// CurrentOccurrence returns the class in progress for the owner in the default mode.
func (s *AgendaService) CurrentOccurrence(ctx context.Context, ownerID string) (*models.Occurrence, error) {
	agenda, _, err := s.Now(ctx, ownerID, "")
	if err != nil {
		return nil, err
	}
	if agenda.Current == nil {
		return nil, appErrors.Clone(appErrors.ErrNoActiveClass, "no class is in progress")
	}
	return agenda.Current, nil
}

// BuildDay expands the owner's subjects into the occurrences of date. In
// academic mode the week number comes from the calendar and a date outside
// every term yields an empty day. Date mode uses ISO week parity. Meetings of
// the previous day that run past midnight lead the list.
func (s *AgendaService) BuildDay(ctx context.Context, ownerID string, date time.Time, mode string) (*dto.AgendaDay, bool, error) {
	if ownerID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "owner is required")
	}
	mode, err := ParseAgendaMode(mode, s.cfg.DefaultMode)
	if err != nil {
		return nil, false, err
	}

	local := date.In(s.cfg.Location)
	dateKey := local.Format(dateLayout)
	key := CacheKey("agenda", ownerID, dateKey, mode)
	if day, hit := s.tryCache(ctx, key); hit {
		return day, true, nil
	}

	subjects, err := s.subjects.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}

	start := time.Now()
	day := &dto.AgendaDay{
		OwnerID:          ownerID,
		Date:             dateKey,
		Mode:             mode,
		CalendarResolved: true,
		Timezone:         s.cfg.Location.String(),
	}
	var skipped []planner.SkippedMeeting
	if mode == config.AgendaModeAcademic {
		week, err := s.calendar.WeekNumber(ctx, local)
		if err != nil {
			return nil, false, err
		}
		day.WeekNumber = week
		day.CalendarResolved = week != nil
		day.Occurrences, skipped = planner.BuildAcademicAgenda(subjects, local, week, s.cfg.Location)
	} else {
		day.Occurrences, skipped = planner.BuildAgenda(subjects, local, nil, s.cfg.Location)
	}
	spilled, err := s.spillover(ctx, subjects, local, mode)
	if err != nil {
		return nil, false, err
	}
	if len(spilled) > 0 {
		day.Occurrences = append(spilled, day.Occurrences...)
	}
	s.metrics.ObserveAgendaBuild(time.Since(start))

	for _, sk := range skipped {
		s.metrics.RecordSkippedMeeting(sk.Kind)
		s.logger.Warn("meeting skipped",
			zap.String("owner_id", ownerID),
			zap.String("subject_id", sk.SubjectID),
			zap.String("kind", string(sk.Kind)),
			zap.String("date", dateKey),
			zap.Error(sk.Err),
		)
	}
	day.SkippedMeetings = len(skipped)
	day.BuiltAt = s.now().UTC()

	s.persistCache(ctx, key, day)
	return day, false, nil
}

// spillover returns the previous day's meetings that run past midnight into
// local. Skipped meetings of the previous day are reported on that day only.
func (s *AgendaService) spillover(ctx context.Context, subjects []models.Subject, local time.Time, mode string) ([]models.Occurrence, error) {
	prev := local.AddDate(0, 0, -1)
	if !planner.HasOvernight(subjects, planner.WeekdayOf(prev, s.cfg.Location)) {
		return nil, nil
	}
	var occurrences []models.Occurrence
	if mode == config.AgendaModeAcademic {
		week, err := s.calendar.WeekNumber(ctx, prev)
		if err != nil {
			return nil, err
		}
		occurrences, _ = planner.BuildAcademicAgenda(subjects, prev, week, s.cfg.Location)
	} else {
		occurrences, _ = planner.BuildAgenda(subjects, prev, nil, s.cfg.Location)
	}
	return planner.SpillInto(occurrences, local, s.cfg.Location), nil
}

func (s *AgendaService) tryCache(ctx context.Context, key string) (*dto.AgendaDay, bool) {
	if s.cache == nil {
		return nil, false
	}
	var cached dto.AgendaDay
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil || !hit {
		return nil, false
	}
	return &cached, true
}

func (s *AgendaService) persistCache(ctx context.Context, key string, day *dto.AgendaDay) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, day, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("agenda cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func classifyDay(day *dto.AgendaDay, now time.Time) *dto.AgendaResponse {
	c := planner.Classify(day.Occurrences, now)
	occurrences := make([]dto.AgendaOccurrence, len(day.Occurrences))
	for i, occ := range day.Occurrences {
		occurrences[i] = dto.AgendaOccurrence{Occurrence: occ, State: string(planner.StateOf(occ, now))}
	}
	resp := &dto.AgendaResponse{
		OwnerID:          day.OwnerID,
		Date:             day.Date,
		Mode:             day.Mode,
		WeekNumber:       day.WeekNumber,
		CalendarResolved: day.CalendarResolved,
		Timezone:         day.Timezone,
		Now:              now,
		Occurrences:      occurrences,
		Current:          c.Current,
		Next:             c.Next,
		Remaining:        c.Remaining,
		SkippedMeetings:  day.SkippedMeetings,
	}
	if at, ok := planner.NextBoundary(day.Occurrences, now); ok {
		resp.RefreshAt = &at
	}
	return resp
}

func agendaCachePattern(ownerID string) string {
	return CacheKey("agenda", ownerID, "*")
}
