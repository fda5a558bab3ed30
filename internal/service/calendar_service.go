package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/student-planner-api/internal/models"
	"github.com/noah-isme/student-planner-api/internal/planner"
	appErrors "github.com/noah-isme/student-planner-api/pkg/errors"
)

type termRepository interface {
	List(ctx context.Context) ([]models.Term, error)
	FindByID(ctx context.Context, id string) (*models.Term, error)
	FindContaining(ctx context.Context, day time.Time) (*models.Term, error)
	Overlaps(ctx context.Context, start, end time.Time, excludeID string) (bool, error)
	Create(ctx context.Context, term *models.Term) error
	SetActive(ctx context.Context, id string) error
}

// CreateTermRequest defines a new academic term.
type CreateTermRequest struct {
	Name      string `json:"name" validate:"required,max=80"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Activate  bool   `json:"activate"`
}

// CalendarService is the academic calendar: it owns terms and answers which
// teaching week a date belongs to.
type CalendarService struct {
	terms        termRepository
	cache        *CacheService
	activeTermID string
	loc          *time.Location
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewCalendarService constructs the service. A non-empty activeTermID pins
// week numbering to that term instead of looking the term up by date. Cached
// agendas are dropped whenever the term layout changes.
func NewCalendarService(terms termRepository, cache *CacheService, activeTermID string, loc *time.Location, validate *validator.Validate, logger *zap.Logger) *CalendarService {
	if loc == nil {
		loc = time.Local
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{terms: terms, cache: cache, activeTermID: activeTermID, loc: loc, validator: validate, logger: logger}
}

// Location returns the zone used for calendar days.
func (s *CalendarService) Location() *time.Location {
	return s.loc
}

// WeekNumber returns the teaching week of date, or nil when no term covers it.
func (s *CalendarService) WeekNumber(ctx context.Context, date time.Time) (*int, error) {
	day := civilDate(date.In(s.loc))

	var (
		term *models.Term
		err  error
	)
	if s.activeTermID != "" {
		term, err = s.terms.FindByID(ctx, s.activeTermID)
	} else {
		term, err = s.terms.FindContaining(ctx, day)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if s.activeTermID != "" {
				s.logger.Warn("configured active term not found", zap.String("term_id", s.activeTermID))
			}
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve academic term")
	}
	if !term.Contains(day) {
		return nil, nil
	}

	y, m, d := term.StartDate.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	week, ok := planner.AcademicWeek(start, date, s.loc)
	if !ok {
		return nil, nil
	}
	return &week, nil
}

// List returns every term.
func (s *CalendarService) List(ctx context.Context) ([]models.Term, error) {
	terms, err := s.terms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}
	return terms, nil
}

// Create adds a term. Terms may not overlap.
func (s *CalendarService) Create(ctx context.Context, req CreateTermRequest) (*models.Term, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term payload")
	}
	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}

	overlaps, err := s.terms.Overlaps(ctx, start, end, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check term overlap")
	}
	if overlaps {
		return nil, appErrors.Clone(appErrors.ErrConflict, "term overlaps an existing term")
	}

	term := &models.Term{Name: strings.TrimSpace(req.Name), StartDate: start, EndDate: end}
	if err := s.terms.Create(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create term")
	}
	if req.Activate {
		if err := s.terms.SetActive(ctx, term.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate term")
		}
		term.IsActive = true
	}
	if err := s.cache.Invalidate(ctx, CacheKey("agenda", "*")); err != nil {
		s.logger.Warn("agenda cache invalidation failed", zap.String("term_id", term.ID), zap.Error(err))
	}
	s.logger.Info("term created", zap.String("term_id", term.ID), zap.Bool("active", term.IsActive))
	return term, nil
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
