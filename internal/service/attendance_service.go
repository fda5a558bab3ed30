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
	appErrors "github.com/noah-isme/student-planner-api/pkg/errors"
)

type attendanceRepository interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.AttendanceEntry, error)
	FindByID(ctx context.Context, id string) (*models.AttendanceEntry, error)
	Create(ctx context.Context, entry *models.AttendanceEntry) error
	Delete(ctx context.Context, id string) error
}

type currentClassFinder interface {
	CurrentOccurrence(ctx context.Context, ownerID string) (*models.Occurrence, error)
}

// RecordAttendanceRequest records an attendance outcome. Date defaults to today.
type RecordAttendanceRequest struct {
	Status string  `json:"status" validate:"required,oneof=PRESENT ABSENT LATE EXCUSED"`
	Date   string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Note   *string `json:"note" validate:"omitempty,max=500"`
}

// MarkCurrentRequest records attendance for whatever class is in progress.
type MarkCurrentRequest struct {
	Status string  `json:"status" validate:"required,oneof=PRESENT ABSENT LATE EXCUSED"`
	Note   *string `json:"note" validate:"omitempty,max=500"`
}

// MarkCurrentResult pairs the stored entry with the class it was recorded for.
type MarkCurrentResult struct {
	Entry      *models.AttendanceEntry `json:"entry"`
	Occurrence models.Occurrence       `json:"occurrence"`
}

// AttendanceService manages attendance of owned subjects.
type AttendanceService struct {
	entries   attendanceRepository
	subjects  subjectFinder
	current   currentClassFinder
	validator *validator.Validate
	logger    *zap.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewAttendanceService constructs the service.
func NewAttendanceService(entries attendanceRepository, subjects subjectFinder, current currentClassFinder, loc *time.Location, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &AttendanceService{entries: entries, subjects: subjects, current: current, validator: validate, logger: logger, loc: loc, now: time.Now}
}

// List returns a subject's attendance history, newest first.
func (s *AttendanceService) List(ctx context.Context, ownerID, subjectID string) ([]models.AttendanceEntry, error) {
	if _, err := ownedSubject(ctx, s.subjects, ownerID, subjectID); err != nil {
		return nil, err
	}
	entries, err := s.entries.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return entries, nil
}

// Record stores an attendance outcome for a subject.
func (s *AttendanceService) Record(ctx context.Context, ownerID, subjectID string, req RecordAttendanceRequest) (*models.AttendanceEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if _, err := ownedSubject(ctx, s.subjects, ownerID, subjectID); err != nil {
		return nil, err
	}

	date := civilDate(s.now().In(s.loc))
	if req.Date != "" {
		date, _ = time.Parse(dateLayout, req.Date)
	}
	return s.store(ctx, subjectID, date, models.AttendanceStatus(req.Status), req.Note)
}

// MarkCurrent records attendance for the class in progress. It fails with
// NO_ACTIVE_CLASS when nothing is running.
func (s *AttendanceService) MarkCurrent(ctx context.Context, ownerID string, req MarkCurrentRequest) (*MarkCurrentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	occ, err := s.current.CurrentOccurrence(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	entry, err := s.store(ctx, occ.SubjectID, civilDate(occ.StartAt.In(s.loc)), models.AttendanceStatus(req.Status), req.Note)
	if err != nil {
		return nil, err
	}
	s.logger.Info("attendance marked for current class",
		zap.String("owner_id", ownerID),
		zap.String("subject_id", occ.SubjectID),
		zap.String("kind", string(occ.Kind)),
		zap.String("status", req.Status),
	)
	return &MarkCurrentResult{Entry: entry, Occurrence: *occ}, nil
}

// Delete removes an attendance entry of an owned subject.
func (s *AttendanceService) Delete(ctx context.Context, ownerID, id string) error {
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "attendance entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance entry")
	}
	if _, err := ownedSubject(ctx, s.subjects, ownerID, entry.SubjectID); err != nil {
		return err
	}
	if err := s.entries.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance entry")
	}
	return nil
}

func (s *AttendanceService) store(ctx context.Context, subjectID string, date time.Time, status models.AttendanceStatus, note *string) (*models.AttendanceEntry, error) {
	entry := &models.AttendanceEntry{SubjectID: subjectID, Date: date, Status: status}
	if note != nil {
		trimmed := strings.TrimSpace(*note)
		if trimmed != "" {
			entry.Note = &trimmed
		}
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	return entry, nil
}
