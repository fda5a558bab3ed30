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

type subjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type subjectRepository interface {
	subjectFinder
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

// MeetingRequest describes one weekly meeting pattern. Leaving DaysOfWeek
// empty means the subject has no such meeting.
type MeetingRequest struct {
	DaysOfWeek []int  `json:"days_of_week" validate:"omitempty,unique,dive,min=1,max=7"`
	StartTime  string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime    string `json:"end_time" validate:"omitempty,datetime=15:04"`
	Frequency  string `json:"frequency" validate:"omitempty,oneof=WEEKLY BIWEEKLY_ODD BIWEEKLY_EVEN"`
	Instructor string `json:"instructor" validate:"max=120"`
	Room       string `json:"room" validate:"max=60"`
}

// SubjectRequest is the payload for creating or replacing a subject.
type SubjectRequest struct {
	Title   string         `json:"title" validate:"required,max=120"`
	Course  MeetingRequest `json:"course"`
	Seminar MeetingRequest `json:"seminar"`
}

// SubjectService handles subject workflows for a single owner.
type SubjectService struct {
	repo      subjectRepository
	changes   ownerChangeListener
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService creates a new subject service.
func NewSubjectService(repo subjectRepository, changes ownerChangeListener, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, changes: changes, validator: validate, logger: logger}
}

// List returns the owner's subjects page by page.
func (s *SubjectService) List(ctx context.Context, ownerID string, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	filter.OwnerID = ownerID
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a subject the owner holds.
func (s *SubjectService) Get(ctx context.Context, ownerID, id string) (*models.Subject, error) {
	return ownedSubject(ctx, s.repo, ownerID, id)
}

// Create adds a subject.
func (s *SubjectService) Create(ctx context.Context, ownerID string, req SubjectRequest) (*models.Subject, error) {
	subject := &models.Subject{OwnerID: ownerID}
	if err := s.apply(subject, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	s.logger.Info("subject created", zap.String("subject_id", subject.ID), zap.String("owner_id", ownerID))
	notifyOwner(ctx, s.changes, ownerID)
	return subject, nil
}

// Update replaces title and meetings of an existing subject.
func (s *SubjectService) Update(ctx context.Context, ownerID, id string, req SubjectRequest) (*models.Subject, error) {
	subject, err := ownedSubject(ctx, s.repo, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(subject, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	notifyOwner(ctx, s.changes, ownerID)
	return subject, nil
}

// Delete removes a subject along with its grades, attendance and tasks.
func (s *SubjectService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := ownedSubject(ctx, s.repo, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	s.logger.Info("subject deleted", zap.String("subject_id", id), zap.String("owner_id", ownerID))
	notifyOwner(ctx, s.changes, ownerID)
	return nil
}

func (s *SubjectService) apply(subject *models.Subject, req SubjectRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	course, err := req.Course.toMeeting("course")
	if err != nil {
		return err
	}
	seminar, err := req.Seminar.toMeeting("seminar")
	if err != nil {
		return err
	}
	subject.Title = strings.TrimSpace(req.Title)
	subject.SetCourse(course)
	subject.SetSeminar(seminar)
	return nil
}

func (r MeetingRequest) toMeeting(kind string) (models.Meeting, error) {
	meeting := models.Meeting{
		Frequency:  models.Frequency(r.Frequency),
		Instructor: strings.TrimSpace(r.Instructor),
		Room:       strings.TrimSpace(r.Room),
	}
	if meeting.Frequency == "" {
		meeting.Frequency = models.FrequencyWeekly
	}
	if len(r.DaysOfWeek) == 0 {
		meeting.DaysOfWeek = models.Weekdays{}
		return meeting, nil
	}
	if r.StartTime == "" || r.EndTime == "" {
		return meeting, appErrors.Clone(appErrors.ErrValidation, kind+" start_time and end_time are required when days are set")
	}
	if r.StartTime == r.EndTime {
		return meeting, appErrors.Clone(appErrors.ErrValidation, kind+" end_time must differ from start_time")
	}

	meeting.DaysOfWeek = make(models.Weekdays, len(r.DaysOfWeek))
	for i, d := range r.DaysOfWeek {
		meeting.DaysOfWeek[i] = models.Weekday(d)
	}
	// validator already checked the layout
	meeting.StartTime, _ = time.Parse(models.ClockLayout, r.StartTime)
	meeting.EndTime, _ = time.Parse(models.ClockLayout, r.EndTime)
	return meeting, nil
}

func ownedSubject(ctx context.Context, repo subjectFinder, ownerID, id string) (*models.Subject, error) {
	subject, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if subject.OwnerID != ownerID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	return subject, nil
}

func pagination(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
