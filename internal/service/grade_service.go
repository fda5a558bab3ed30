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

type gradeRepository interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.GradeEntry, error)
	FindByID(ctx context.Context, id string) (*models.GradeEntry, error)
	Create(ctx context.Context, grade *models.GradeEntry) error
	Delete(ctx context.Context, id string) error
}

// CreateGradeRequest records a grade. Weight defaults to 100 when omitted.
type CreateGradeRequest struct {
	Score       float64  `json:"score" validate:"gte=0"`
	Weight      *float64 `json:"weight" validate:"omitempty,gte=0"`
	Date        string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Description string   `json:"description" validate:"max=200"`
	IsExam      bool     `json:"is_exam"`
}

// GradeService manages grade entries of owned subjects.
type GradeService struct {
	grades    gradeRepository
	subjects  subjectFinder
	changes   ownerChangeListener
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewGradeService constructs the service.
func NewGradeService(grades gradeRepository, subjects subjectFinder, changes ownerChangeListener, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{grades: grades, subjects: subjects, changes: changes, validator: validate, logger: logger, now: time.Now}
}

// List returns a subject's grade history.
func (s *GradeService) List(ctx context.Context, ownerID, subjectID string) ([]models.GradeEntry, error) {
	if _, err := ownedSubject(ctx, s.subjects, ownerID, subjectID); err != nil {
		return nil, err
	}
	grades, err := s.grades.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// Create appends a grade entry to a subject.
func (s *GradeService) Create(ctx context.Context, ownerID, subjectID string, req CreateGradeRequest) (*models.GradeEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if _, err := ownedSubject(ctx, s.subjects, ownerID, subjectID); err != nil {
		return nil, err
	}

	grade := &models.GradeEntry{
		SubjectID:   subjectID,
		Score:       req.Score,
		Weight:      models.DefaultGradeWeight,
		Date:        s.now().UTC(),
		Description: strings.TrimSpace(req.Description),
		IsExam:      req.IsExam,
	}
	if req.Weight != nil {
		grade.Weight = *req.Weight
	}
	if req.Date != "" {
		grade.Date, _ = time.Parse("2006-01-02", req.Date)
	}

	if err := s.grades.Create(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade")
	}
	notifyOwner(ctx, s.changes, ownerID)
	return grade, nil
}

// Delete removes a grade entry of an owned subject.
func (s *GradeService) Delete(ctx context.Context, ownerID, id string) error {
	grade, err := s.grades.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	if _, err := ownedSubject(ctx, s.subjects, ownerID, grade.SubjectID); err != nil {
		return err
	}
	if err := s.grades.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade")
	}
	notifyOwner(ctx, s.changes, ownerID)
	return nil
}
