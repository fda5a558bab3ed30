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

type taskRepository interface {
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error)
	FindByID(ctx context.Context, id string) (*models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
}

// TaskRequest is the payload for creating or replacing a task.
type TaskRequest struct {
	Title          string     `json:"title" validate:"required,max=200"`
	Notes          string     `json:"notes" validate:"max=2000"`
	SubjectID      *string    `json:"subject_id" validate:"omitempty,min=1"`
	DueDate        *time.Time `json:"due_date"`
	Priority       string     `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	ReminderOffset *string    `json:"reminder_offset" validate:"omitempty,oneof=AT_DUE 5M 15M 30M 1H 1D 1W"`
	IsFlagged      bool       `json:"is_flagged"`
	IsCompleted    bool       `json:"is_completed"`
}

// TaskService manages an owner's to-do items.
type TaskService struct {
	tasks     taskRepository
	subjects  subjectFinder
	changes   ownerChangeListener
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTaskService constructs the service.
func NewTaskService(tasks taskRepository, subjects subjectFinder, changes ownerChangeListener, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{tasks: tasks, subjects: subjects, changes: changes, validator: validate, logger: logger}
}

// List returns the owner's tasks, open ones first.
func (s *TaskService) List(ctx context.Context, ownerID string, filter models.TaskFilter) ([]models.Task, *models.Pagination, error) {
	filter.OwnerID = ownerID
	tasks, total, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, pagination(filter.Page, filter.PageSize, total), nil
}

// Create adds a task.
func (s *TaskService) Create(ctx context.Context, ownerID string, req TaskRequest) (*models.Task, error) {
	task := &models.Task{OwnerID: ownerID}
	if err := s.apply(ctx, task, req); err != nil {
		return nil, err
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}
	notifyOwner(ctx, s.changes, ownerID)
	return task, nil
}

// Update replaces a task's fields.
func (s *TaskService) Update(ctx context.Context, ownerID, id string, req TaskRequest) (*models.Task, error) {
	task, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, task, req); err != nil {
		return nil, err
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}
	notifyOwner(ctx, s.changes, ownerID)
	return task, nil
}

// ToggleComplete flips the completion flag.
func (s *TaskService) ToggleComplete(ctx context.Context, ownerID, id string) (*models.Task, error) {
	task, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	task.IsCompleted = !task.IsCompleted
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}
	notifyOwner(ctx, s.changes, ownerID)
	return task, nil
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}
	notifyOwner(ctx, s.changes, ownerID)
	return nil
}

func (s *TaskService) owned(ctx context.Context, ownerID, id string) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	if task.OwnerID != ownerID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
	}
	return task, nil
}

func (s *TaskService) apply(ctx context.Context, task *models.Task, req TaskRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	if req.ReminderOffset != nil && req.DueDate == nil {
		return appErrors.Clone(appErrors.ErrValidation, "reminder_offset requires due_date")
	}

	task.SubjectID = nil
	if req.SubjectID != nil {
		if _, err := ownedSubject(ctx, s.subjects, task.OwnerID, *req.SubjectID); err != nil {
			return err
		}
		subjectID := *req.SubjectID
		task.SubjectID = &subjectID
	}

	task.Title = strings.TrimSpace(req.Title)
	task.Notes = strings.TrimSpace(req.Notes)
	task.DueDate = nil
	if req.DueDate != nil {
		due := req.DueDate.UTC()
		task.DueDate = &due
	}
	task.Priority = models.TaskPriority(req.Priority)
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}
	task.ReminderOffset = nil
	if req.ReminderOffset != nil {
		offset := models.ReminderOffset(*req.ReminderOffset)
		task.ReminderOffset = &offset
	}
	task.IsFlagged = req.IsFlagged
	task.IsCompleted = req.IsCompleted
	return nil
}
