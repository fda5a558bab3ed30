package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-planner-api/internal/models"
)

const taskColumns = "id, owner_id, subject_id, title, notes, is_completed, due_date, priority, reminder_offset, is_flagged, created_at, updated_at"

// TaskRepository persists to-do items.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs the repository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns an owner's tasks matching the filter, open and soonest due first.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error) {
	conditions := []string{"owner_id = $1"}
	args := []interface{}{filter.OwnerID}

	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)))
	}
	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		conditions = append(conditions, fmt.Sprintf("is_completed = $%d", len(args)))
	}
	if filter.Flagged != nil {
		args = append(args, *filter.Flagged)
		conditions = append(conditions, fmt.Sprintf("is_flagged = $%d", len(args)))
	}
	if filter.DueBefore != nil {
		args = append(args, *filter.DueBefore)
		conditions = append(conditions, fmt.Sprintf("due_date < $%d", len(args)))
	}
	base := "FROM tasks WHERE " + strings.Join(conditions, " AND ")

	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY is_completed ASC, due_date ASC NULLS LAST, created_at ASC LIMIT %d OFFSET %d", taskColumns, base, size, offset)
	tasks := make([]models.Task, 0)
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}
	return tasks, total, nil
}

// ListDueBetween returns open tasks due in [from, to).
func (r *TaskRepository) ListDueBetween(ctx context.Context, ownerID string, from, to time.Time) ([]models.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE owner_id = $1 AND is_completed = FALSE AND due_date >= $2 AND due_date < $3 ORDER BY due_date ASC", taskColumns)
	tasks := make([]models.Task, 0)
	if err := r.db.SelectContext(ctx, &tasks, query, ownerID, from, to); err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}
	return tasks, nil
}

// CountOpenBySubject returns the number of incomplete tasks linked to a subject.
func (r *TaskRepository) CountOpenBySubject(ctx context.Context, subjectID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM tasks WHERE subject_id = $1 AND is_completed = FALSE`, subjectID); err != nil {
		return 0, fmt.Errorf("count open tasks: %w", err)
	}
	return count, nil
}

// FindByID returns a task by id.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE id = $1", taskColumns)
	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, err
	}
	return &task, nil
}

// Create inserts a task.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	const query = `INSERT INTO tasks (` + taskColumns + `) VALUES (:id, :owner_id, :subject_id, :title, :notes, :is_completed, :due_date, :priority, :reminder_offset, :is_flagged, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update overwrites a task's mutable fields.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tasks SET subject_id = :subject_id, title = :title, notes = :notes, is_completed = :is_completed,
due_date = :due_date, priority = :priority, reminder_offset = :reminder_offset, is_flagged = :is_flagged, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// Delete removes a task.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
