package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/student-planner-api/internal/models"
)

const gradeColumns = "id, subject_id, score, weight, date, description, is_exam, created_at"

// GradeRepository persists grade entries.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// ListBySubject returns a subject's grades in insertion order.
func (r *GradeRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.GradeEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM grade_entries WHERE subject_id = $1 ORDER BY created_at ASC, id ASC", gradeColumns)
	grades := make([]models.GradeEntry, 0)
	if err := r.db.SelectContext(ctx, &grades, query, subjectID); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// ListBySubjects returns grades of several subjects grouped by subject id.
func (r *GradeRepository) ListBySubjects(ctx context.Context, subjectIDs []string) (map[string][]models.GradeEntry, error) {
	result := make(map[string][]models.GradeEntry, len(subjectIDs))
	if len(subjectIDs) == 0 {
		return result, nil
	}
	query := fmt.Sprintf("SELECT %s FROM grade_entries WHERE subject_id = ANY($1) ORDER BY created_at ASC, id ASC", gradeColumns)
	var grades []models.GradeEntry
	if err := r.db.SelectContext(ctx, &grades, query, pq.Array(subjectIDs)); err != nil {
		return nil, fmt.Errorf("list grades by subjects: %w", err)
	}
	for _, g := range grades {
		result[g.SubjectID] = append(result[g.SubjectID], g)
	}
	return result, nil
}

// FindByID returns a grade entry by id.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.GradeEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM grade_entries WHERE id = $1", gradeColumns)
	var grade models.GradeEntry
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Create inserts a grade entry.
func (r *GradeRepository) Create(ctx context.Context, grade *models.GradeEntry) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO grade_entries (` + gradeColumns + `) VALUES (:id, :subject_id, :score, :weight, :date, :description, :is_exam, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// Delete removes a grade entry.
func (r *GradeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM grade_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}
	return nil
}
