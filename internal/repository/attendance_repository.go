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

const attendanceColumns = "id, subject_id, date, status, note, created_at"

// AttendanceRepository persists attendance entries.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListBySubject returns a subject's attendance, newest first.
func (r *AttendanceRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.AttendanceEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_entries WHERE subject_id = $1 ORDER BY date DESC, created_at DESC", attendanceColumns)
	entries := make([]models.AttendanceEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query, subjectID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return entries, nil
}

// ListBySubjects returns attendance of several subjects grouped by subject id.
func (r *AttendanceRepository) ListBySubjects(ctx context.Context, subjectIDs []string) (map[string][]models.AttendanceEntry, error) {
	result := make(map[string][]models.AttendanceEntry, len(subjectIDs))
	if len(subjectIDs) == 0 {
		return result, nil
	}
	query := fmt.Sprintf("SELECT %s FROM attendance_entries WHERE subject_id = ANY($1) ORDER BY date DESC", attendanceColumns)
	var entries []models.AttendanceEntry
	if err := r.db.SelectContext(ctx, &entries, query, pq.Array(subjectIDs)); err != nil {
		return nil, fmt.Errorf("list attendance by subjects: %w", err)
	}
	for _, e := range entries {
		result[e.SubjectID] = append(result[e.SubjectID], e)
	}
	return result, nil
}

// FindByID returns an attendance entry by id.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.AttendanceEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_entries WHERE id = $1", attendanceColumns)
	var entry models.AttendanceEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create inserts an attendance entry.
func (r *AttendanceRepository) Create(ctx context.Context, entry *models.AttendanceEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendance_entries (` + attendanceColumns + `) VALUES (:id, :subject_id, :date, :status, :note, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// Delete removes an attendance entry.
func (r *AttendanceRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM attendance_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	return nil
}
