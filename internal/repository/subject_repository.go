package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-planner-api/internal/models"
)

const subjectColumns = `id, owner_id, title,
course_days, course_start, course_end, course_frequency, course_instructor, course_room,
seminar_days, seminar_start, seminar_end, seminar_frequency, seminar_instructor, seminar_room,
created_at, updated_at`

// subjectRow mirrors the subjects table. Meeting times are nullable so an
// unset time-of-day survives the round trip as the zero time.
type subjectRow struct {
	ID                string           `db:"id"`
	OwnerID           string           `db:"owner_id"`
	Title             string           `db:"title"`
	CourseDays        models.Weekdays  `db:"course_days"`
	CourseStart       sql.NullTime     `db:"course_start"`
	CourseEnd         sql.NullTime     `db:"course_end"`
	CourseFrequency   models.Frequency `db:"course_frequency"`
	CourseInstructor  string           `db:"course_instructor"`
	CourseRoom        string           `db:"course_room"`
	SeminarDays       models.Weekdays  `db:"seminar_days"`
	SeminarStart      sql.NullTime     `db:"seminar_start"`
	SeminarEnd        sql.NullTime     `db:"seminar_end"`
	SeminarFrequency  models.Frequency `db:"seminar_frequency"`
	SeminarInstructor string           `db:"seminar_instructor"`
	SeminarRoom       string           `db:"seminar_room"`
	CreatedAt         time.Time        `db:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at"`
}

func newSubjectRow(s *models.Subject) subjectRow {
	return subjectRow{
		ID:                s.ID,
		OwnerID:           s.OwnerID,
		Title:             s.Title,
		CourseDays:        nonNilDays(s.CourseDays),
		CourseStart:       nullTime(s.CourseStart),
		CourseEnd:         nullTime(s.CourseEnd),
		CourseFrequency:   defaultFrequency(s.CourseFrequency),
		CourseInstructor:  s.CourseInstructor,
		CourseRoom:        s.CourseRoom,
		SeminarDays:       nonNilDays(s.SeminarDays),
		SeminarStart:      nullTime(s.SeminarStart),
		SeminarEnd:        nullTime(s.SeminarEnd),
		SeminarFrequency:  defaultFrequency(s.SeminarFrequency),
		SeminarInstructor: s.SeminarInstructor,
		SeminarRoom:       s.SeminarRoom,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

func (r subjectRow) toModel() models.Subject {
	return models.Subject{
		ID:                r.ID,
		OwnerID:           r.OwnerID,
		Title:             r.Title,
		CourseDays:        r.CourseDays,
		CourseStart:       r.CourseStart.Time,
		CourseEnd:         r.CourseEnd.Time,
		CourseFrequency:   r.CourseFrequency,
		CourseInstructor:  r.CourseInstructor,
		CourseRoom:        r.CourseRoom,
		SeminarDays:       r.SeminarDays,
		SeminarStart:      r.SeminarStart.Time,
		SeminarEnd:        r.SeminarEnd.Time,
		SeminarFrequency:  r.SeminarFrequency,
		SeminarInstructor: r.SeminarInstructor,
		SeminarRoom:       r.SeminarRoom,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nonNilDays(days models.Weekdays) models.Weekdays {
	if days == nil {
		return models.Weekdays{}
	}
	return days
}

func defaultFrequency(f models.Frequency) models.Frequency {
	if f == "" {
		return models.FrequencyWeekly
	}
	return f
}

func toSubjects(rows []subjectRow) []models.Subject {
	subjects := make([]models.Subject, len(rows))
	for i, row := range rows {
		subjects[i] = row.toModel()
	}
	return subjects
}

// SubjectRepository handles persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns an owner's subjects matching filters with the total count.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	base := "FROM subjects WHERE owner_id = $1"
	args := []interface{}{filter.OwnerID}

	if filter.Search != "" {
		base += fmt.Sprintf(" AND LOWER(title) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"title":      true,
		"created_at": true,
		"updated_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "title"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, id ASC LIMIT %d OFFSET %d", subjectColumns, base, sortBy, order, size, offset)
	var rows []subjectRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}

	return toSubjects(rows), total, nil
}

// ListByOwner returns every subject of an owner, for agenda building.
func (r *SubjectRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Subject, error) {
	query := fmt.Sprintf("SELECT %s FROM subjects WHERE owner_id = $1 ORDER BY id", subjectColumns)
	var rows []subjectRow
	if err := r.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("list owner subjects: %w", err)
	}
	return toSubjects(rows), nil
}

const listOwnersQuery = `SELECT owner_id FROM subjects
UNION
SELECT owner_id FROM tasks
ORDER BY owner_id`

// ListOwners returns the distinct owners that have at least one subject or task.
func (r *SubjectRepository) ListOwners(ctx context.Context) ([]string, error) {
	owners := make([]string, 0)
	if err := r.db.SelectContext(ctx, &owners, listOwnersQuery); err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	return owners, nil
}

// FindByID returns a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	query := fmt.Sprintf("SELECT %s FROM subjects WHERE id = $1", subjectColumns)
	var row subjectRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	subject := row.toModel()
	return &subject, nil
}

// Create persists a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now

	const query = `INSERT INTO subjects (` + subjectColumns + `) VALUES (:id, :owner_id, :title,
:course_days, :course_start, :course_end, :course_frequency, :course_instructor, :course_room,
:seminar_days, :seminar_start, :seminar_end, :seminar_frequency, :seminar_instructor, :seminar_room,
:created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, newSubjectRow(subject)); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update replaces the title and both meeting patterns.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects SET title = :title,
course_days = :course_days, course_start = :course_start, course_end = :course_end, course_frequency = :course_frequency,
course_instructor = :course_instructor, course_room = :course_room,
seminar_days = :seminar_days, seminar_start = :seminar_start, seminar_end = :seminar_end, seminar_frequency = :seminar_frequency,
seminar_instructor = :seminar_instructor, seminar_room = :seminar_room, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, newSubjectRow(subject)); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

// Delete removes a subject together with its grades, attendance and tasks.
// It returns sql.ErrNoRows when the subject does not exist.
func (r *SubjectRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete subject: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"grade_entries", "attendance_entries", "tasks"} {
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE subject_id = $1", table), id); err != nil {
			return fmt.Errorf("delete subject %s: %w", table, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete subject rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete subject: %w", err)
	}
	return nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
