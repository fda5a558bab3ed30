package models

import "time"

// DefaultGradeWeight is applied when a grade entry is created without a weight.
const DefaultGradeWeight = 100.0

// GradeEntry is one recorded grade for a subject.
type GradeEntry struct {
	ID          string    `db:"id" json:"id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	Score       float64   `db:"score" json:"score"`
	Weight      float64   `db:"weight" json:"weight"`
	Date        time.Time `db:"date" json:"date"`
	Description string    `db:"description" json:"description"`
	IsExam      bool      `db:"is_exam" json:"is_exam"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
