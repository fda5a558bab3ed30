package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Frequency describes how often a meeting repeats relative to the week counter.
type Frequency string

const (
	FrequencyWeekly       Frequency = "WEEKLY"
	FrequencyBiweeklyOdd  Frequency = "BIWEEKLY_ODD"
	FrequencyBiweeklyEven Frequency = "BIWEEKLY_EVEN"
)

// Valid returns true when the frequency is a supported value.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweeklyOdd, FrequencyBiweeklyEven:
		return true
	default:
		return false
	}
}

// Weekday numbers days 1 = Sunday through 7 = Saturday.
type Weekday int

const (
	Sunday Weekday = iota + 1
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// Valid reports whether the weekday is inside 1..7.
func (d Weekday) Valid() bool {
	return d >= Sunday && d <= Saturday
}

// Weekdays is a set of meeting days stored as a smallint[] column.
type Weekdays []Weekday

// Contains reports whether day is part of the set.
func (w Weekdays) Contains(day Weekday) bool {
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer.
func (w Weekdays) Value() (driver.Value, error) {
	raw := make(pq.Int64Array, len(w))
	for i, d := range w {
		raw[i] = int64(d)
	}
	return raw.Value()
}

// Scan implements sql.Scanner.
func (w *Weekdays) Scan(src interface{}) error {
	var raw pq.Int64Array
	if err := raw.Scan(src); err != nil {
		return fmt.Errorf("scan weekdays: %w", err)
	}
	days := make(Weekdays, len(raw))
	for i, d := range raw {
		days[i] = Weekday(d)
	}
	*w = days
	return nil
}

// MeetingKind distinguishes the two weekly patterns a subject may carry.
type MeetingKind string

const (
	MeetingKindCourse  MeetingKind = "course"
	MeetingKindSeminar MeetingKind = "seminar"
)

// Meeting is one weekly meeting pattern. Only the hour and minute of
// StartTime/EndTime are meaningful.
type Meeting struct {
	DaysOfWeek Weekdays  `json:"days_of_week"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Frequency  Frequency `json:"frequency"`
	Instructor string    `json:"instructor"`
	Room       string    `json:"room"`
}

// Subject represents a course with optional course and seminar meetings.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	CourseDays       Weekdays  `db:"course_days" json:"-"`
	CourseStart      time.Time `db:"course_start" json:"-"`
	CourseEnd        time.Time `db:"course_end" json:"-"`
	CourseFrequency  Frequency `db:"course_frequency" json:"-"`
	CourseInstructor string    `db:"course_instructor" json:"-"`
	CourseRoom       string    `db:"course_room" json:"-"`

	SeminarDays       Weekdays  `db:"seminar_days" json:"-"`
	SeminarStart      time.Time `db:"seminar_start" json:"-"`
	SeminarEnd        time.Time `db:"seminar_end" json:"-"`
	SeminarFrequency  Frequency `db:"seminar_frequency" json:"-"`
	SeminarInstructor string    `db:"seminar_instructor" json:"-"`
	SeminarRoom       string    `db:"seminar_room" json:"-"`
}

// Course returns the course meeting pattern.
func (s Subject) Course() Meeting {
	return Meeting{
		DaysOfWeek: s.CourseDays,
		StartTime:  s.CourseStart,
		EndTime:    s.CourseEnd,
		Frequency:  s.CourseFrequency,
		Instructor: s.CourseInstructor,
		Room:       s.CourseRoom,
	}
}

// Seminar returns the seminar meeting pattern.
func (s Subject) Seminar() Meeting {
	return Meeting{
		DaysOfWeek: s.SeminarDays,
		StartTime:  s.SeminarStart,
		EndTime:    s.SeminarEnd,
		Frequency:  s.SeminarFrequency,
		Instructor: s.SeminarInstructor,
		Room:       s.SeminarRoom,
	}
}

// SetCourse copies a meeting pattern into the course columns.
func (s *Subject) SetCourse(m Meeting) {
	s.CourseDays = m.DaysOfWeek
	s.CourseStart = m.StartTime
	s.CourseEnd = m.EndTime
	s.CourseFrequency = m.Frequency
	s.CourseInstructor = m.Instructor
	s.CourseRoom = m.Room
}

// SetSeminar copies a meeting pattern into the seminar columns.
func (s *Subject) SetSeminar(m Meeting) {
	s.SeminarDays = m.DaysOfWeek
	s.SeminarStart = m.StartTime
	s.SeminarEnd = m.EndTime
	s.SeminarFrequency = m.Frequency
	s.SeminarInstructor = m.Instructor
	s.SeminarRoom = m.Room
}

// KindedMeeting pairs a meeting with its kind.
type KindedMeeting struct {
	Kind    MeetingKind
	Meeting Meeting
}

// Meetings returns course then seminar.
func (s Subject) Meetings() []KindedMeeting {
	return []KindedMeeting{
		{Kind: MeetingKindCourse, Meeting: s.Course()},
		{Kind: MeetingKindSeminar, Meeting: s.Seminar()},
	}
}

// ClockLayout is the wire format for meeting times.
const ClockLayout = "15:04"

// MeetingView renders a meeting with HH:MM times. Unset times render empty.
type MeetingView struct {
	DaysOfWeek Weekdays  `json:"days_of_week"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	Frequency  Frequency `json:"frequency"`
	Instructor string    `json:"instructor"`
	Room       string    `json:"room"`
}

// View formats the meeting for API responses.
func (m Meeting) View() MeetingView {
	days := m.DaysOfWeek
	if days == nil {
		days = Weekdays{}
	}
	return MeetingView{
		DaysOfWeek: days,
		StartTime:  formatClock(m.StartTime),
		EndTime:    formatClock(m.EndTime),
		Frequency:  m.Frequency,
		Instructor: m.Instructor,
		Room:       m.Room,
	}
}

func formatClock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(ClockLayout)
}

// SubjectView is the API representation of a subject.
type SubjectView struct {
	ID        string      `json:"id"`
	OwnerID   string      `json:"owner_id"`
	Title     string      `json:"title"`
	Course    MeetingView `json:"course"`
	Seminar   MeetingView `json:"seminar"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// View converts the flat row into its nested API shape.
func (s Subject) View() SubjectView {
	return SubjectView{
		ID:        s.ID,
		OwnerID:   s.OwnerID,
		Title:     s.Title,
		Course:    s.Course().View(),
		Seminar:   s.Seminar().View(),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	OwnerID   string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
