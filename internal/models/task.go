package models

import "time"

// TaskPriority ranks tasks for display.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

// ReminderOffset enumerates the lead times a reminder may fire before a due date.
type ReminderOffset string

const (
	ReminderAtDue   ReminderOffset = "AT_DUE"
	ReminderFiveMin ReminderOffset = "5M"
	ReminderFifteen ReminderOffset = "15M"
	ReminderThirty  ReminderOffset = "30M"
	ReminderOneHour ReminderOffset = "1H"
	ReminderOneDay  ReminderOffset = "1D"
	ReminderOneWeek ReminderOffset = "1W"
)

var reminderDurations = map[ReminderOffset]time.Duration{
	ReminderAtDue:   0,
	ReminderFiveMin: 5 * time.Minute,
	ReminderFifteen: 15 * time.Minute,
	ReminderThirty:  30 * time.Minute,
	ReminderOneHour: time.Hour,
	ReminderOneDay:  24 * time.Hour,
	ReminderOneWeek: 7 * 24 * time.Hour,
}

// Duration returns the lead time and whether the offset is known.
func (o ReminderOffset) Duration() (time.Duration, bool) {
	d, ok := reminderDurations[o]
	return d, ok
}

// Task is a to-do item optionally linked to a subject.
type Task struct {
	ID             string          `db:"id" json:"id"`
	OwnerID        string          `db:"owner_id" json:"owner_id"`
	SubjectID      *string         `db:"subject_id" json:"subject_id,omitempty"`
	Title          string          `db:"title" json:"title"`
	Notes          string          `db:"notes" json:"notes"`
	IsCompleted    bool            `db:"is_completed" json:"is_completed"`
	DueDate        *time.Time      `db:"due_date" json:"due_date,omitempty"`
	Priority       TaskPriority    `db:"priority" json:"priority"`
	ReminderOffset *ReminderOffset `db:"reminder_offset" json:"reminder_offset,omitempty"`
	IsFlagged      bool            `db:"is_flagged" json:"is_flagged"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// ReminderAt returns when the reminder should fire, if the task has one.
func (t Task) ReminderAt() *time.Time {
	if t.DueDate == nil || t.ReminderOffset == nil {
		return nil
	}
	lead, ok := t.ReminderOffset.Duration()
	if !ok {
		return nil
	}
	at := t.DueDate.Add(-lead)
	return &at
}

// TaskFilter scopes task listings.
type TaskFilter struct {
	OwnerID   string
	SubjectID string
	Completed *bool
	Flagged   *bool
	DueBefore *time.Time
	Page      int
	PageSize  int
}
