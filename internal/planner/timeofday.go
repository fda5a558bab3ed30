package planner

import (
	"errors"
	"time"

	"github.com/noah-isme/student-planner-api/internal/models"
)

// ErrInvalidTimeValue is returned when a stored time-of-day carries no usable hour/minute.
var ErrInvalidTimeValue = errors.New("invalid time-of-day value")

// Normalize projects the hour and minute of timeOfDay onto the calendar day of
// onto, as seen in loc. Seconds are dropped. A nil loc means time.Local.
func Normalize(timeOfDay, onto time.Time, loc *time.Location) (time.Time, error) {
	if timeOfDay.IsZero() {
		return time.Time{}, ErrInvalidTimeValue
	}
	if loc == nil {
		loc = time.Local
	}
	y, m, d := onto.In(loc).Date()
	return time.Date(y, m, d, timeOfDay.Hour(), timeOfDay.Minute(), 0, 0, loc), nil
}

// WeekdayOf returns the weekday of t in loc using 1 = Sunday numbering.
func WeekdayOf(t time.Time, loc *time.Location) models.Weekday {
	if loc == nil {
		loc = time.Local
	}
	return models.Weekday(int(t.In(loc).Weekday()) + 1)
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
