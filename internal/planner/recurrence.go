package planner

import (
	"time"

	"github.com/noah-isme/student-planner-api/internal/models"
)

// OccursInWeek evaluates freq against an academic week number. A nil week
// means no academic calendar is configured and the meeting does not occur.
func OccursInWeek(freq models.Frequency, week *int) bool {
	if week == nil {
		return false
	}
	return matchesParity(freq, *week)
}

// OccursOnDate evaluates freq against the ISO week-of-year of date. It is the
// mode used when no academic week counter is available; callers pick it
// explicitly. The raw ISO week does not necessarily line up with the academic
// week counter.
func OccursOnDate(freq models.Frequency, date time.Time) bool {
	_, isoWeek := date.ISOWeek()
	return matchesParity(freq, isoWeek)
}

// Unknown frequencies never occur.
func matchesParity(freq models.Frequency, week int) bool {
	switch freq {
	case models.FrequencyWeekly:
		return true
	case models.FrequencyBiweeklyOdd:
		return week%2 != 0
	case models.FrequencyBiweeklyEven:
		return week%2 == 0
	default:
		return false
	}
}

// AcademicWeek returns the 1-based teaching week of date for a term starting
// at termStart. Weeks are Monday-aligned: the week containing termStart is
// week 1. The boolean is false when date falls before termStart.
func AcademicWeek(termStart, date time.Time, loc *time.Location) (int, bool) {
	if loc == nil {
		loc = time.Local
	}
	start := civilDay(termStart.In(loc))
	day := civilDay(date.In(loc))
	if day.Before(start) {
		return 0, false
	}
	// shift back to the Monday of the start week
	offset := (int(start.Weekday()) + 6) % 7
	monday := start.AddDate(0, 0, -offset)
	days := int(day.Sub(monday).Hours() / 24)
	return days/7 + 1, true
}
