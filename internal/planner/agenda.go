package planner

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/student-planner-api/internal/models"
)

// SkippedMeeting records a meeting left out of an agenda because its times
// could not be normalized.
type SkippedMeeting struct {
	SubjectID string
	Kind      models.MeetingKind
	Err       error
}

// Error implements the error interface.
func (s SkippedMeeting) Error() string {
	return fmt.Sprintf("subject %s %s meeting skipped: %v", s.SubjectID, s.Kind, s.Err)
}

// Unwrap returns the normalization error.
func (s SkippedMeeting) Unwrap() error {
	return s.Err
}

// Week wraps an academic week number for BuildAgenda and OccursInWeek.
func Week(n int) *int {
	return &n
}

// BuildAgenda expands every subject's course and seminar meetings that fall
// on target into a start-ordered list of occurrences. With a week number the
// academic-week rule applies, without one the ISO week parity of target does.
//
// Meetings whose times cannot be normalized are returned in the second slice
// instead of failing the whole agenda. A meeting whose end time-of-day is not
// after its start runs past midnight and ends on the following day.
func BuildAgenda(subjects []models.Subject, target time.Time, week *int, loc *time.Location) ([]models.Occurrence, []SkippedMeeting) {
	if loc == nil {
		loc = time.Local
	}
	day := target.In(loc)
	weekday := WeekdayOf(day, loc)

	agenda := make([]models.Occurrence, 0)
	var skipped []SkippedMeeting
	for _, subject := range subjects {
		for _, km := range subject.Meetings() {
			meeting := km.Meeting
			if !meeting.DaysOfWeek.Contains(weekday) {
				continue
			}
			if !occurs(meeting.Frequency, day, week) {
				continue
			}
			start, err := Normalize(meeting.StartTime, day, loc)
			if err != nil {
				skipped = append(skipped, SkippedMeeting{SubjectID: subject.ID, Kind: km.Kind, Err: err})
				continue
			}
			end, err := Normalize(meeting.EndTime, day, loc)
			if err != nil {
				skipped = append(skipped, SkippedMeeting{SubjectID: subject.ID, Kind: km.Kind, Err: err})
				continue
			}
			if end.Before(start) {
				end = end.AddDate(0, 0, 1)
			}
			agenda = append(agenda, models.Occurrence{
				SubjectID:    subject.ID,
				DisplayTitle: subject.Title,
				Room:         meeting.Room,
				Instructor:   meeting.Instructor,
				Kind:         km.Kind,
				StartAt:      start,
				EndAt:        end,
			})
		}
	}

	sort.SliceStable(agenda, func(i, j int) bool {
		if !agenda[i].StartAt.Equal(agenda[j].StartAt) {
			return agenda[i].StartAt.Before(agenda[j].StartAt)
		}
		return agenda[i].SubjectID < agenda[j].SubjectID
	})
	return agenda, skipped
}

func occurs(freq models.Frequency, day time.Time, week *int) bool {
	if week != nil {
		return OccursInWeek(freq, week)
	}
	return OccursOnDate(freq, day)
}

// BuildAcademicAgenda is BuildAgenda pinned to the academic week rule. Without
// a week number no meeting occurs, so the agenda is empty rather than falling
// back to ISO week parity.
func BuildAcademicAgenda(subjects []models.Subject, target time.Time, week *int, loc *time.Location) ([]models.Occurrence, []SkippedMeeting) {
	if week == nil {
		return make([]models.Occurrence, 0), nil
	}
	return BuildAgenda(subjects, target, week, loc)
}

// HasOvernight reports whether any meeting held on weekday ends on the
// following day.
func HasOvernight(subjects []models.Subject, weekday models.Weekday) bool {
	for _, subject := range subjects {
		for _, km := range subject.Meetings() {
			m := km.Meeting
			if !m.DaysOfWeek.Contains(weekday) || m.StartTime.IsZero() || m.EndTime.IsZero() {
				continue
			}
			if minuteOfDay(m.EndTime) < minuteOfDay(m.StartTime) {
				return true
			}
		}
	}
	return false
}

// SpillInto returns the occurrences of the previous day's agenda that are
// still running at the midnight starting target.
func SpillInto(previous []models.Occurrence, target time.Time, loc *time.Location) []models.Occurrence {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := target.In(loc).Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)

	spilled := make([]models.Occurrence, 0)
	for _, occ := range previous {
		if occ.StartAt.Before(midnight) && occ.EndAt.After(midnight) {
			spilled = append(spilled, occ)
		}
	}
	return spilled
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
