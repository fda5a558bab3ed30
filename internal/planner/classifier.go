package planner

import (
	"time"

	"github.com/noah-isme/student-planner-api/internal/models"
)

// State is the position of an occurrence relative to a reference instant.
type State string

const (
	StatePast     State = "past"
	StateCurrent  State = "current"
	StateUpcoming State = "upcoming"
)

// StateOf places occ relative to now. Every occurrence gets exactly one state.
func StateOf(occ models.Occurrence, now time.Time) State {
	switch {
	case occ.StartAt.After(now):
		return StateUpcoming
	case occ.EndAt.After(now):
		return StateCurrent
	default:
		return StatePast
	}
}

// IsPast reports whether occ has ended at now.
func IsPast(occ models.Occurrence, now time.Time) bool {
	return !occ.EndAt.After(now)
}

// Current returns the earliest-starting occurrence active at now. The agenda
// must be sorted by start; overlapping entries are tolerated.
func Current(agenda []models.Occurrence, now time.Time) *models.Occurrence {
	for i := range agenda {
		if StateOf(agenda[i], now) == StateCurrent {
			occ := agenda[i]
			return &occ
		}
	}
	return nil
}

// Next returns the first occurrence starting after now, whether or not
// another one is currently active.
func Next(agenda []models.Occurrence, now time.Time) *models.Occurrence {
	idx := nextIndex(agenda, now)
	if idx < 0 {
		return nil
	}
	occ := agenda[idx]
	return &occ
}

// Remaining returns the occurrences after the one Next picks, in order.
func Remaining(agenda []models.Occurrence, now time.Time) []models.Occurrence {
	idx := nextIndex(agenda, now)
	if idx < 0 || idx+1 >= len(agenda) {
		return []models.Occurrence{}
	}
	out := make([]models.Occurrence, len(agenda)-idx-1)
	copy(out, agenda[idx+1:])
	return out
}

func nextIndex(agenda []models.Occurrence, now time.Time) int {
	for i := range agenda {
		if agenda[i].StartAt.After(now) {
			return i
		}
	}
	return -1
}

// Classification partitions an agenda around a reference instant.
type Classification struct {
	Past      []models.Occurrence
	Active    []models.Occurrence
	Upcoming  []models.Occurrence
	Current   *models.Occurrence
	Next      *models.Occurrence
	Remaining []models.Occurrence
}

// Classify computes every view of the agenda in one pass.
func Classify(agenda []models.Occurrence, now time.Time) Classification {
	c := Classification{
		Past:     []models.Occurrence{},
		Active:   []models.Occurrence{},
		Upcoming: []models.Occurrence{},
	}
	for _, occ := range agenda {
		switch StateOf(occ, now) {
		case StatePast:
			c.Past = append(c.Past, occ)
		case StateCurrent:
			c.Active = append(c.Active, occ)
		default:
			c.Upcoming = append(c.Upcoming, occ)
		}
	}
	c.Current = Current(agenda, now)
	c.Next = Next(agenda, now)
	c.Remaining = Remaining(agenda, now)
	return c
}

// NextBoundary returns the earliest start or end instant strictly after now.
// Recomputing at that instant keeps Current/Next from going stale.
func NextBoundary(agenda []models.Occurrence, now time.Time) (time.Time, bool) {
	var best time.Time
	found := false
	for _, occ := range agenda {
		for _, t := range [2]time.Time{occ.StartAt, occ.EndAt} {
			if !t.After(now) {
				continue
			}
			if !found || t.Before(best) {
				best = t
				found = true
			}
		}
	}
	return best, found
}
