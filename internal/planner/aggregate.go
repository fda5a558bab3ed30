package planner

import (
	"sort"

	"github.com/noah-isme/student-planner-api/internal/models"
)

// AttendanceRate is the share of attended entries. An empty history counts
// as fully attended.
func AttendanceRate(history []models.AttendanceEntry) float64 {
	if len(history) == 0 {
		return 1.0
	}
	attended := 0
	for _, entry := range history {
		if entry.Attended() {
			attended++
		}
	}
	return float64(attended) / float64(len(history))
}

// AttendanceSummary counts entries per status.
type AttendanceSummary struct {
	Present int     `json:"present"`
	Late    int     `json:"late"`
	Absent  int     `json:"absent"`
	Excused int     `json:"excused"`
	Total   int     `json:"total"`
	Rate    float64 `json:"rate"`
}

// SummarizeAttendance rolls a history up into per-status counts and the rate.
func SummarizeAttendance(history []models.AttendanceEntry) AttendanceSummary {
	summary := AttendanceSummary{Total: len(history), Rate: AttendanceRate(history)}
	for _, entry := range history {
		switch entry.Status {
		case models.AttendanceStatusPresent:
			summary.Present++
		case models.AttendanceStatusLate:
			summary.Late++
		case models.AttendanceStatusAbsent:
			summary.Absent++
		case models.AttendanceStatusExcused:
			summary.Excused++
		}
	}
	return summary
}

// LatestGrade returns the most recently dated entry. Entries sharing the
// latest date resolve to the one appearing last in history.
func LatestGrade(history []models.GradeEntry) *models.GradeEntry {
	if len(history) == 0 {
		return nil
	}
	sorted := make([]models.GradeEntry, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	latest := sorted[len(sorted)-1]
	return &latest
}

// WeightedAverage returns Σ(score×weight)/Σ(weight). Zero-weight entries add
// nothing to either sum. The boolean is false for an empty history or a zero
// total weight.
func WeightedAverage(history []models.GradeEntry) (float64, bool) {
	var sum, totalWeight float64
	for _, entry := range history {
		if entry.Weight == 0 {
			continue
		}
		sum += entry.Score * entry.Weight
		totalWeight += entry.Weight
	}
	if totalWeight == 0 {
		return 0, false
	}
	return sum / totalWeight, true
}

// SimpleMean returns the unweighted mean of all scores.
func SimpleMean(history []models.GradeEntry) (float64, bool) {
	if len(history) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, entry := range history {
		sum += entry.Score
	}
	return sum / float64(len(history)), true
}

// GradeSummary collects both grade policies for display.
type GradeSummary struct {
	Count           int      `json:"count"`
	Latest          *float64 `json:"latest,omitempty"`
	WeightedAverage *float64 `json:"weighted_average,omitempty"`
	SimpleMean      *float64 `json:"simple_mean,omitempty"`
}

// SummarizeGrades evaluates every grade policy over history.
func SummarizeGrades(history []models.GradeEntry) GradeSummary {
	summary := GradeSummary{Count: len(history)}
	if latest := LatestGrade(history); latest != nil {
		score := latest.Score
		summary.Latest = &score
	}
	if avg, ok := WeightedAverage(history); ok {
		summary.WeightedAverage = &avg
	}
	if mean, ok := SimpleMean(history); ok {
		summary.SimpleMean = &mean
	}
	return summary
}
