package dto

import "github.com/noah-isme/student-planner-api/internal/planner"

// SubjectSummaryResponse is the per-subject dashboard card.
type SubjectSummaryResponse struct {
	SubjectID      string                    `json:"subjectId"`
	Title          string                    `json:"title"`
	Attendance     planner.AttendanceSummary `json:"attendance"`
	Grades         planner.GradeSummary      `json:"grades"`
	OpenTasks      int                       `json:"openTasks"`
	LatestExamDate *string                   `json:"latestExamDate,omitempty"`
}

// PerformanceResponse aggregates every subject of an owner.
type PerformanceResponse struct {
	OwnerID               string                   `json:"ownerId"`
	Subjects              []SubjectSummaryResponse `json:"subjects"`
	OverallAttendanceRate float64                  `json:"overallAttendanceRate"`
	OverallAverage        *float64                 `json:"overallAverage,omitempty"`
}
