package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-planner-api/internal/models"
	appErrors "github.com/noah-isme/student-planner-api/pkg/errors"
)

func onDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func summaryFixtures() (*fakeSubjectRepo, *fakeGradeRepo, *fakeAttendanceRepo, *fakeTaskRepo) {
	subjects := newFakeSubjectRepo(
		models.Subject{ID: "s1", OwnerID: "owner-1", Title: "Physics"},
		models.Subject{ID: "s2", OwnerID: "owner-1", Title: "History"},
		models.Subject{ID: "s3", OwnerID: "owner-2", Title: "Art"},
	)
	grades := &fakeGradeRepo{grades: []models.GradeEntry{
		{ID: "g1", SubjectID: "s1", Score: 80, Weight: 20, Date: onDay(2024, 10, 1)},
		{ID: "g2", SubjectID: "s1", Score: 90, Weight: 30, Date: onDay(2024, 10, 15), IsExam: true},
		{ID: "g3", SubjectID: "s1", Score: 70, Weight: 50, Date: onDay(2024, 11, 1)},
		{ID: "g4", SubjectID: "s2", Score: 60, Weight: 0, Date: onDay(2024, 11, 2)},
	}}
	attendance := &fakeAttendanceRepo{entries: []models.AttendanceEntry{
		{ID: "a1", SubjectID: "s1", Status: models.AttendanceStatusPresent},
		{ID: "a2", SubjectID: "s1", Status: models.AttendanceStatusLate},
		{ID: "a3", SubjectID: "s1", Status: models.AttendanceStatusAbsent},
		{ID: "a4", SubjectID: "s1", Status: models.AttendanceStatusExcused},
	}}
	tasks := newFakeTaskRepo()
	tasks.openCounts["s1"] = 2
	return subjects, grades, attendance, tasks
}

func TestSummaryServiceSubject(t *testing.T) {
	subjects, grades, attendance, tasks := summaryFixtures()
	svc := NewSummaryService(subjects, grades, attendance, tasks, zap.NewNop())

	summary, err := svc.Subject(context.Background(), "owner-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "Physics", summary.Title)
	assert.Equal(t, 2, summary.OpenTasks)

	assert.Equal(t, 4, summary.Attendance.Total)
	assert.Equal(t, 1, summary.Attendance.Late)
	assert.Equal(t, 1, summary.Attendance.Excused)
	assert.InDelta(t, 0.5, summary.Attendance.Rate, 1e-9)

	assert.Equal(t, 3, summary.Grades.Count)
	require.NotNil(t, summary.Grades.Latest)
	assert.Equal(t, 70.0, *summary.Grades.Latest)
	require.NotNil(t, summary.Grades.WeightedAverage)
	assert.InDelta(t, 78.0, *summary.Grades.WeightedAverage, 1e-9)
	require.NotNil(t, summary.LatestExamDate)
	assert.Equal(t, "2024-10-15", *summary.LatestExamDate)
}

func TestSummaryServiceSubjectOwnership(t *testing.T) {
	subjects, grades, attendance, tasks := summaryFixtures()
	svc := NewSummaryService(subjects, grades, attendance, tasks, zap.NewNop())

	_, err := svc.Subject(context.Background(), "owner-1", "s3")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestSummaryServicePerformance(t *testing.T) {
	subjects, grades, attendance, tasks := summaryFixtures()
	svc := NewSummaryService(subjects, grades, attendance, tasks, zap.NewNop())

	perf, err := svc.Performance(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, perf.Subjects, 2)

	history := perf.Subjects[1]
	assert.Equal(t, "s2", history.SubjectID)
	assert.Equal(t, 1.0, history.Attendance.Rate, "no attendance counts as full")
	assert.Nil(t, history.Grades.WeightedAverage, "zero total weight has no average")
	require.NotNil(t, history.Grades.SimpleMean)
	assert.Nil(t, history.LatestExamDate)

	assert.InDelta(t, 0.5, perf.OverallAttendanceRate, 1e-9)
	require.NotNil(t, perf.OverallAverage)
	assert.InDelta(t, 78.0, *perf.OverallAverage, 1e-9)
}

func TestSummaryServicePerformanceEmpty(t *testing.T) {
	svc := NewSummaryService(newFakeSubjectRepo(), &fakeGradeRepo{}, &fakeAttendanceRepo{}, newFakeTaskRepo(), zap.NewNop())

	perf, err := svc.Performance(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Empty(t, perf.Subjects)
	assert.NotNil(t, perf.Subjects)
	assert.Equal(t, 1.0, perf.OverallAttendanceRate)
	assert.Nil(t, perf.OverallAverage)
}
