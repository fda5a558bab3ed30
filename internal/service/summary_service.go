package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-planner-api/internal/dto"
	"github.com/noah-isme/student-planner-api/internal/models"
	"github.com/noah-isme/student-planner-api/internal/planner"
	appErrors "github.com/noah-isme/student-planner-api/pkg/errors"
)

type gradeHistory interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.GradeEntry, error)
	ListBySubjects(ctx context.Context, subjectIDs []string) (map[string][]models.GradeEntry, error)
}

type attendanceHistory interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.AttendanceEntry, error)
	ListBySubjects(ctx context.Context, subjectIDs []string) (map[string][]models.AttendanceEntry, error)
}

type openTaskCounter interface {
	CountOpenBySubject(ctx context.Context, subjectID string) (int, error)
}

type ownedSubjectStore interface {
	subjectFinder
	subjectLister
}

// SummaryService rolls grade, attendance and task data up per subject.
type SummaryService struct {
	subjects   ownedSubjectStore
	grades     gradeHistory
	attendance attendanceHistory
	tasks      openTaskCounter
	logger     *zap.Logger
}

// NewSummaryService constructs the service.
func NewSummaryService(subjects ownedSubjectStore, grades gradeHistory, attendance attendanceHistory, tasks openTaskCounter, logger *zap.Logger) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{subjects: subjects, grades: grades, attendance: attendance, tasks: tasks, logger: logger}
}

// Subject summarises one owned subject.
func (s *SummaryService) Subject(ctx context.Context, ownerID, subjectID string) (*dto.SubjectSummaryResponse, error) {
	subject, err := ownedSubject(ctx, s.subjects, ownerID, subjectID)
	if err != nil {
		return nil, err
	}
	grades, err := s.grades.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}
	attendance, err := s.attendance.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	open, err := s.tasks.CountOpenBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count tasks")
	}
	summary := summarizeSubject(*subject, grades, attendance, open)
	return &summary, nil
}

// Performance summarises every subject of the owner plus owner-wide figures.
// The overall average is the mean of the subjects' weighted averages.
func (s *SummaryService) Performance(ctx context.Context, ownerID string) (*dto.PerformanceResponse, error) {
	subjects, err := s.subjects.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	ids := make([]string, len(subjects))
	for i, subject := range subjects {
		ids[i] = subject.ID
	}

	grades, err := s.grades.ListBySubjects(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}
	attendance, err := s.attendance.ListBySubjects(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}

	resp := &dto.PerformanceResponse{OwnerID: ownerID, Subjects: make([]dto.SubjectSummaryResponse, 0, len(subjects))}
	var (
		allAttendance []models.AttendanceEntry
		averageSum    float64
		averaged      int
	)
	for _, subject := range subjects {
		open, err := s.tasks.CountOpenBySubject(ctx, subject.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count tasks")
		}
		summary := summarizeSubject(subject, grades[subject.ID], attendance[subject.ID], open)
		resp.Subjects = append(resp.Subjects, summary)

		allAttendance = append(allAttendance, attendance[subject.ID]...)
		if summary.Grades.WeightedAverage != nil {
			averageSum += *summary.Grades.WeightedAverage
			averaged++
		}
	}
	resp.OverallAttendanceRate = planner.AttendanceRate(allAttendance)
	if averaged > 0 {
		overall := averageSum / float64(averaged)
		resp.OverallAverage = &overall
	}
	return resp, nil
}

func summarizeSubject(subject models.Subject, grades []models.GradeEntry, attendance []models.AttendanceEntry, openTasks int) dto.SubjectSummaryResponse {
	summary := dto.SubjectSummaryResponse{
		SubjectID:  subject.ID,
		Title:      subject.Title,
		Attendance: planner.SummarizeAttendance(attendance),
		Grades:     planner.SummarizeGrades(grades),
		OpenTasks:  openTasks,
	}
	var latestExam time.Time
	for _, grade := range grades {
		if grade.IsExam && grade.Date.After(latestExam) {
			latestExam = grade.Date
		}
	}
	if !latestExam.IsZero() {
		formatted := latestExam.Format(dateLayout)
		summary.LatestExamDate = &formatted
	}
	return summary
}
