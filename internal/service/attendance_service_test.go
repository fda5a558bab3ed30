package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-planner-api/internal/models"
	appErrors "github.com/noah-isme/student-planner-api/pkg/errors"
)

type fakeAttendanceRepo struct {
	entries []models.AttendanceEntry
	deleted []string
}

func (f *fakeAttendanceRepo) ListBySubject(_ context.Context, subjectID string) ([]models.AttendanceEntry, error) {
	out := make([]models.AttendanceEntry, 0)
	for _, e := range f.entries {
		if e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) ListBySubjects(ctx context.Context, subjectIDs []string) (map[string][]models.AttendanceEntry, error) {
	result := make(map[string][]models.AttendanceEntry)
	for _, id := range subjectIDs {
		entries, _ := f.ListBySubject(ctx, id)
		if len(entries) > 0 {
			result[id] = entries
		}
	}
	return result, nil
}

func (f *fakeAttendanceRepo) FindByID(_ context.Context, id string) (*models.AttendanceEntry, error) {
	for _, e := range f.entries {
		if e.ID == id {
			entry := e
			return &entry, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAttendanceRepo) Create(_ context.Context, entry *models.AttendanceEntry) error {
	entry.ID = fmt.Sprintf("att-%d", len(f.entries)+1)
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAttendanceRepo) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeCurrentClass struct {
	occ *models.Occurrence
	err error
}

func (f *fakeCurrentClass) CurrentOccurrence(_ context.Context, _ string) (*models.Occurrence, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.occ, nil
}

func TestAttendanceServiceRecord(t *testing.T) {
	entries := &fakeAttendanceRepo{}
	svc := NewAttendanceService(entries, ownedSubjects(), nil, time.UTC, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 11, 11, 15, 30, 0, 0, time.UTC) }

	note := "  doctor  "
	entry, err := svc.Record(context.Background(), "owner-1", "s1", RecordAttendanceRequest{Status: "EXCUSED", Note: &note})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusExcused, entry.Status)
	assert.Equal(t, time.Date(2024, 11, 11, 0, 0, 0, 0, time.UTC), entry.Date)
	require.NotNil(t, entry.Note)
	assert.Equal(t, "doctor", *entry.Note)

	entry, err = svc.Record(context.Background(), "owner-1", "s1", RecordAttendanceRequest{Status: "LATE", Date: "2024-11-04"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC), entry.Date)
	assert.Nil(t, entry.Note)
}

func TestAttendanceServiceRecordValidation(t *testing.T) {
	svc := NewAttendanceService(&fakeAttendanceRepo{}, ownedSubjects(), nil, time.UTC, nil, zap.NewNop())

	_, err := svc.Record(context.Background(), "owner-1", "s1", RecordAttendanceRequest{Status: "SICK"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Record(context.Background(), "owner-1", "s2", RecordAttendanceRequest{Status: "PRESENT"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestAttendanceServiceMarkCurrent(t *testing.T) {
	entries := &fakeAttendanceRepo{}
	occ := &models.Occurrence{
		SubjectID: "s1",
		Kind:      models.MeetingKindSeminar,
		StartAt:   time.Date(2024, 11, 11, 23, 30, 0, 0, time.UTC),
		EndAt:     time.Date(2024, 11, 12, 0, 30, 0, 0, time.UTC),
	}
	svc := NewAttendanceService(entries, ownedSubjects(), &fakeCurrentClass{occ: occ}, time.UTC, nil, zap.NewNop())

	result, err := svc.MarkCurrent(context.Background(), "owner-1", MarkCurrentRequest{Status: "PRESENT"})
	require.NoError(t, err)
	assert.Equal(t, "s1", result.Entry.SubjectID)
	assert.Equal(t, time.Date(2024, 11, 11, 0, 0, 0, 0, time.UTC), result.Entry.Date, "recorded on the day the class started")
	assert.Equal(t, *occ, result.Occurrence)
	assert.Len(t, entries.entries, 1)
}

func TestAttendanceServiceMarkCurrentWithoutClass(t *testing.T) {
	current := &fakeCurrentClass{err: appErrors.Clone(appErrors.ErrNoActiveClass, "no class is in progress")}
	entries := &fakeAttendanceRepo{}
	svc := NewAttendanceService(entries, ownedSubjects(), current, time.UTC, nil, zap.NewNop())

	_, err := svc.MarkCurrent(context.Background(), "owner-1", MarkCurrentRequest{Status: "PRESENT"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNoActiveClass))
	assert.Empty(t, entries.entries)
}

func TestAttendanceServiceDeleteChecksOwnership(t *testing.T) {
	entries := &fakeAttendanceRepo{entries: []models.AttendanceEntry{
		{ID: "a1", SubjectID: "s1", Status: models.AttendanceStatusPresent},
		{ID: "a2", SubjectID: "s2", Status: models.AttendanceStatusAbsent},
	}}
	svc := NewAttendanceService(entries, ownedSubjects(), nil, time.UTC, nil, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "owner-1", "a1"))
	assert.True(t, appErrors.Is(svc.Delete(context.Background(), "owner-1", "a2"), appErrors.ErrNotFound))
	assert.True(t, appErrors.Is(svc.Delete(context.Background(), "owner-1", "zz"), appErrors.ErrNotFound))
	assert.Equal(t, []string{"a1"}, entries.deleted)
}

func TestAttendanceServiceList(t *testing.T) {
	entries := &fakeAttendanceRepo{entries: []models.AttendanceEntry{
		{ID: "a1", SubjectID: "s1"},
		{ID: "a2", SubjectID: "s2"},
	}}
	svc := NewAttendanceService(entries, ownedSubjects(), nil, time.UTC, nil, zap.NewNop())

	list, err := svc.List(context.Background(), "owner-1", "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a1", list[0].ID)
}
