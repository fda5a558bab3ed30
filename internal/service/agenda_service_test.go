package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/student-planner-api/internal/models"
	"github.com/noah-isme/student-planner-api/internal/planner"
	appErrors "github.com/noah-isme/student-planner-api/pkg/errors"
)

// 2024-11-11 is a Monday in ISO week 46.
var agendaMonday = time.Date(2024, 11, 11, 0, 0, 0, 0, time.UTC)

type fakeWeekResolver struct {
	week  *int
	err   error
	calls int
}

func (f *fakeWeekResolver) WeekNumber(_ context.Context, _ time.Time) (*int, error) {
	f.calls++
	return f.week, f.err
}

type countingSubjects struct {
	*fakeSubjectRepo
	calls int
}

func (c *countingSubjects) ListByOwner(ctx context.Context, ownerID string) ([]models.Subject, error) {
	c.calls++
	return c.fakeSubjectRepo.ListByOwner(ctx, ownerID)
}

func clockAt(h, m int) time.Time {
	return time.Date(0, 1, 1, h, m, 0, 0, time.UTC)
}

func mondaySubject(id string, freq models.Frequency, startHour, endHour int) models.Subject {
	s := models.Subject{ID: id, OwnerID: "owner-1", Title: "Subject " + id}
	s.SetCourse(models.Meeting{
		DaysOfWeek: models.Weekdays{models.Monday},
		StartTime:  clockAt(startHour, 0),
		EndTime:    clockAt(endHour, 0),
		Frequency:  freq,
		Room:       "R-" + id,
	})
	return s
}

func newTestAgendaService(subjects *countingSubjects, weeks *fakeWeekResolver, cache *CacheService, metrics *MetricsService, logger *zap.Logger, now time.Time) *AgendaService {
	svc := NewAgendaService(AgendaServiceParams{
		Subjects: subjects,
		Calendar: weeks,
		Cache:    cache,
		Metrics:  metrics,
		Logger:   logger,
		Config:   AgendaServiceConfig{CacheTTL: time.Minute, Location: time.UTC},
	})
	svc.now = func() time.Time { return now }
	return svc
}

func agendaSubjects() *countingSubjects {
	return &countingSubjects{fakeSubjectRepo: newFakeSubjectRepo(
		mondaySubject("s1", models.FrequencyWeekly, 10, 12),
		mondaySubject("s2", models.FrequencyBiweeklyOdd, 14, 15),
	)}
}

func TestAgendaServiceAcademicDayClassifiesAndCaches(t *testing.T) {
	subjects := agendaSubjects()
	week := 11
	weeks := &fakeWeekResolver{week: &week}
	cache := NewCacheService(&stubCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := newTestAgendaService(subjects, weeks, cache, nil, nil, agendaMonday.Add(11*time.Hour))
	ctx := context.Background()

	agenda, hit, err := svc.Day(ctx, "owner-1", agendaMonday, "")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "academic", agenda.Mode)
	assert.Equal(t, "2024-11-11", agenda.Date)
	assert.True(t, agenda.CalendarResolved)
	require.NotNil(t, agenda.WeekNumber)
	assert.Equal(t, 11, *agenda.WeekNumber)

	require.Len(t, agenda.Occurrences, 2)
	assert.Equal(t, "current", agenda.Occurrences[0].State)
	assert.Equal(t, "upcoming", agenda.Occurrences[1].State)
	require.NotNil(t, agenda.Current)
	assert.Equal(t, "s1", agenda.Current.SubjectID)
	require.NotNil(t, agenda.Next)
	assert.Equal(t, "s2", agenda.Next.SubjectID)
	assert.Empty(t, agenda.Remaining)
	require.NotNil(t, agenda.RefreshAt)
	assert.Equal(t, agendaMonday.Add(12*time.Hour), *agenda.RefreshAt)

	again, hit, err := svc.Day(ctx, "owner-1", agendaMonday, "academic")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, subjects.calls)
	assert.Equal(t, 1, weeks.calls)
	require.NotNil(t, again.Current)
	assert.Equal(t, "s1", again.Current.SubjectID)
}

func TestAgendaServiceClassifiesCachedDayAgainstFreshClock(t *testing.T) {
	week := 11
	cache := NewCacheService(&stubCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := newTestAgendaService(agendaSubjects(), &fakeWeekResolver{week: &week}, cache, nil, nil, agendaMonday.Add(11*time.Hour))
	ctx := context.Background()

	_, _, err := svc.Day(ctx, "owner-1", agendaMonday, "")
	require.NoError(t, err)

	svc.now = func() time.Time { return agendaMonday.Add(16 * time.Hour) }
	agenda, hit, err := svc.Day(ctx, "owner-1", agendaMonday, "")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Nil(t, agenda.Current)
	assert.Nil(t, agenda.Next)
	assert.Nil(t, agenda.RefreshAt)
	for _, occ := range agenda.Occurrences {
		assert.Equal(t, "past", occ.State)
	}
}

func TestAgendaServiceAcademicWithoutTermIsEmpty(t *testing.T) {
	svc := newTestAgendaService(agendaSubjects(), &fakeWeekResolver{}, nil, nil, nil, agendaMonday.Add(11*time.Hour))

	agenda, _, err := svc.Day(context.Background(), "owner-1", agendaMonday, "academic")
	require.NoError(t, err)
	assert.False(t, agenda.CalendarResolved)
	assert.Nil(t, agenda.WeekNumber)
	assert.NotNil(t, agenda.Occurrences)
	assert.Empty(t, agenda.Occurrences)
	assert.Nil(t, agenda.Current)
}

func TestAgendaServiceDateModeUsesISOParity(t *testing.T) {
	weeks := &fakeWeekResolver{}
	svc := newTestAgendaService(agendaSubjects(), weeks, nil, nil, nil, agendaMonday)

	agenda, _, err := svc.Day(context.Background(), "owner-1", agendaMonday, "DATE")
	require.NoError(t, err)
	assert.Equal(t, "date", agenda.Mode)
	assert.True(t, agenda.CalendarResolved)
	require.Len(t, agenda.Occurrences, 1, "ISO week 46 is even, so the odd biweekly class is off")
	assert.Equal(t, "s1", agenda.Occurrences[0].SubjectID)
	assert.Zero(t, weeks.calls)
}

func TestAgendaServiceRejectsUnknownMode(t *testing.T) {
	svc := newTestAgendaService(agendaSubjects(), &fakeWeekResolver{}, nil, nil, nil, agendaMonday)

	_, _, err := svc.Day(context.Background(), "owner-1", agendaMonday, "lunar")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestAgendaServiceWeekResolverError(t *testing.T) {
	weeks := &fakeWeekResolver{err: appErrors.Wrap(assert.AnError, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve academic term")}
	svc := newTestAgendaService(agendaSubjects(), weeks, nil, nil, nil, agendaMonday)

	_, _, err := svc.Day(context.Background(), "owner-1", agendaMonday, "")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestAgendaServiceReportsSkippedMeetings(t *testing.T) {
	broken := models.Subject{ID: "broken", OwnerID: "owner-1", Title: "Broken"}
	broken.SetCourse(models.Meeting{DaysOfWeek: models.Weekdays{models.Monday}, EndTime: clockAt(9, 0), Frequency: models.FrequencyWeekly})
	subjects := &countingSubjects{fakeSubjectRepo: newFakeSubjectRepo(broken, mondaySubject("s1", models.FrequencyWeekly, 10, 12))}

	core, logs := observer.New(zapcore.WarnLevel)
	metrics := NewMetricsService()
	week := 2
	svc := newTestAgendaService(subjects, &fakeWeekResolver{week: &week}, nil, metrics, zap.New(core), agendaMonday)

	agenda, _, err := svc.Day(context.Background(), "owner-1", agendaMonday, "")
	require.NoError(t, err)
	assert.Len(t, agenda.Occurrences, 1)
	assert.Equal(t, 1, agenda.SkippedMeetings)

	entries := logs.FilterMessage("meeting skipped").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "broken", entries[0].ContextMap()["subject_id"])
	assert.Equal(t, uint64(1), metrics.Snapshot().SkippedMeetings)
	assert.Equal(t, uint64(1), metrics.Snapshot().AgendaBuilds)
}

func TestAgendaServiceCurrentOccurrence(t *testing.T) {
	week := 11
	svc := newTestAgendaService(agendaSubjects(), &fakeWeekResolver{week: &week}, nil, nil, nil, agendaMonday.Add(14*time.Hour+30*time.Minute))

	occ, err := svc.CurrentOccurrence(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "s2", occ.SubjectID)

	svc.now = func() time.Time { return agendaMonday.Add(13 * time.Hour) }
	_, err = svc.CurrentOccurrence(context.Background(), "owner-1")
	assert.True(t, appErrors.Is(err, appErrors.ErrNoActiveClass))
}

func TestAgendaCacheDroppedOnOwnerChange(t *testing.T) {
	subjects := agendaSubjects()
	week := 11
	cache := NewCacheService(&stubCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := newTestAgendaService(subjects, &fakeWeekResolver{week: &week}, cache, nil, nil, agendaMonday)
	notifier := NewChangeNotifier(cache, nil, zap.NewNop())
	ctx := context.Background()

	_, _, err := svc.Day(ctx, "owner-1", agendaMonday, "")
	require.NoError(t, err)
	notifier.OwnerChanged(ctx, "owner-1")

	_, hit, err := svc.Day(ctx, "owner-1", agendaMonday, "")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, subjects.calls)
}

func TestAgendaServiceNowIncludesMeetingRunningPastMidnight(t *testing.T) {
	late := mondaySubject("late", models.FrequencyWeekly, 22, 1)
	subjects := &countingSubjects{fakeSubjectRepo: newFakeSubjectRepo(late)}
	week := 11
	weeks := &fakeWeekResolver{week: &week}
	tuesday := agendaMonday.AddDate(0, 0, 1)
	svc := newTestAgendaService(subjects, weeks, nil, nil, nil, tuesday.Add(30*time.Minute))

	agenda, _, err := svc.Now(context.Background(), "owner-1", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-11-12", agenda.Date)
	require.Len(t, agenda.Occurrences, 1)
	assert.Equal(t, "current", agenda.Occurrences[0].State)
	require.NotNil(t, agenda.Current)
	assert.Equal(t, "late", agenda.Current.SubjectID)
	assert.Equal(t, tuesday.Add(time.Hour), agenda.Current.EndAt)
	require.NotNil(t, agenda.RefreshAt)
	assert.Equal(t, tuesday.Add(time.Hour), *agenda.RefreshAt)
	assert.Equal(t, 2, weeks.calls)

	occ, err := svc.CurrentOccurrence(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "late", occ.SubjectID)
}

func TestAgendaServiceOvernightSpillFollowsPreviousDayRecurrence(t *testing.T) {
	late := mondaySubject("late", models.FrequencyBiweeklyOdd, 22, 1)
	tuesday := agendaMonday.AddDate(0, 0, 1)
	svc := newTestAgendaService(&countingSubjects{fakeSubjectRepo: newFakeSubjectRepo(late)}, &fakeWeekResolver{}, nil, nil, nil, tuesday.Add(30*time.Minute))

	agenda, _, err := svc.Day(context.Background(), "owner-1", tuesday, "date")
	require.NoError(t, err)
	assert.Empty(t, agenda.Occurrences, "ISO week 46 is even, so Monday's odd biweekly meeting did not happen")
	assert.Nil(t, agenda.Current)

	agenda, _, err = svc.Day(context.Background(), "owner-1", tuesday, "academic")
	require.NoError(t, err)
	assert.Empty(t, agenda.Occurrences, "outside every term the previous day is empty too")
}

func TestAgendaServiceDaytimeMeetingsDoNotSpill(t *testing.T) {
	weeks := &fakeWeekResolver{week: planner.Week(11)}
	tuesday := agendaMonday.AddDate(0, 0, 1)
	svc := newTestAgendaService(agendaSubjects(), weeks, nil, nil, nil, tuesday.Add(30*time.Minute))

	agenda, _, err := svc.Now(context.Background(), "owner-1", "")
	require.NoError(t, err)
	assert.Empty(t, agenda.Occurrences)
	assert.Equal(t, 1, weeks.calls)
}
