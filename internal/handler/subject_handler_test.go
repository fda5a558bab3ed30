package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-planner-api/internal/models"
	"github.com/noah-isme/student-planner-api/internal/service"
	appErrors "github.com/noah-isme/student-planner-api/pkg/errors"
)

type fakeSubjectService struct {
	subjects   []models.Subject
	err        error
	lastOwner  string
	lastFilter models.SubjectFilter
	lastReq    service.SubjectRequest
	deletedID  string
}

func (f *fakeSubjectService) List(_ context.Context, ownerID string, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	f.lastOwner = ownerID
	f.lastFilter = filter
	return f.subjects, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: len(f.subjects)}, f.err
}

func (f *fakeSubjectService) Get(_ context.Context, ownerID, id string) (*models.Subject, error) {
	f.lastOwner = ownerID
	if f.err != nil {
		return nil, f.err
	}
	return &models.Subject{ID: id, OwnerID: ownerID, Title: "Physics"}, nil
}

func (f *fakeSubjectService) Create(_ context.Context, ownerID string, req service.SubjectRequest) (*models.Subject, error) {
	f.lastOwner = ownerID
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Subject{
		ID:              "subject-1",
		OwnerID:         ownerID,
		Title:           req.Title,
		CourseDays:      models.Weekdays{models.Monday},
		CourseStart:     time.Date(0, 1, 1, 10, 0, 0, 0, time.UTC),
		CourseEnd:       time.Date(0, 1, 1, 11, 30, 0, 0, time.UTC),
		CourseFrequency: models.FrequencyWeekly,
	}, nil
}

func (f *fakeSubjectService) Update(_ context.Context, ownerID, id string, req service.SubjectRequest) (*models.Subject, error) {
	f.lastOwner = ownerID
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Subject{ID: id, OwnerID: ownerID, Title: req.Title}, nil
}

func (f *fakeSubjectService) Delete(_ context.Context, ownerID, id string) error {
	f.lastOwner = ownerID
	f.deletedID = id
	return f.err
}

func TestSubjectHandlerListPassesFilter(t *testing.T) {
	svc := &fakeSubjectService{subjects: []models.Subject{{ID: "s1", Title: "Physics"}}}
	handler := NewSubjectHandler(svc)

	c, w := newOwnerContext(http.MethodGet, "/subjects?search=%20phys%20&page=2&limit=5&sort=title&order=desc", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "owner-1", svc.lastOwner)
	assert.Equal(t, models.SubjectFilter{Search: "phys", Page: 2, PageSize: 5, SortBy: "title", SortOrder: "desc"}, svc.lastFilter)

	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)
	var views []models.SubjectView
	require.NoError(t, json.Unmarshal(envelope.Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Physics", views[0].Title)
}

func TestSubjectHandlerCreateRendersClockTimes(t *testing.T) {
	svc := &fakeSubjectService{}
	handler := NewSubjectHandler(svc)

	body := []byte(`{"title":"Physics","course":{"days_of_week":[2],"start_time":"10:00","end_time":"11:30","frequency":"WEEKLY"}}`)
	c, w := newOwnerContext(http.MethodPost, "/subjects", body)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Physics", svc.lastReq.Title)
	assert.Equal(t, []int{2}, svc.lastReq.Course.DaysOfWeek)

	var view models.SubjectView
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &view))
	assert.Equal(t, "10:00", view.Course.StartTime)
	assert.Equal(t, "11:30", view.Course.EndTime)
	assert.Equal(t, "", view.Seminar.StartTime)
}

func TestSubjectHandlerCreateRejectsMalformedJSON(t *testing.T) {
	handler := NewSubjectHandler(&fakeSubjectService{})

	c, w := newOwnerContext(http.MethodPost, "/subjects", []byte(`{"title":`))
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubjectHandlerGetNotFound(t *testing.T) {
	handler := NewSubjectHandler(&fakeSubjectService{err: appErrors.Clone(appErrors.ErrNotFound, "subject not found")})

	c, w := newOwnerContext(http.MethodGet, "/subjects/s9", nil)
	c.Params = gin.Params{{Key: "id", Value: "s9"}}
	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubjectHandlerUpdateAndDelete(t *testing.T) {
	svc := &fakeSubjectService{}
	handler := NewSubjectHandler(svc)

	c, w := newOwnerContext(http.MethodPut, "/subjects/s1", []byte(`{"title":"Chemistry"}`))
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Chemistry", svc.lastReq.Title)

	c, w = newOwnerContext(http.MethodDelete, "/subjects/s1", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.Delete(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "s1", svc.deletedID)
}

func TestSubjectHandlerRequiresOwner(t *testing.T) {
	svc := &fakeSubjectService{}
	handler := NewSubjectHandler(svc)

	c, w := newGinContext(http.MethodGet, "/subjects", nil)
	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "", svc.lastOwner)
}
