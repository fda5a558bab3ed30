package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-planner-api/internal/dto"
	"github.com/noah-isme/student-planner-api/internal/service"
	appErrors "github.com/noah-isme/student-planner-api/pkg/errors"
)

type fakeAgendaService struct {
	loc      *time.Location
	hit      bool
	err      error
	nowCalls int
	lastDate time.Time
	lastMode string
	skipped  int
	refresh  *time.Time
}

func (f *fakeAgendaService) Location() *time.Location {
	return f.loc
}

func (f *fakeAgendaService) Day(_ context.Context, ownerID string, date time.Time, mode string) (*dto.AgendaResponse, bool, error) {
	f.lastDate = date
	f.lastMode = mode
	if f.err != nil {
		return nil, false, f.err
	}
	return &dto.AgendaResponse{OwnerID: ownerID, Date: date.Format("2006-01-02"), Mode: mode}, f.hit, nil
}

func (f *fakeAgendaService) Now(_ context.Context, ownerID, mode string) (*dto.AgendaResponse, bool, error) {
	f.nowCalls++
	f.lastMode = mode
	if f.err != nil {
		return nil, false, f.err
	}
	return &dto.AgendaResponse{OwnerID: ownerID, Date: "today", Mode: mode, SkippedMeetings: f.skipped, RefreshAt: f.refresh}, f.hit, nil
}

type fakeExporter struct {
	req service.AgendaExportRequest
	err error
}

func (f *fakeExporter) Agenda(_ context.Context, _ string, req service.AgendaExportRequest) (*service.ExportFile, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &service.ExportFile{Filename: "agenda_20241111_20241112.csv", ContentType: "text/csv", Data: []byte("Date\n")}, nil
}

func TestAgendaHandlerDayParsesDateInAgendaZone(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	svc := &fakeAgendaService{loc: loc, hit: true}
	handler := NewAgendaHandler(svc, nil)

	c, w := newOwnerContext(http.MethodGet, "/agenda?date=2024-11-11&mode=date", nil)
	handler.Day(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2024, 11, 11, 0, 0, 0, 0, loc), svc.lastDate)
	assert.Equal(t, "date", svc.lastMode)
	assert.Zero(t, svc.nowCalls)

	envelope := decodeEnvelope(t, w)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	var agenda dto.AgendaResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &agenda))
	assert.Equal(t, "2024-11-11", agenda.Date)
}

func TestAgendaHandlerDayWithoutDateUsesNow(t *testing.T) {
	svc := &fakeAgendaService{loc: time.UTC}
	handler := NewAgendaHandler(svc, nil)

	c, w := newOwnerContext(http.MethodGet, "/agenda", nil)
	handler.Day(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.nowCalls)
	assert.Equal(t, false, decodeEnvelope(t, w).Meta["cache_hit"])
}

func TestAgendaHandlerNowReportsAgendaMeta(t *testing.T) {
	refresh := time.Date(2024, 11, 11, 12, 0, 0, 0, time.UTC)
	svc := &fakeAgendaService{loc: time.UTC, skipped: 2, refresh: &refresh}
	handler := NewAgendaHandler(svc, nil)

	c, w := newOwnerContext(http.MethodGet, "/agenda/now?mode=academic", nil)
	handler.Now(c)

	require.Equal(t, http.StatusOK, w.Code)
	meta := decodeEnvelope(t, w).Meta
	assert.Equal(t, "academic", meta["agenda_mode"])
	assert.Equal(t, float64(2), meta["skipped_meetings"])
	assert.Equal(t, "2024-11-11T12:00:00Z", meta["refresh_at"])
	assert.Equal(t, false, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestAgendaHandlerDayRejectsBadDate(t *testing.T) {
	handler := NewAgendaHandler(&fakeAgendaService{loc: time.UTC}, nil)

	c, w := newOwnerContext(http.MethodGet, "/agenda?date=11/11/2024", nil)
	handler.Day(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAgendaHandlerPropagatesModeErrors(t *testing.T) {
	svc := &fakeAgendaService{loc: time.UTC, err: appErrors.Clone(appErrors.ErrValidation, "unknown agenda mode")}
	handler := NewAgendaHandler(svc, nil)

	c, w := newOwnerContext(http.MethodGet, "/agenda/now?mode=lunar", nil)
	handler.Now(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "lunar", svc.lastMode)
}

func TestAgendaHandlerExport(t *testing.T) {
	exporter := &fakeExporter{}
	handler := NewAgendaHandler(&fakeAgendaService{loc: time.UTC}, exporter)

	c, w := newOwnerContext(http.MethodGet, "/agenda/export?from=2024-11-11&to=2024-11-12&format=csv&mode=academic", nil)
	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.AgendaExportRequest{From: "2024-11-11", To: "2024-11-12", Format: "csv", Mode: "academic"}, exporter.req)
	assert.Equal(t, `attachment; filename="agenda_20241111_20241112.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "Date\n", w.Body.String())
}

func TestAgendaHandlerExportDisabled(t *testing.T) {
	handler := NewAgendaHandler(&fakeAgendaService{loc: time.UTC}, nil)

	c, w := newOwnerContext(http.MethodGet, "/agenda/export?from=2024-11-11&to=2024-11-12", nil)
	handler.Export(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
