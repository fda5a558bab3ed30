package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-planner-api/internal/dto"
	"github.com/noah-isme/student-planner-api/internal/middleware"
	"github.com/noah-isme/student-planner-api/internal/service"
	appErrors "github.com/noah-isme/student-planner-api/pkg/errors"
	"github.com/noah-isme/student-planner-api/pkg/response"
)

type agendaService interface {
	Day(ctx context.Context, ownerID string, date time.Time, mode string) (*dto.AgendaResponse, bool, error)
	Now(ctx context.Context, ownerID, mode string) (*dto.AgendaResponse, bool, error)
	Location() *time.Location
}

type agendaExporter interface {
	Agenda(ctx context.Context, ownerID string, req service.AgendaExportRequest) (*service.ExportFile, error)
}

// AgendaHandler serves expanded day agendas.
type AgendaHandler struct {
	agenda   agendaService
	exporter agendaExporter
}

// NewAgendaHandler constructs the handler. exporter may be nil when exports are not served.
func NewAgendaHandler(agenda agendaService, exporter agendaExporter) *AgendaHandler {
	return &AgendaHandler{agenda: agenda, exporter: exporter}
}

// Day godoc
// @Summary Agenda of one day
// @Description Expands every subject into the day's classes and classifies them against the current time.
// @Tags Agenda
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD). Defaults to today"
// @Param mode query string false "academic or date"
// @Success 200 {object} response.Envelope
// @Router /agenda [get]
func (h *AgendaHandler) Day(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	start := time.Now()
	mode := c.Query("mode")
	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		agenda, hit, err := h.agenda.Now(c.Request.Context(), owner, mode)
		if err != nil {
			response.Error(c, err)
			return
		}
		respondAgenda(c, agenda, hit, start)
		return
	}

	date, err := time.ParseInLocation("2006-01-02", raw, h.agenda.Location())
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	agenda, hit, err := h.agenda.Day(c.Request.Context(), owner, date, mode)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondAgenda(c, agenda, hit, start)
}

// Now godoc
// @Summary Current, next and remaining classes
// @Tags Agenda
// @Produce json
// @Param mode query string false "academic or date"
// @Success 200 {object} response.Envelope
// @Router /agenda/now [get]
func (h *AgendaHandler) Now(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	start := time.Now()
	agenda, hit, err := h.agenda.Now(c.Request.Context(), owner, c.Query("mode"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondAgenda(c, agenda, hit, start)
}

func respondAgenda(c *gin.Context, agenda *dto.AgendaResponse, hit bool, start time.Time) {
	middleware.SetAgendaMeta(c, agenda.Mode, agenda.SkippedMeetings, agenda.RefreshAt)
	respondCached(c, agenda, hit, start)
}

// Export godoc
// @Summary Export agendas of a date range
// @Tags Agenda
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param from query string true "First day (YYYY-MM-DD)"
// @Param to query string true "Last day (YYYY-MM-DD)"
// @Param format query string false "csv, pdf or xlsx"
// @Param mode query string false "academic or date"
// @Success 200 {file} file
// @Router /agenda/export [get]
func (h *AgendaHandler) Export(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "agenda export is disabled"))
		return
	}
	var req service.AgendaExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query"))
		return
	}
	file, err := h.exporter.Agenda(c.Request.Context(), owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
