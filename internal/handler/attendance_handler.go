package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-planner-api/internal/models"
	"github.com/noah-isme/student-planner-api/internal/service"
	"github.com/noah-isme/student-planner-api/pkg/response"
)

type attendanceService interface {
	List(ctx context.Context, ownerID, subjectID string) ([]models.AttendanceEntry, error)
	Record(ctx context.Context, ownerID, subjectID string, req service.RecordAttendanceRequest) (*models.AttendanceEntry, error)
	MarkCurrent(ctx context.Context, ownerID string, req service.MarkCurrentRequest) (*service.MarkCurrentResult, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// AttendanceHandler exposes attendance endpoints.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// List godoc
// @Summary List attendance of a subject
// @Tags Attendance
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	entries, err := h.service.List(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Record godoc
// @Summary Record attendance for a subject
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body service.RecordAttendanceRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Router /subjects/{id}/attendance [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	var req service.RecordAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := h.service.Record(c.Request.Context(), owner, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// MarkCurrent godoc
// @Summary Mark attendance for the class in progress
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.MarkCurrentRequest true "Attendance status"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/now [post]
func (h *AttendanceHandler) MarkCurrent(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	var req service.MarkCurrentRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.MarkCurrent(c.Request.Context(), owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Delete godoc
// @Summary Delete an attendance entry
// @Tags Attendance
// @Param id path string true "Attendance ID"
// @Success 204
// @Router /attendance/{id} [delete]
func (h *AttendanceHandler) Delete(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), owner, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
