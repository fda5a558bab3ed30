package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-planner-api/internal/dto"
	"github.com/noah-isme/student-planner-api/pkg/response"
)

type summaryService interface {
	Subject(ctx context.Context, ownerID, subjectID string) (*dto.SubjectSummaryResponse, error)
	Performance(ctx context.Context, ownerID string) (*dto.PerformanceResponse, error)
}

// SummaryHandler serves attendance and grade rollups.
type SummaryHandler struct {
	service summaryService
}

// NewSummaryHandler constructs the handler.
func NewSummaryHandler(svc summaryService) *SummaryHandler {
	return &SummaryHandler{service: svc}
}

// Subject godoc
// @Summary Subject summary card
// @Tags Summary
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /summary/subjects/{id} [get]
func (h *SummaryHandler) Subject(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	summary, err := h.service.Subject(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Performance godoc
// @Summary Performance across all subjects
// @Tags Summary
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /summary/performance [get]
func (h *SummaryHandler) Performance(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	performance, err := h.service.Performance(c.Request.Context(), owner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, performance, nil)
}
