package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-planner-api/internal/dto"
	"github.com/noah-isme/student-planner-api/internal/service"
	appErrors "github.com/noah-isme/student-planner-api/pkg/errors"
	"github.com/noah-isme/student-planner-api/pkg/jobs"
	"github.com/noah-isme/student-planner-api/pkg/response"
)

type widgetService interface {
	Enabled() bool
	Snapshot(ctx context.Context, ownerID string) (*dto.WidgetSnapshotResponse, error)
}

type refreshQueue interface {
	Enqueue(job jobs.Job) error
}

// WidgetHandler serves precomputed widget snapshots.
type WidgetHandler struct {
	widgets widgetService
	queue   refreshQueue
}

// NewWidgetHandler constructs the handler.
func NewWidgetHandler(widgets widgetService, queue refreshQueue) *WidgetHandler {
	return &WidgetHandler{widgets: widgets, queue: queue}
}

// Snapshot godoc
// @Summary Stored widget snapshot
// @Tags Widgets
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /widgets/snapshot [get]
func (h *WidgetHandler) Snapshot(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	snapshot, err := h.widgets.Snapshot(c.Request.Context(), owner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// Refresh godoc
// @Summary Queue a widget snapshot refresh
// @Tags Widgets
// @Produce json
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /widgets/refresh [post]
func (h *WidgetHandler) Refresh(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	if !h.widgets.Enabled() || h.queue == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "widget snapshots are disabled"))
		return
	}
	job := jobs.Job{Type: service.JobTypeWidgetRefresh, Key: owner, Payload: owner}
	if err := h.queue.Enqueue(job); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "refresh queue is busy"))
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"ownerId": owner, "queued": true}, nil)
}
