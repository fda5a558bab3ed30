package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-planner-api/internal/models"
	"github.com/noah-isme/student-planner-api/internal/service"
	appErrors "github.com/noah-isme/student-planner-api/pkg/errors"
	"github.com/noah-isme/student-planner-api/pkg/response"
)

type taskService interface {
	List(ctx context.Context, ownerID string, filter models.TaskFilter) ([]models.Task, *models.Pagination, error)
	Create(ctx context.Context, ownerID string, req service.TaskRequest) (*models.Task, error)
	Update(ctx context.Context, ownerID, id string, req service.TaskRequest) (*models.Task, error)
	ToggleComplete(ctx context.Context, ownerID, id string) (*models.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// TaskHandler exposes to-do endpoints.
type TaskHandler struct {
	service taskService
}

// NewTaskHandler constructs the handler.
func NewTaskHandler(svc taskService) *TaskHandler {
	return &TaskHandler{service: svc}
}

// List godoc
// @Summary List tasks
// @Tags Tasks
// @Produce json
// @Param subjectId query string false "Filter by subject"
// @Param completed query bool false "Filter by completion"
// @Param flagged query bool false "Filter by flag"
// @Param dueBefore query string false "RFC3339 upper bound on the due date"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	filter := models.TaskFilter{
		SubjectID: strings.TrimSpace(c.Query("subjectId")),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "limit", 20),
	}
	var err error
	if filter.Completed, err = queryBool(c, "completed"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.Flagged, err = queryBool(c, "flagged"); err != nil {
		response.Error(c, err)
		return
	}
	if raw := strings.TrimSpace(c.Query("dueBefore")); raw != "" {
		due, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dueBefore must be RFC3339"))
			return
		}
		filter.DueBefore = &due
	}

	tasks, pagination, err := h.service.List(c.Request.Context(), owner, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, pagination)
}

// Create godoc
// @Summary Create task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body service.TaskRequest true "Task payload"
// @Success 201 {object} response.Envelope
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	var req service.TaskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.service.Create(c.Request.Context(), owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// Update godoc
// @Summary Replace task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body service.TaskRequest true "Task payload"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	var req service.TaskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.service.Update(c.Request.Context(), owner, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// Toggle godoc
// @Summary Flip task completion
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/toggle [post]
func (h *TaskHandler) Toggle(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}
	task, err := h.service.ToggleComplete(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// Delete godoc
// @Summary Delete task
// @Tags Tasks
// @Param id path string true "Task ID"
// @Success 204
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
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
