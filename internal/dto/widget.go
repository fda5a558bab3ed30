package dto

import (
	"time"

	"github.com/noah-isme/student-planner-api/internal/models"
)

// WidgetTask is the slim task shape shown on a widget.
type WidgetTask struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	DueDate   *time.Time          `json:"dueDate,omitempty"`
	Priority  models.TaskPriority `json:"priority"`
	IsFlagged bool                `json:"isFlagged"`
}

// WidgetSnapshot is what a home-screen widget renders without calling the API.
type WidgetSnapshot struct {
	OwnerID     string              `json:"ownerId"`
	Date        string              `json:"date"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Current     *models.Occurrence  `json:"current"`
	Next        *models.Occurrence  `json:"next"`
	Remaining   []models.Occurrence `json:"remaining"`
	TasksDue    []WidgetTask        `json:"tasksDue"`
	RefreshAt   *time.Time          `json:"refreshAt,omitempty"`
}

// WidgetSnapshotResponse wraps a stored snapshot with its freshness.
type WidgetSnapshotResponse struct {
	Snapshot WidgetSnapshot `json:"snapshot"`
	Stale    bool           `json:"stale"`
}

// WidgetRefreshResult summarises a RefreshAll run.
type WidgetRefreshResult struct {
	Owners    int `json:"owners"`
	Refreshed int `json:"refreshed"`
	Failed    int `json:"failed"`
}
