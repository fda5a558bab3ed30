package dto

import (
	"time"

	"github.com/noah-isme/student-planner-api/internal/models"
)

// AgendaDay is the cacheable part of an agenda: the expanded day, before it
// is classified against a clock.
type AgendaDay struct {
	OwnerID          string              `json:"ownerId"`
	Date             string              `json:"date"`
	Mode             string              `json:"mode"`
	WeekNumber       *int                `json:"weekNumber,omitempty"`
	CalendarResolved bool                `json:"calendarResolved"`
	Timezone         string              `json:"timezone"`
	Occurrences      []models.Occurrence `json:"occurrences"`
	SkippedMeetings  int                 `json:"skippedMeetings"`
	BuiltAt          time.Time           `json:"builtAt"`
}

// AgendaOccurrence is an occurrence tagged with its state at the response's reference time.
type AgendaOccurrence struct {
	models.Occurrence
	State string `json:"state"`
}

// AgendaResponse is a day agenda classified against a reference instant.
type AgendaResponse struct {
	OwnerID          string              `json:"ownerId"`
	Date             string              `json:"date"`
	Mode             string              `json:"mode"`
	WeekNumber       *int                `json:"weekNumber,omitempty"`
	CalendarResolved bool                `json:"calendarResolved"`
	Timezone         string              `json:"timezone"`
	Now              time.Time           `json:"now"`
	Occurrences      []AgendaOccurrence  `json:"occurrences"`
	Current          *models.Occurrence  `json:"current"`
	Next             *models.Occurrence  `json:"next"`
	Remaining        []models.Occurrence `json:"remaining"`
	RefreshAt        *time.Time          `json:"refreshAt,omitempty"`
	SkippedMeetings  int                 `json:"skippedMeetings"`
}
