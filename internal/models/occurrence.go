package models

import "time"

// Occurrence is one concrete meeting of a subject on a calendar day.
type Occurrence struct {
	SubjectID    string      `json:"subject_id"`
	DisplayTitle string      `json:"display_title"`
	Room         string      `json:"room"`
	Instructor   string      `json:"instructor"`
	Kind         MeetingKind `json:"kind"`
	StartAt      time.Time   `json:"start_at"`
	EndAt        time.Time   `json:"end_at"`
}
