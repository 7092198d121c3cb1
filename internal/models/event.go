package models

import (
	"encoding/json"
	"time"
)

const (
	EventLessonBooked   = "lesson.booked"
	EventLessonCanceled = "lesson.canceled"
	EventInvoicePaid    = "invoice.paid"
)

// LessonEvent is an outbox row written in the same transaction as the state
// change it describes.
type LessonEvent struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	LessonID    int64           `json:"lesson_id"`
	CoachUID    string          `json:"coach_uid"`
	StudentUID  string          `json:"student_uid"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
	PublishedAt *time.Time      `json:"published_at,omitempty"`
}
