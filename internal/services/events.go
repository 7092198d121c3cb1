package services

import (
	"encoding/json"

	"github.com/saeid-a/CoachBookingBack/internal/models"
)

func newLessonEvent(eventType string, lesson *models.Lesson, payload any) (models.LessonEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return models.LessonEvent{}, err
	}
	return models.LessonEvent{
		Type:       eventType,
		LessonID:   lesson.ID,
		CoachUID:   lesson.CoachUID,
		StudentUID: lesson.StudentUID,
		Payload:    body,
	}, nil
}
