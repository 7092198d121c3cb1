package repository

import (
	"context"

	"github.com/saeid-a/CoachBookingBack/internal/models"
)

type EventStore interface {
	Append(ctx context.Context, event models.LessonEvent) error
	// ClaimUnpublished locks up to limit pending events; it must run inside a
	// transaction so concurrent publishers skip each other's rows.
	ClaimUnpublished(ctx context.Context, limit int) ([]models.LessonEvent, error)
	MarkPublished(ctx context.Context, ids []int64) error
}

type EventRepository struct {
	db DBTX
}

func NewEventRepository(db DBTX) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Append(ctx context.Context, event models.LessonEvent) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO lesson_events (event_type, lesson_id, coach_uid, student_uid, payload)
		VALUES ($1, $2, $3, $4, $5)
	`, event.Type, event.LessonID, event.CoachUID, event.StudentUID, []byte(event.Payload))
	return translate(err)
}

func (r *EventRepository) ClaimUnpublished(ctx context.Context, limit int) ([]models.LessonEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, event_type, lesson_id, coach_uid::text, student_uid::text, payload, created_at
		FROM lesson_events
		WHERE published_at IS NULL
		ORDER BY id ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	events := make([]models.LessonEvent, 0)
	for rows.Next() {
		var event models.LessonEvent
		var payload []byte
		if err := rows.Scan(
			&event.ID,
			&event.Type,
			&event.LessonID,
			&event.CoachUID,
			&event.StudentUID,
			&payload,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		event.Payload = payload
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *EventRepository) MarkPublished(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `UPDATE lesson_events SET published_at = NOW() WHERE id = ANY($1)`, ids)
	return translate(err)
}
