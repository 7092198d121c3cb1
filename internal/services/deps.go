package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/saeid-a/CoachBookingBack/internal/availability"
	"github.com/saeid-a/CoachBookingBack/internal/models"
	"github.com/saeid-a/CoachBookingBack/internal/policy"
	"github.com/saeid-a/CoachBookingBack/internal/repository"
)

// Notifier is told about committed changes that alter a coach's free blocks.
type Notifier interface {
	AvailabilityChanged(coachUID, date string)
}

type noopNotifier struct{}

func (noopNotifier) AvailabilityChanged(string, string) {}

// Deps are the collaborators shared by every service.
type Deps struct {
	Store    repository.Store
	Policy   policy.Booking
	Notifier Notifier
	Logger   *slog.Logger
	Location *time.Location
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Notifier == nil {
		d.Notifier = noopNotifier{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Policy.MaxPendingLessons == 0 && len(d.Policy.NoticeTiers) == 0 {
		d.Policy = policy.Default()
	}
	return d
}

func (d Deps) today() string {
	return availability.Today(d.Now(), d.Location)
}

func requireRole(identity models.Identity, roles ...models.Role) error {
	for _, role := range roles {
		if identity.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

func notFound(err error, target *Error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return target
	}
	return err
}

func appendEvent(ctx context.Context, store repository.Store, eventType string, lesson *models.Lesson, payload any) error {
	event, err := newLessonEvent(eventType, lesson, payload)
	if err != nil {
		return err
	}
	return store.Events().Append(ctx, event)
}
