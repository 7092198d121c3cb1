package services

import (
	"context"
	"errors"

	"github.com/saeid-a/CoachBookingBack/internal/availability"
	"github.com/saeid-a/CoachBookingBack/internal/models"
	"github.com/saeid-a/CoachBookingBack/internal/repository"
)

type LessonService struct {
	deps Deps
}

func NewLessonService(deps Deps) *LessonService {
	return &LessonService{deps: deps.withDefaults()}
}

// ListCurrent returns the caller's lessons from today on, each with its invoice.
func (s *LessonService) ListCurrent(ctx context.Context, identity models.Identity) ([]models.LessonDetail, error) {
	filter := repository.LessonListFilter{FromDate: s.deps.today()}
	switch identity.Role {
	case models.RoleCoach:
		filter.CoachUID = identity.UID
	case models.RoleStudent:
		filter.StudentUID = identity.UID
	default:
		return nil, ErrForbidden
	}

	lessons, err := s.deps.Store.Lessons().List(ctx, filter)
	if err != nil {
		return nil, err
	}

	lessonIDs := make([]int64, 0, len(lessons))
	for _, lesson := range lessons {
		lessonIDs = append(lessonIDs, lesson.ID)
	}
	invoicesByLesson, err := s.deps.Store.Invoices().ListByLessonIDs(ctx, lessonIDs)
	if err != nil {
		return nil, err
	}

	details := make([]models.LessonDetail, 0, len(lessons))
	for _, lesson := range lessons {
		detail := models.LessonDetail{Lesson: lesson}
		if invoice, ok := invoicesByLesson[lesson.ID]; ok {
			invoiceCopy := invoice
			detail.Invoice = &invoiceCopy
		}
		details = append(details, detail)
	}
	return details, nil
}

// UpdateStatus lets the coach confirm a pending lesson or complete a confirmed
// one once it has ended. Cancellation has its own operations.
func (s *LessonService) UpdateStatus(
	ctx context.Context,
	identity models.Identity,
	lessonID int64,
	next models.LessonStatus,
) (*models.Lesson, error) {
	if err := requireRole(identity, models.RoleCoach); err != nil {
		return nil, err
	}
	switch next {
	case models.LessonConfirmed, models.LessonCompleted:
	case models.LessonPending, models.LessonCanceled:
		return nil, ErrInvalidStateTransition
	default:
		return nil, ErrInvalidStatus
	}

	var updated *models.Lesson
	err := s.deps.Store.WithinTx(ctx, func(tx repository.Store) error {
		lesson, err := tx.Lessons().GetByIDForUpdate(ctx, lessonID)
		if err != nil {
			return notFound(err, ErrNotFound)
		}
		if lesson.CoachUID != identity.UID {
			return ErrNotFound
		}
		if err := s.validateTransition(lesson, next); err != nil {
			return err
		}

		updated, err = tx.Lessons().UpdateStatusIfCurrent(ctx, lesson.ID, lesson.Status, next)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidStateTransition
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *LessonService) validateTransition(lesson *models.Lesson, next models.LessonStatus) error {
	switch {
	case lesson.Status == next:
		return ErrInvalidStateTransition
	case lesson.Status == models.LessonPending && next == models.LessonConfirmed:
		return nil
	case lesson.Status == models.LessonConfirmed && next == models.LessonCompleted:
		end, err := availability.At(lesson.Date, lesson.EndTime, s.deps.Location)
		if err != nil {
			return err
		}
		if s.deps.Now().Before(end) {
			return ErrInvalidStateTransition
		}
		return nil
	default:
		return ErrInvalidStateTransition
	}
}

// DeleteLesson removes a lesson nobody has committed to yet: still pending with
// an unpaid invoice. The invoice goes with it.
func (s *LessonService) DeleteLesson(ctx context.Context, identity models.Identity, lessonID int64) error {
	if err := requireRole(identity, models.RoleCoach, models.RoleAdmin); err != nil {
		return err
	}

	var deleted *models.Lesson
	err := s.deps.Store.WithinTx(ctx, func(tx repository.Store) error {
		lesson, err := tx.Lessons().GetByIDForUpdate(ctx, lessonID)
		if err != nil {
			return notFound(err, ErrNotFound)
		}
		if identity.IsCoach() && lesson.CoachUID != identity.UID {
			return ErrNotFound
		}
		if lesson.Status != models.LessonPending {
			return ErrInvalidStateTransition
		}

		invoice, err := tx.Invoices().GetByLessonID(ctx, lesson.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if invoice != nil && invoice.Status != models.InvoiceUnpaid {
			return ErrInvalidStateTransition
		}

		if err := tx.Lessons().Delete(ctx, lesson.ID); err != nil {
			return notFound(err, ErrNotFound)
		}
		deleted = lesson
		return nil
	})
	if err != nil {
		return err
	}

	s.deps.Notifier.AvailabilityChanged(deleted.CoachUID, deleted.Date)
	return nil
}
