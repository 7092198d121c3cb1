package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/saeid-a/CoachBookingBack/internal/availability"
	"github.com/saeid-a/CoachBookingBack/internal/models"
	"github.com/saeid-a/CoachBookingBack/internal/repository"
)

const canceledByStudent = "student"

type CancelInput struct {
	LessonID int64  `json:"lesson_id"`
	TestDate string `json:"test_date"`
	TestTime string `json:"test_time"`
}

type CancellationResult struct {
	CancellationCount  int             `json:"cancellation_count"`
	AllowedWindowHours float64         `json:"allowed_window_hours"`
	IsPenalty          bool            `json:"is_penalty"`
	Lesson             *models.Lesson  `json:"lesson"`
	Invoice            *models.Invoice `json:"invoice,omitempty"`
}

type CancellationService struct {
	deps Deps
}

func NewCancellationService(deps Deps) *CancellationService {
	return &CancellationService{deps: deps.withDefaults()}
}

// CancelByStudent applies the notice-window tiers: a cancellation after the
// deadline leaves a penalty invoice that must be settled.
func (s *CancellationService) CancelByStudent(
	ctx context.Context,
	identity models.Identity,
	input CancelInput,
) (*CancellationResult, error) {
	if err := requireRole(identity, models.RoleStudent); err != nil {
		return nil, err
	}
	if input.LessonID <= 0 {
		return nil, ErrMissingField
	}
	now, err := s.clock(input)
	if err != nil {
		return nil, err
	}

	var result *CancellationResult
	err = s.deps.Store.WithinTx(ctx, func(tx repository.Store) error {
		lesson, err := tx.Lessons().GetByIDForUpdate(ctx, input.LessonID)
		if err != nil {
			return notFound(err, ErrNotFound)
		}
		if lesson.StudentUID != identity.UID {
			return ErrNotFound
		}
		if lesson.Status == models.LessonCanceled {
			return ErrAlreadyCanceled
		}

		prior, err := tx.Invoices().CountByStudentStatus(ctx, identity.UID, models.InvoiceCanceled)
		if err != nil {
			return err
		}
		lessonStart, err := availability.At(lesson.Date, lesson.StartTime, s.deps.Location)
		if err != nil {
			return err
		}
		outcome := s.deps.Policy.EvaluateCancellation(prior, lessonStart, now)

		invoiceStatus := models.InvoiceCanceled
		if outcome.Late {
			invoiceStatus = models.InvoiceCanceledPenalty
		}
		invoice, err := s.settleInvoice(ctx, tx, lesson.ID, invoiceStatus)
		if err != nil {
			return err
		}

		canceled, err := tx.Lessons().Cancel(ctx, lesson.ID, canceledByStudent)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAlreadyCanceled
			}
			return err
		}

		if err := appendEvent(ctx, tx, models.EventLessonCanceled, canceled, map[string]any{
			"canceled_by": canceledByStudent,
			"is_penalty":  outcome.Late,
		}); err != nil {
			return err
		}

		result = &CancellationResult{
			CancellationCount:  outcome.PriorCancellations,
			AllowedWindowHours: outcome.Window.Hours(),
			IsPenalty:          outcome.Late,
			Lesson:             canceled,
			Invoice:            invoice,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Notifier.AvailabilityChanged(result.Lesson.CoachUID, result.Lesson.Date)
	return result, nil
}

// CancelByCoach cancels without notice tiers; the invoice is voided.
func (s *CancellationService) CancelByCoach(
	ctx context.Context,
	identity models.Identity,
	lessonID int64,
) (*CancellationResult, error) {
	if err := requireRole(identity, models.RoleCoach); err != nil {
		return nil, err
	}
	if lessonID <= 0 {
		return nil, ErrMissingField
	}

	var result *CancellationResult
	err := s.deps.Store.WithinTx(ctx, func(tx repository.Store) error {
		lesson, err := tx.Lessons().GetByIDForUpdate(ctx, lessonID)
		if err != nil {
			return notFound(err, ErrNotFound)
		}
		if lesson.CoachUID != identity.UID {
			return ErrNotFound
		}
		if lesson.Status == models.LessonCanceled {
			return ErrAlreadyCanceled
		}

		invoice, err := s.settleInvoice(ctx, tx, lesson.ID, models.InvoiceCanceledCoach)
		if err != nil {
			return err
		}
		canceled, err := tx.Lessons().Cancel(ctx, lesson.ID, identity.UID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAlreadyCanceled
			}
			return err
		}

		if err := appendEvent(ctx, tx, models.EventLessonCanceled, canceled, map[string]any{
			"canceled_by": identity.UID,
			"is_penalty":  false,
		}); err != nil {
			return err
		}

		result = &CancellationResult{Lesson: canceled, Invoice: invoice}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Notifier.AvailabilityChanged(result.Lesson.CoachUID, result.Lesson.Date)
	return result, nil
}

// settleInvoice moves the lesson's invoice to status whatever it held before.
// Every lesson is booked with exactly one invoice.
func (s *CancellationService) settleInvoice(
	ctx context.Context,
	tx repository.Store,
	lessonID int64,
	status models.InvoiceStatus,
) (*models.Invoice, error) {
	if _, err := tx.Invoices().GetByLessonID(ctx, lessonID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("lesson %d has no invoice", lessonID)
		}
		return nil, err
	}
	return tx.Invoices().SetStatusByLessonID(ctx, lessonID, status)
}

// clock returns the instant the cancellation is judged at. The test override
// only applies when both date and time are given.
func (s *CancellationService) clock(input CancelInput) (time.Time, error) {
	date, clock := strings.TrimSpace(input.TestDate), strings.TrimSpace(input.TestTime)
	if date == "" || clock == "" {
		return s.deps.Now(), nil
	}
	at, err := availability.At(date, clock, s.deps.Location)
	if err != nil {
		return time.Time{}, ErrInvalidInput
	}
	return at, nil
}
