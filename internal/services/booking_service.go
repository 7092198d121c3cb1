package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/saeid-a/CoachBookingBack/internal/availability"
	"github.com/saeid-a/CoachBookingBack/internal/models"
	"github.com/saeid-a/CoachBookingBack/internal/repository"
)

type BookLessonInput struct {
	CoachUID   string              `json:"coach_uid"`
	StudentUID string              `json:"student_uid"`
	Date       string              `json:"date"`
	StartTime  string              `json:"start_time"`
	EndTime    string              `json:"end_time"`
	Status     models.LessonStatus `json:"status"`
}

type BookingService struct {
	deps Deps
}

func NewBookingService(deps Deps) *BookingService {
	return &BookingService{deps: deps.withDefaults()}
}

// BookLesson creates a lesson and its invoice atomically. Students book with a
// coach_uid, coaches book on behalf of a student_uid.
func (s *BookingService) BookLesson(
	ctx context.Context,
	identity models.Identity,
	input BookLessonInput,
) (*models.LessonDetail, error) {
	var coachUID, studentUID string
	switch identity.Role {
	case models.RoleStudent:
		coachUID, studentUID = strings.TrimSpace(input.CoachUID), identity.UID
		if coachUID == "" {
			return nil, ErrMissingField
		}
	case models.RoleCoach:
		coachUID, studentUID = identity.UID, strings.TrimSpace(input.StudentUID)
		if studentUID == "" {
			return nil, ErrMissingField
		}
	default:
		return nil, ErrForbidden
	}
	if strings.TrimSpace(input.Date) == "" || strings.TrimSpace(input.StartTime) == "" ||
		strings.TrimSpace(input.EndTime) == "" {
		return nil, ErrMissingField
	}

	date, err := availability.NormalizeDate(input.Date)
	if err != nil {
		return nil, ErrInvalidInput
	}
	start, err := availability.NormalizeClock(input.StartTime)
	if err != nil {
		return nil, ErrInvalidInput
	}
	end, err := availability.NormalizeClock(input.EndTime)
	if err != nil {
		return nil, ErrInvalidInput
	}
	if end <= start || date < s.deps.today() {
		return nil, ErrInvalidInput
	}

	status := input.Status
	if status == "" {
		status = models.LessonPending
	}
	switch {
	case identity.IsStudent() && status != models.LessonPending:
		// Only the coach confirms; students always start pending.
		return nil, ErrInvalidStatus
	case status != models.LessonPending && status != models.LessonConfirmed:
		return nil, ErrInvalidStatus
	}

	if err := s.checkCounterpart(ctx, identity, coachUID, studentUID); err != nil {
		return nil, err
	}

	var detail *models.LessonDetail
	err = s.deps.Store.WithinTx(ctx, func(tx repository.Store) error {
		// Coach before student keeps the lock order acyclic.
		if err := tx.LockKey(ctx, "coach:"+coachUID); err != nil {
			return err
		}
		if err := tx.LockKey(ctx, "student:"+studentUID); err != nil {
			return err
		}

		if identity.IsStudent() {
			if err := s.checkEligibility(ctx, tx, studentUID); err != nil {
				return err
			}
		}

		taken, err := tx.Lessons().SlotTaken(ctx, repository.SlotQuery{
			CoachUID:  coachUID,
			Date:      date,
			StartTime: start,
			EndTime:   end,
		})
		if err != nil {
			return err
		}
		if taken {
			return ErrSlotConflict
		}
		if identity.IsCoach() {
			taken, err = tx.Lessons().SlotTaken(ctx, repository.SlotQuery{
				StudentUID: studentUID,
				Date:       date,
				StartTime:  start,
				EndTime:    end,
			})
			if err != nil {
				return err
			}
			if taken {
				return ErrSlotConflict
			}
		}

		lesson, err := tx.Lessons().Create(ctx, repository.CreateLessonInput{
			CoachUID:   coachUID,
			StudentUID: studentUID,
			Date:       date,
			StartTime:  start,
			EndTime:    end,
			Status:     status,
		})
		if err != nil {
			return err
		}

		invoice, err := tx.Invoices().Create(ctx, repository.CreateInvoiceInput{
			InvoiceUID: uuid.NewString(),
			LessonID:   lesson.ID,
			StudentUID: studentUID,
			CoachUID:   coachUID,
			Amount:     s.deps.Policy.LessonRate,
			Status:     models.InvoiceUnpaid,
		})
		if err != nil {
			return err
		}

		if err := appendEvent(ctx, tx, models.EventLessonBooked, lesson, map[string]any{
			"lesson_date": lesson.Date,
			"start_time":  lesson.StartTime,
			"end_time":    lesson.EndTime,
			"invoice_uid": invoice.InvoiceUID,
			"amount":      invoice.Amount.StringFixed(2),
		}); err != nil {
			return err
		}

		detail = &models.LessonDetail{Lesson: *lesson, Invoice: invoice}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrSlotConflict
		}
		return nil, err
	}

	s.deps.Notifier.AvailabilityChanged(coachUID, date)
	return detail, nil
}

func (s *BookingService) checkCounterpart(ctx context.Context, identity models.Identity, coachUID, studentUID string) error {
	if identity.IsStudent() {
		coach, err := s.deps.Store.Users().GetByUID(ctx, coachUID)
		if err != nil {
			return notFound(err, ErrCoachNotFound)
		}
		if coach.Role != models.RoleCoach {
			return ErrCoachNotFound
		}
		return nil
	}

	student, err := s.deps.Store.Users().GetByUID(ctx, studentUID)
	if err != nil {
		return notFound(err, ErrStudentNotFound)
	}
	if student.Role != models.RoleStudent {
		return ErrStudentNotFound
	}
	return nil
}

func (s *BookingService) checkEligibility(ctx context.Context, tx repository.Store, studentUID string) error {
	pending, err := tx.Lessons().CountByStudentStatus(ctx, studentUID, models.LessonPending)
	if err != nil {
		return err
	}
	if pending >= s.deps.Policy.MaxPendingLessons {
		return ErrTooManyPending
	}

	outstanding, err := tx.Invoices().CountByStudentStatus(ctx, studentUID, models.OutstandingInvoiceStatuses()...)
	if err != nil {
		return err
	}
	if outstanding > 0 {
		return ErrOutstandingBalance
	}
	return nil
}
