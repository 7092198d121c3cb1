package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachBookingBack/internal/models"
	"github.com/saeid-a/CoachBookingBack/internal/services"
)

type LessonHandler struct {
	booking      bookingApplicationService
	lessons      lessonApplicationService
	cancellation cancellationApplicationService
	logger       *slog.Logger
}

type bookingApplicationService interface {
	BookLesson(ctx context.Context, identity models.Identity, input services.BookLessonInput) (*models.LessonDetail, error)
}

type lessonApplicationService interface {
	ListCurrent(ctx context.Context, identity models.Identity) ([]models.LessonDetail, error)
	UpdateStatus(ctx context.Context, identity models.Identity, lessonID int64, next models.LessonStatus) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, identity models.Identity, lessonID int64) error
}

type cancellationApplicationService interface {
	CancelByStudent(ctx context.Context, identity models.Identity, input services.CancelInput) (*services.CancellationResult, error)
	CancelByCoach(ctx context.Context, identity models.Identity, lessonID int64) (*services.CancellationResult, error)
}

func NewLessonHandler(
	booking *services.BookingService,
	lessons *services.LessonService,
	cancellation *services.CancellationService,
	logger *slog.Logger,
) *LessonHandler {
	return &LessonHandler{
		booking:      booking,
		lessons:      lessons,
		cancellation: cancellation,
		logger:       logger,
	}
}

type updateLessonStatusRequest struct {
	Status string `json:"status"`
}

type cancelLessonRequest struct {
	TestDate string `json:"test_date"`
	TestTime string `json:"test_time"`
}

func (h *LessonHandler) BookLesson(c *fiber.Ctx) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	var req services.BookLessonInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	detail, err := h.booking.BookLesson(c.Context(), identity, req)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"lesson": detail})
}

func (h *LessonHandler) ListCurrent(c *fiber.Ctx) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	lessons, err := h.lessons.ListCurrent(c.Context(), identity)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"lessons": lessons})
}

func (h *LessonHandler) UpdateStatus(c *fiber.Ctx) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	lessonID, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid lesson id")
	}

	var req updateLessonStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status == "" {
		return badRequest(c, "status is required")
	}

	lesson, err := h.lessons.UpdateStatus(c.Context(), identity, lessonID, models.LessonStatus(status))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"lesson": lesson})
}

func (h *LessonHandler) DeleteLesson(c *fiber.Ctx) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	lessonID, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid lesson id")
	}

	if err := h.lessons.DeleteLesson(c.Context(), identity, lessonID); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Lesson deleted"})
}

// CancelLesson dispatches on the caller's role. Students may pass test_date
// and test_time to evaluate the notice window at a fixed instant.
func (h *LessonHandler) CancelLesson(c *fiber.Ctx) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	lessonID, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid lesson id")
	}

	var result *services.CancellationResult
	switch {
	case identity.IsStudent():
		var req cancelLessonRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, "Invalid request body")
			}
		}
		result, err = h.cancellation.CancelByStudent(c.Context(), identity, services.CancelInput{
			LessonID: lessonID,
			TestDate: req.TestDate,
			TestTime: req.TestTime,
		})
	case identity.IsCoach():
		result, err = h.cancellation.CancelByCoach(c.Context(), identity, lessonID)
	default:
		err = services.ErrForbidden
	}
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(result)
}
