package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachBookingBack/internal/models"
	"github.com/saeid-a/CoachBookingBack/internal/services"
)

type AvailabilityHandler struct {
	service availabilityApplicationService
	logger  *slog.Logger
}

type availabilityApplicationService interface {
	CreateAvailability(ctx context.Context, identity models.Identity, entries []services.AvailabilityInput) ([]models.Availability, error)
	UpdateAvailability(ctx context.Context, identity models.Identity, id int64, input services.AvailabilityInput) (*models.Availability, error)
	DeleteAvailability(ctx context.Context, identity models.Identity, id int64) error
	CoachView(ctx context.Context, identity models.Identity) ([]models.AvailableSlot, error)
	StudentView(ctx context.Context, identity models.Identity, coachUID string) ([]models.PublicSlot, error)
}

func NewAvailabilityHandler(service *services.AvailabilityService, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{service: service, logger: logger}
}

// CreateAvailability accepts a JSON array of entries. A single object is
// rejected rather than wrapped.
func (h *AvailabilityHandler) CreateAvailability(c *fiber.Ctx) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return badRequest(c, "Request body must be a JSON array of availability entries")
	}
	entries := make([]services.AvailabilityInput, 0, len(raw))
	for _, item := range raw {
		var entry services.AvailabilityInput
		if err := json.Unmarshal(item, &entry); err != nil {
			return badRequest(c, "Invalid availability entry")
		}
		entries = append(entries, entry)
	}

	created, err := h.service.CreateAvailability(c.Context(), identity, entries)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"availability": created})
}

func (h *AvailabilityHandler) UpdateAvailability(c *fiber.Ctx) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid availability id")
	}

	var req services.AvailabilityInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	updated, err := h.service.UpdateAvailability(c.Context(), identity, id, req)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"availability": updated})
}

func (h *AvailabilityHandler) DeleteAvailability(c *fiber.Ctx) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid availability id")
	}

	if err := h.service.DeleteAvailability(c.Context(), identity, id); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Availability deleted"})
}

// ListAvailability serves the coach's own view, or a coach's public view when
// coach_uid is given.
func (h *AvailabilityHandler) ListAvailability(c *fiber.Ctx) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	if coachUID := c.Query("coach_uid"); coachUID != "" || !identity.IsCoach() {
		slots, err := h.service.StudentView(c.Context(), identity, coachUID)
		if err != nil {
			return writeError(c, h.logger, err)
		}
		return c.JSON(fiber.Map{"available_slots": slots})
	}

	slots, err := h.service.CoachView(c.Context(), identity)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"available_slots": slots})
}

func parseIDParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.ErrBadRequest
	}
	return id, nil
}
