package handlers

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachBookingBack/internal/models"
	"github.com/saeid-a/CoachBookingBack/internal/services"
)

type CoachHandler struct {
	service coachApplicationService
	logger  *slog.Logger
}

type coachApplicationService interface {
	ListCoaches(ctx context.Context, identity models.Identity, page, limit int) (*services.CoachListPage, error)
	AddFavorite(ctx context.Context, identity models.Identity, coachUID string) ([]string, error)
	RemoveFavorite(ctx context.Context, identity models.Identity, coachUID string) ([]string, error)
}

func NewCoachHandler(service *services.FavoritesService, logger *slog.Logger) *CoachHandler {
	return &CoachHandler{service: service, logger: logger}
}

func (h *CoachHandler) ListCoaches(c *fiber.Ctx) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", defaultPageLimit)
	if page < 1 {
		return badRequest(c, "page must be greater than 0")
	}
	if limit < 1 {
		return badRequest(c, "limit must be greater than 0")
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	result, err := h.service.ListCoaches(c.Context(), identity, page, limit)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"coaches":    result.Coaches,
		"pagination": buildPaginationMeta(page, limit, result.Total),
	})
}

func (h *CoachHandler) AddFavorite(c *fiber.Ctx) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	items, err := h.service.AddFavorite(c.Context(), identity, c.Params("coach_uid"))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"favorites": items})
}

func (h *CoachHandler) RemoveFavorite(c *fiber.Ctx) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	items, err := h.service.RemoveFavorite(c.Context(), identity, c.Params("coach_uid"))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"favorites": items})
}
