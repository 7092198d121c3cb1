package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachBookingBack/internal/middleware"
	"github.com/saeid-a/CoachBookingBack/internal/models"
	"github.com/saeid-a/CoachBookingBack/internal/services"
)

func statusForKind(kind services.Kind) int {
	switch kind {
	case services.KindValidation, services.KindAlreadyInState:
		return fiber.StatusBadRequest
	case services.KindConflict:
		return fiber.StatusConflict
	case services.KindAuthorization:
		return fiber.StatusForbidden
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindUnauthenticated:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError maps a service error onto a JSON response. Internal errors are
// logged and replaced by a generic message.
func writeError(c *fiber.Ctx, logger *slog.Logger, err error) error {
	kind := services.KindOf(err)
	status := statusForKind(kind)
	if kind == services.KindInternal {
		logger.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"err", err,
		)
		return c.Status(status).JSON(fiber.Map{"error": "Internal server error"})
	}

	body := fiber.Map{"error": err.Error()}
	var entryErr *services.EntryError
	if errors.As(err, &entryErr) {
		body[entryErr.Field] = entryErr.Entries
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

func currentIdentity(c *fiber.Ctx) (models.Identity, bool) {
	return middleware.IdentityFrom(c)
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
}
