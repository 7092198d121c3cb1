package handlers

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachBookingBack/internal/models"
	"github.com/saeid-a/CoachBookingBack/internal/services"
)

type InvoiceHandler struct {
	service invoiceApplicationService
	logger  *slog.Logger
}

type invoiceApplicationService interface {
	PayInvoice(ctx context.Context, identity models.Identity, invoiceUID string) (*models.Invoice, error)
	ListCurrent(ctx context.Context, identity models.Identity) ([]models.Invoice, error)
}

func NewInvoiceHandler(service *services.InvoiceService, logger *slog.Logger) *InvoiceHandler {
	return &InvoiceHandler{service: service, logger: logger}
}

func (h *InvoiceHandler) ListCurrent(c *fiber.Ctx) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	invoices, err := h.service.ListCurrent(c.Context(), identity)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"invoices": invoices})
}

func (h *InvoiceHandler) PayInvoice(c *fiber.Ctx) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	invoice, err := h.service.PayInvoice(c.Context(), identity, c.Params("invoice_uid"))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"invoice": invoice})
}
