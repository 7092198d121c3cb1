package services

import (
	"context"
	"errors"
	"strings"

	"github.com/saeid-a/CoachBookingBack/internal/models"
	"github.com/saeid-a/CoachBookingBack/internal/repository"
)

type InvoiceService struct {
	deps Deps
}

func NewInvoiceService(deps Deps) *InvoiceService {
	return &InvoiceService{deps: deps.withDefaults()}
}

// PayInvoice marks a student's invoice paid. Penalty invoices are payable;
// invoices voided by a cancellation are not.
func (s *InvoiceService) PayInvoice(
	ctx context.Context,
	identity models.Identity,
	invoiceUID string,
) (*models.Invoice, error) {
	if err := requireRole(identity, models.RoleStudent); err != nil {
		return nil, err
	}
	invoiceUID = strings.TrimSpace(invoiceUID)
	if invoiceUID == "" {
		return nil, ErrMissingField
	}

	var paid *models.Invoice
	err := s.deps.Store.WithinTx(ctx, func(tx repository.Store) error {
		invoice, err := tx.Invoices().GetByUIDForUpdate(ctx, invoiceUID, identity.UID)
		if err != nil {
			return notFound(err, ErrInvoiceNotFound)
		}

		switch invoice.Status {
		case models.InvoicePaid:
			return ErrAlreadyPaid
		case models.InvoiceCanceled, models.InvoiceCanceledCoach:
			return ErrInvalidStateTransition
		}

		paid, err = tx.Invoices().MarkPaidIfCurrent(ctx, invoice.ID, invoice.Status)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAlreadyPaid
			}
			return err
		}

		lesson := &models.Lesson{ID: paid.LessonID, CoachUID: paid.CoachUID, StudentUID: paid.StudentUID}
		return appendEvent(ctx, tx, models.EventInvoicePaid, lesson, map[string]any{
			"invoice_uid": paid.InvoiceUID,
			"amount":      paid.Amount.StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// ListCurrent returns unpaid invoices first, then the rest newest first.
// Voided invoices are left out.
func (s *InvoiceService) ListCurrent(ctx context.Context, identity models.Identity) ([]models.Invoice, error) {
	if err := requireRole(identity, models.RoleStudent); err != nil {
		return nil, err
	}
	return s.deps.Store.Invoices().ListCurrent(ctx, identity.UID)
}
