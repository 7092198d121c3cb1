package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachBookingBack/internal/models"
	"github.com/shopspring/decimal"
)

type CreateInvoiceInput struct {
	InvoiceUID string
	LessonID   int64
	StudentUID string
	CoachUID   string
	Amount     decimal.Decimal
	Status     models.InvoiceStatus
}

type InvoiceStore interface {
	Create(ctx context.Context, input CreateInvoiceInput) (*models.Invoice, error)
	GetByLessonID(ctx context.Context, lessonID int64) (*models.Invoice, error)
	GetByUIDForUpdate(ctx context.Context, invoiceUID, studentUID string) (*models.Invoice, error)
	ListByLessonIDs(ctx context.Context, lessonIDs []int64) (map[int64]models.Invoice, error)
	ListCurrent(ctx context.Context, studentUID string) ([]models.Invoice, error)
	CountByStudentStatus(ctx context.Context, studentUID string, statuses ...models.InvoiceStatus) (int, error)
	SetStatusByLessonID(ctx context.Context, lessonID int64, status models.InvoiceStatus) (*models.Invoice, error)
	MarkPaidIfCurrent(ctx context.Context, invoiceID int64, current models.InvoiceStatus) (*models.Invoice, error)
}

type InvoiceRepository struct {
	db DBTX
}

func NewInvoiceRepository(db DBTX) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `
	id, invoice_uid::text, lesson_id, student_uid::text, coach_uid::text,
	amount, status, generated_at, paid_at
`

func (r *InvoiceRepository) Create(ctx context.Context, input CreateInvoiceInput) (*models.Invoice, error) {
	status := input.Status
	if status == "" {
		status = models.InvoiceUnpaid
	}
	query := `
		INSERT INTO invoices (invoice_uid, lesson_id, student_uid, coach_uid, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + invoiceColumns
	return scanInvoice(r.db.QueryRow(ctx, query,
		input.InvoiceUID,
		input.LessonID,
		input.StudentUID,
		input.CoachUID,
		input.Amount,
		string(status),
	))
}

func (r *InvoiceRepository) GetByLessonID(ctx context.Context, lessonID int64) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE lesson_id = $1`
	return scanInvoice(r.db.QueryRow(ctx, query, lessonID))
}

func (r *InvoiceRepository) GetByUIDForUpdate(ctx context.Context, invoiceUID, studentUID string) (*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE invoice_uid::text = $1 AND student_uid::text = $2
		FOR UPDATE
	`
	return scanInvoice(r.db.QueryRow(ctx, query, invoiceUID, studentUID))
}

func (r *InvoiceRepository) ListByLessonIDs(ctx context.Context, lessonIDs []int64) (map[int64]models.Invoice, error) {
	invoices := make(map[int64]models.Invoice, len(lessonIDs))
	if len(lessonIDs) == 0 {
		return invoices, nil
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE lesson_id = ANY($1)`
	rows, err := r.db.Query(ctx, query, lessonIDs)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices[invoice.LessonID] = *invoice
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *InvoiceRepository) ListCurrent(ctx context.Context, studentUID string) ([]models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE student_uid::text = $1
		  AND status NOT IN ('canceled', 'canceled_coach')
		ORDER BY
			CASE WHEN status = 'unpaid' THEN 0 ELSE 1 END,
			generated_at DESC,
			id DESC
	`
	rows, err := r.db.Query(ctx, query, studentUID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	invoices := make([]models.Invoice, 0)
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *InvoiceRepository) CountByStudentStatus(
	ctx context.Context,
	studentUID string,
	statuses ...models.InvoiceStatus,
) (int, error) {
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE student_uid::text = $1 AND status = ANY($2)`,
		studentUID, values,
	).Scan(&count)
	return count, translate(err)
}

func (r *InvoiceRepository) SetStatusByLessonID(
	ctx context.Context,
	lessonID int64,
	status models.InvoiceStatus,
) (*models.Invoice, error) {
	query := `
		UPDATE invoices
		SET status = $2
		WHERE lesson_id = $1
		RETURNING ` + invoiceColumns
	return scanInvoice(r.db.QueryRow(ctx, query, lessonID, string(status)))
}

func (r *InvoiceRepository) MarkPaidIfCurrent(
	ctx context.Context,
	invoiceID int64,
	current models.InvoiceStatus,
) (*models.Invoice, error) {
	query := `
		UPDATE invoices
		SET status = 'paid', paid_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + invoiceColumns
	return scanInvoice(r.db.QueryRow(ctx, query, invoiceID, string(current)))
}

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	var invoice models.Invoice
	err := row.Scan(
		&invoice.ID,
		&invoice.InvoiceUID,
		&invoice.LessonID,
		&invoice.StudentUID,
		&invoice.CoachUID,
		&invoice.Amount,
		&invoice.Status,
		&invoice.GeneratedAt,
		&invoice.PaidAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &invoice, nil
}
