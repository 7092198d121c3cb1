package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type LessonStatus string

const (
	LessonPending   LessonStatus = "pending"
	LessonConfirmed LessonStatus = "confirmed"
	LessonCompleted LessonStatus = "completed"
	LessonCanceled  LessonStatus = "canceled"
)

type InvoiceStatus string

const (
	InvoiceUnpaid          InvoiceStatus = "unpaid"
	InvoicePaid            InvoiceStatus = "paid"
	InvoiceCanceled        InvoiceStatus = "canceled"
	InvoiceCanceledPenalty InvoiceStatus = "canceled_penalty"
	InvoiceCanceledCoach   InvoiceStatus = "canceled_coach"
)

var invoiceStatuses = []InvoiceStatus{
	InvoiceUnpaid,
	InvoicePaid,
	InvoiceCanceled,
	InvoiceCanceledPenalty,
	InvoiceCanceledCoach,
}

// Outstanding reports whether the invoice blocks new bookings until settled.
func (s InvoiceStatus) Outstanding() bool {
	return s == InvoiceUnpaid || s == InvoiceCanceledPenalty
}

func OutstandingInvoiceStatuses() []InvoiceStatus {
	statuses := make([]InvoiceStatus, 0, 2)
	for _, status := range invoiceStatuses {
		if status.Outstanding() {
			statuses = append(statuses, status)
		}
	}
	return statuses
}

type Lesson struct {
	ID         int64        `json:"id"`
	CoachUID   string       `json:"coach_uid"`
	StudentUID string       `json:"student_uid"`
	Date       string       `json:"lesson_date"`
	StartTime  string       `json:"start_time"`
	EndTime    string       `json:"end_time"`
	Status     LessonStatus `json:"status"`
	CanceledAt *time.Time   `json:"canceled_at,omitempty"`
	CanceledBy *string      `json:"canceled_by,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

type Invoice struct {
	ID          int64           `json:"id"`
	InvoiceUID  string          `json:"invoice_uid"`
	LessonID    int64           `json:"lesson_id"`
	StudentUID  string          `json:"student_uid"`
	CoachUID    string          `json:"coach_uid"`
	Amount      decimal.Decimal `json:"amount"`
	Status      InvoiceStatus   `json:"status"`
	GeneratedAt time.Time       `json:"generated_at"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
}

type LessonDetail struct {
	Lesson
	Invoice *Invoice `json:"invoice,omitempty"`
}
