package services

import (
	"errors"
)

// Kind classifies a service error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuthorization
	KindNotFound
	KindAlreadyInState
	KindUnauthenticated
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrForbidden              = newError(KindAuthorization, "forbidden")
	ErrInvalidInput           = newError(KindValidation, "invalid input")
	ErrMissingField           = newError(KindValidation, "missing required field")
	ErrInvalidStatus          = newError(KindValidation, "invalid status")
	ErrInvalidStateTransition = newError(KindValidation, "invalid state transition")
	ErrNotFound               = newError(KindNotFound, "not found")
	ErrCoachNotFound          = newError(KindNotFound, "coach not found")
	ErrStudentNotFound        = newError(KindNotFound, "student not found")
	ErrInvoiceNotFound        = newError(KindNotFound, "invoice not found")
	ErrFavoriteNotFound       = newError(KindNotFound, "coach is not in favorites")

	ErrEmptyBatch         = newError(KindValidation, "availability list is empty")
	ErrInvalidEntries     = newError(KindValidation, "availability entries are invalid")
	ErrPastDate           = newError(KindValidation, "availability date is in the past")
	ErrDuplicateInBatch   = newError(KindValidation, "duplicate dates in availability list")
	ErrAvailabilityExists = newError(KindConflict, "availability already exists for date")

	ErrSlotConflict       = newError(KindConflict, "time slot is already booked")
	ErrTooManyPending     = newError(KindConflict, "too many pending lessons")
	ErrOutstandingBalance = newError(KindConflict, "outstanding invoices must be paid first")
	ErrAlreadyFavorite    = newError(KindConflict, "coach is already in favorites")
	ErrEmailTaken         = newError(KindConflict, "email already registered")

	ErrAlreadyCanceled = newError(KindAlreadyInState, "lesson is already canceled")
	ErrAlreadyPaid     = newError(KindAlreadyInState, "invoice is already paid")

	ErrInvalidCredentials = newError(KindUnauthenticated, "invalid email or password")
)

// EntryError wraps a batch validation sentinel with the entries that caused it.
type EntryError struct {
	Err     *Error
	Field   string
	Entries any
}

func (e *EntryError) Error() string { return e.Err.Error() }
func (e *EntryError) Unwrap() error { return e.Err }

func entryError(err *Error, field string, entries any) *EntryError {
	return &EntryError{Err: err, Field: field, Entries: entries}
}

// KindOf returns the kind of the first service error in err's chain.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}
