package circulation

import (
	"errors"
	"fmt"
)

// Root error kinds. Every error returned by this module's operations wraps exactly one of them.
var (
	// ErrValidation signals bad input shape or range. It never mutates state.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound signals that a referenced Book or Loan does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a business rule violation.
	ErrConflict = errors.New("conflict")

	// ErrTransientStore signals a lock timeout or connection failure. The operation can be retried.
	ErrTransientStore = errors.New("transient store error")
)

// Validation errors.
var (
	ErrInvalidID              = fmt.Errorf("%w: invalid id", ErrValidation)
	ErrTitleRequired          = fmt.Errorf("%w: title is required", ErrValidation)
	ErrPagesNotPositive       = fmt.Errorf("%w: pages must be a positive integer", ErrValidation)
	ErrCopiesTotalTooSmall    = fmt.Errorf("%w: copies_total must be an integer >= 1", ErrValidation)
	ErrBorrowerRequired       = fmt.Errorf("%w: borrower is required", ErrValidation)
	ErrDueDateRequired        = fmt.Errorf("%w: due_date is required (YYYY-MM-DD)", ErrValidation)
	ErrDueDateMalformed       = fmt.Errorf("%w: due_date is not a valid date, use YYYY-MM-DD", ErrValidation)
	ErrDueDateInPast          = fmt.Errorf("%w: due_date must not be in the past", ErrValidation)
	ErrInvalidLoanStatus      = fmt.Errorf("%w: unknown loan status", ErrValidation)
	ErrMalformedImportPayload = fmt.Errorf("%w: expected an array of books or {\"items\": [...]}", ErrValidation)
)

// Not found errors.
var (
	ErrBookNotFound = fmt.Errorf("%w: book not found", ErrNotFound)
	ErrLoanNotFound = fmt.Errorf("%w: loan not found", ErrNotFound)
)

// Conflict errors.
var (
	ErrNoCopiesAvailable        = fmt.Errorf("%w: no copies available", ErrConflict)
	ErrDuplicateTitle           = fmt.Errorf("%w: a book with this title already exists", ErrConflict)
	ErrActiveLoansBlockDeletion = fmt.Errorf("%w: book has active loans", ErrConflict)
	ErrLoanAlreadyReturned      = fmt.Errorf("%w: loan already returned", ErrConflict)
	ErrCopiesBelowActiveLoans   = fmt.Errorf("%w: copies_total would go negative on loaned copies", ErrConflict)
)

// Configuration errors of storage engines.
var (
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
	ErrEmptyTableName        = errors.New("empty table name supplied")
	ErrInvalidLockTimeout    = errors.New("lock timeout must be positive")
)

// Kind is the stable, machine-readable classification of an error.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindTransient  Kind = "transient"
	KindInternal   Kind = "internal"
)

// KindOf classifies err by the root error it wraps.
// Errors that wrap none of the roots (driver failures, bugs) are KindInternal.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrTransientStore):
		return KindTransient
	default:
		return KindInternal
	}
}

// CopiesBelowActiveLoansError reports the requested total and the copies currently lent out.
// It matches ErrCopiesBelowActiveLoans with errors.Is.
func CopiesBelowActiveLoansError(requestedTotal, activeLoans int) error {
	return fmt.Errorf(
		"%w: cannot set copies_total to %d while %d copies are lent out",
		ErrCopiesBelowActiveLoans,
		requestedTotal,
		activeLoans,
	)
}
