package lendbookcopy

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/app/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// LoanStore is what the CommandHandler needs from the loan ledger.
type LoanStore interface {
	CreateLoan(ctx context.Context, newLoan circulation.NewLoan) (circulation.Loan, error)
	GetLoan(ctx context.Context, id uuid.UUID) (circulation.Loan, error)
}

// CommandHandler records a loan and takes one copy off the shelf, retrying transient store failures.
type CommandHandler struct {
	store        LoanStore
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

func NewCommandHandler(store LoanStore, opts ...Option) CommandHandler {
	handler := CommandHandler{store: store}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle validates the loan request against the calendar date of RequestedAt and stores the loan.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult[circulation.Loan], error) {
	newLoan, err := circulation.BuildNewLoan(
		command.LoanID,
		command.BookID,
		command.Borrower,
		command.DueDate,
		command.RequestedAt,
	)
	if err != nil {
		return shell.HandlerResult[circulation.Loan]{LastErrorType: shell.ErrorType(err)}, err
	}

	ctx = circulation.WithStrongConsistency(ctx)
	attempt := 0

	return shell.HandleWithRetry(ctx, func(ctx context.Context) (circulation.Loan, error) {
		attempt++

		loan, createErr := h.store.CreateLoan(ctx, newLoan)
		if createErr != nil && attempt > 1 {
			if stored, found := h.committedEarlier(ctx, newLoan); found {
				return stored, nil
			}
		}

		return loan, createErr
	}, h.retryOptions...)
}

// committedEarlier finds a loan that an earlier attempt committed although its outcome was lost,
// e.g. a connection dropped while the commit was acknowledged. The retry then fails on the
// loan's primary key or on the copy that loan already took.
func (h CommandHandler) committedEarlier(ctx context.Context, newLoan circulation.NewLoan) (circulation.Loan, bool) {
	stored, err := h.store.GetLoan(ctx, newLoan.ID)
	if err != nil || stored.BookID != newLoan.BookID {
		return circulation.Loan{}, false
	}

	return stored, true
}
