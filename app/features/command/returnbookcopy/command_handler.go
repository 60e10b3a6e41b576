package returnbookcopy

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/app/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// LoanStore is what the CommandHandler needs from the loan ledger.
type LoanStore interface {
	ReturnLoan(ctx context.Context, loanID uuid.UUID, returnedAt time.Time) (circulation.Loan, error)
}

// CommandHandler closes a loan, retrying transient store failures.
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

// Handle fails with circulation.ErrLoanAlreadyReturned for a loan that was closed before.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult[circulation.Loan], error) {
	if command.LoanID == uuid.Nil {
		return shell.HandlerResult[circulation.Loan]{LastErrorType: shell.ErrorType(circulation.ErrInvalidID)}, circulation.ErrInvalidID
	}

	ctx = circulation.WithStrongConsistency(ctx)

	return shell.HandleWithRetry(ctx, func(ctx context.Context) (circulation.Loan, error) {
		return h.store.ReturnLoan(ctx, command.LoanID, command.RequestedAt)
	}, h.retryOptions...)
}
