package changecopiestotal

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/app/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// BookStore is what the CommandHandler needs from the catalog.
type BookStore interface {
	UpdateCopiesTotal(ctx context.Context, id uuid.UUID, newTotal int) (circulation.Book, error)
}

// CommandHandler changes the copies total, retrying transient store failures.
type CommandHandler struct {
	store        BookStore
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

func NewCommandHandler(store BookStore, opts ...Option) CommandHandler {
	handler := CommandHandler{store: store}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle fails with circulation.ErrCopiesTotalTooSmall below one copy and with
// circulation.ErrCopiesBelowActiveLoans below the copies on loan.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult[circulation.Book], error) {
	if command.CopiesTotal < 1 {
		return shell.HandlerResult[circulation.Book]{LastErrorType: shell.ErrorType(circulation.ErrCopiesTotalTooSmall)}, circulation.ErrCopiesTotalTooSmall
	}

	ctx = circulation.WithStrongConsistency(ctx)

	return shell.HandleWithRetry(ctx, func(ctx context.Context) (circulation.Book, error) {
		return h.store.UpdateCopiesTotal(ctx, command.BookID, command.CopiesTotal)
	}, h.retryOptions...)
}
