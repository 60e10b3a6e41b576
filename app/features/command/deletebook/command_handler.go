package deletebook

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/app/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// BookStore is what the CommandHandler needs from the catalog.
type BookStore interface {
	DeleteBook(ctx context.Context, id uuid.UUID) error
}

// CommandHandler deletes a book, retrying transient store failures.
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

// Handle returns the ID of the deleted book.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult[uuid.UUID], error) {
	ctx = circulation.WithStrongConsistency(ctx)

	return shell.HandleWithRetry(ctx, func(ctx context.Context) (uuid.UUID, error) {
		if err := h.store.DeleteBook(ctx, command.BookID); err != nil {
			return uuid.Nil, err
		}

		return command.BookID, nil
	}, h.retryOptions...)
}
