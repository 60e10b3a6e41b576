package addbook

import (
	"context"

	"github.com/AntonStoeckl/library-circulation-go/app/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// BookStore is what the CommandHandler needs from the catalog.
type BookStore interface {
	AddBook(ctx context.Context, newBook circulation.NewBook) (circulation.Book, error)
}

// CommandHandler validates the new book and stores it, retrying transient store failures.
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

// Handle fails with a validation error before touching the store when the input is invalid,
// and with circulation.ErrDuplicateTitle when the normalized title is taken.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult[circulation.Book], error) {
	newBook, err := circulation.BuildNewBook(
		command.BookID,
		command.Title,
		command.Author,
		command.Category,
		command.Pages,
		command.CopiesTotal,
	)
	if err != nil {
		return shell.HandlerResult[circulation.Book]{LastErrorType: shell.ErrorType(err)}, err
	}

	ctx = circulation.WithStrongConsistency(ctx)

	return shell.HandleWithRetry(ctx, func(ctx context.Context) (circulation.Book, error) {
		return h.store.AddBook(ctx, newBook)
	}, h.retryOptions...)
}
