package editbook

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/app/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// BookStore is what the CommandHandler needs from the catalog.
type BookStore interface {
	EditBook(ctx context.Context, id uuid.UUID, edit circulation.BookEdit) (circulation.Book, error)
}

// CommandHandler applies a BookEdit under the book's row lock, retrying transient store failures.
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

// Handle returns the book as stored after the edit. An empty edit returns the book unchanged.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult[circulation.Book], error) {
	if command.BookID == uuid.Nil {
		return shell.HandlerResult[circulation.Book]{LastErrorType: shell.ErrorType(circulation.ErrInvalidID)}, circulation.ErrInvalidID
	}

	edit, err := circulation.BuildBookEdit(command.Title, command.Author, command.Category, command.Pages, command.CopiesTotal)
	if err != nil {
		return shell.HandlerResult[circulation.Book]{LastErrorType: shell.ErrorType(err)}, err
	}

	ctx = circulation.WithStrongConsistency(ctx)

	return shell.HandleWithRetry(ctx, func(ctx context.Context) (circulation.Book, error) {
		return h.store.EditBook(ctx, command.BookID, edit)
	}, h.retryOptions...)
}
