package getbook

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// BookStore defines what the QueryHandler needs from the catalog.
type BookStore interface {
	GetBook(ctx context.Context, id uuid.UUID) (circulation.Book, error)
}

// QueryHandler reads a book with strong consistency, so an edit is visible right after it returned.
type QueryHandler struct {
	store BookStore
}

// NewQueryHandler creates a new QueryHandler with the provided BookStore dependency.
func NewQueryHandler(store BookStore) QueryHandler {
	return QueryHandler{store: store}
}

// Handle fails with circulation.ErrBookNotFound for an unknown id.
func (h QueryHandler) Handle(ctx context.Context, query Query) (circulation.Book, error) {
	return h.store.GetBook(circulation.WithStrongConsistency(ctx), query.BookID)
}
