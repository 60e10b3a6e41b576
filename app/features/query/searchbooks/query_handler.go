package searchbooks

import (
	"context"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// BookStore defines what the QueryHandler needs from the catalog.
type BookStore interface {
	SearchBooks(ctx context.Context, search circulation.BookSearch) ([]circulation.Book, error)
}

// QueryHandler runs catalog searches with eventual consistency.
type QueryHandler struct {
	store BookStore
}

// NewQueryHandler creates a new QueryHandler with the provided BookStore dependency.
func NewQueryHandler(store BookStore) QueryHandler {
	return QueryHandler{store: store}
}

// Handle returns the matching books.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Books, error) {
	ctx = circulation.WithEventualConsistency(ctx)

	books, err := h.store.SearchBooks(ctx, circulation.BookSearch{Query: query.Text})
	if err != nil {
		return Books{}, err
	}

	return Books{Books: books, Count: len(books)}, nil
}
