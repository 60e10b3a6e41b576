package backup

import (
	"context"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// CatalogStore defines what the QueryHandler needs from the catalog and the loan ledger.
type CatalogStore interface {
	SearchBooks(ctx context.Context, search circulation.BookSearch) ([]circulation.Book, error)
	AllLoans(ctx context.Context) ([]circulation.Loan, error)
}

// QueryHandler reads both tables from the primary.
type QueryHandler struct {
	store CatalogStore
}

// NewQueryHandler creates a new QueryHandler with the provided CatalogStore dependency.
func NewQueryHandler(store CatalogStore) QueryHandler {
	return QueryHandler{store: store}
}

// Handle returns the snapshot. Books and loans are read in two statements, a loan created in
// between may reference a book missing from the snapshot.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Snapshot, error) {
	ctx = circulation.WithStrongConsistency(ctx)

	books, err := h.store.SearchBooks(ctx, circulation.BookSearch{})
	if err != nil {
		return Snapshot{}, err
	}

	loans, err := h.store.AllLoans(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		GeneratedAt: query.GeneratedAt.UTC(),
		Books:       books,
		Loans:       loans,
	}, nil
}
