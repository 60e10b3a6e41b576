package exportcatalog

import (
	"context"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// CatalogStore defines what the QueryHandler needs from the catalog and the loan ledger.
type CatalogStore interface {
	SearchBooks(ctx context.Context, search circulation.BookSearch) ([]circulation.Book, error)
	AllLoans(ctx context.Context) ([]circulation.Loan, error)
}

// QueryHandler loads the rows for an export and renders them. Exports may be served by a read replica.
type QueryHandler struct {
	store CatalogStore
}

// NewQueryHandler creates a new QueryHandler with the provided CatalogStore dependency.
func NewQueryHandler(store CatalogStore) QueryHandler {
	return QueryHandler{store: store}
}

// Handle returns the rendered export.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Export, error) {
	ctx = circulation.WithEventualConsistency(ctx)

	switch query.Format {
	case FormatBooksJSON, FormatBooksCSV:
		books, err := h.store.SearchBooks(ctx, circulation.BookSearch{})
		if err != nil {
			return Export{}, err
		}

		if query.Format == FormatBooksCSV {
			return RenderBooksCSV(books, query.ExportedAt)
		}

		return RenderBooksJSON(books, query.ExportedAt)

	case FormatLoansJSON:
		loans, err := h.store.AllLoans(ctx)
		if err != nil {
			return Export{}, err
		}

		return RenderLoansJSON(loans, query.ExportedAt)

	default:
		return Export{}, ErrUnknownFormat
	}
}
