package listloans

import (
	"context"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// LoanStore defines what the QueryHandler needs from the loan ledger.
type LoanStore interface {
	ListLoans(ctx context.Context, search circulation.LoanSearch) ([]circulation.LoanView, error)
}

// QueryHandler lists loans. Listings may be served by a read replica.
type QueryHandler struct {
	store LoanStore
}

// NewQueryHandler creates a new QueryHandler with the provided LoanStore dependency.
func NewQueryHandler(store LoanStore) QueryHandler {
	return QueryHandler{store: store}
}

// Handle returns the matching loans.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Loans, error) {
	ctx = circulation.WithEventualConsistency(ctx)

	loans, err := h.store.ListLoans(ctx, circulation.LoanSearch{
		Status: query.Status,
		Query:  query.Text,
		Today:  query.Today,
	})
	if err != nil {
		return Loans{}, err
	}

	return Loans{Loans: loans, Count: len(loans)}, nil
}
