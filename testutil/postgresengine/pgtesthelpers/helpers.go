package pgtesthelpers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/postgresengine"
)

// GivenUniqueID generates a unique UUID for testing.
func GivenUniqueID(t testing.TB) uuid.UUID {
	t.Helper()

	id, err := uuid.NewV7()
	require.NoError(t, err, "error in arranging test data")

	return id
}

// FixtureNewBook builds a valid catalog entry.
func FixtureNewBook(t testing.TB, title string, copiesTotal int) circulation.NewBook {
	t.Helper()

	author := "Ursula K. Le Guin"
	category := "Fiction"
	pages := 320

	newBook, err := circulation.BuildNewBook(GivenUniqueID(t), title, &author, &category, &pages, &copiesTotal)
	require.NoError(t, err, "error in arranging test data")

	return newBook
}

// FixtureDueDate returns a due date two weeks after now.
func FixtureDueDate(now time.Time) string {
	return circulation.FormatDate(now.AddDate(0, 0, 14))
}

// GivenBookWasAdded adds a book with the given number of copies.
func GivenBookWasAdded(
	t testing.TB,
	ctx context.Context, //nolint:revive
	store *postgresengine.Store,
	title string,
	copiesTotal int,
) circulation.Book {

	t.Helper()

	book, err := store.AddBook(ctx, FixtureNewBook(t, title, copiesTotal))
	require.NoError(t, err, "error in arranging test data")

	return book
}

// GivenLoanWasCreated lends one copy of the book.
func GivenLoanWasCreated(
	t testing.TB,
	ctx context.Context, //nolint:revive
	store *postgresengine.Store,
	bookID uuid.UUID,
	borrower string,
	now time.Time,
) circulation.Loan {

	t.Helper()

	newLoan, err := circulation.BuildNewLoan(GivenUniqueID(t), bookID, borrower, FixtureDueDate(now), now)
	require.NoError(t, err, "error in arranging test data")

	loan, err := store.CreateLoan(ctx, newLoan)
	require.NoError(t, err, "error in arranging test data")

	return loan
}

// GivenLoanWasReturned returns the loan.
func GivenLoanWasReturned(
	t testing.TB,
	ctx context.Context, //nolint:revive
	store *postgresengine.Store,
	loanID uuid.UUID,
	now time.Time,
) circulation.Loan {

	t.Helper()

	loan, err := store.ReturnLoan(ctx, loanID, now)
	require.NoError(t, err, "error in arranging test data")

	return loan
}

// ReloadBook reads the book from the primary.
func ReloadBook(
	t testing.TB,
	ctx context.Context, //nolint:revive
	store *postgresengine.Store,
	bookID uuid.UUID,
) circulation.Book {

	t.Helper()

	book, err := store.GetBook(circulation.WithStrongConsistency(ctx), bookID)
	require.NoError(t, err, "error reloading the book")

	return book
}

// ActiveLoanCount counts the active loans of a book through ListLoans.
func ActiveLoanCount(
	t testing.TB,
	ctx context.Context, //nolint:revive
	store *postgresengine.Store,
	bookID uuid.UUID,
) int {

	t.Helper()

	loans, err := store.ListLoans(ctx, circulation.LoanSearch{Status: circulation.LoanStatusActive, Today: time.Now()})
	require.NoError(t, err, "error listing loans")

	count := 0
	for _, loan := range loans {
		if loan.BookID == bookID {
			count++
		}
	}

	return count
}
