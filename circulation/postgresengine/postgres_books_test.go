package postgresengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	. "github.com/AntonStoeckl/library-circulation-go/testutil/postgresengine/pgtesthelpers"
)

func ptr[T any](v T) *T {
	return &v
}

func Test_AddBook_Then_GetBook(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := CreateWrapperWithTestConfig(t).Store()

	// arrange
	newBook := FixtureNewBook(t, "  The Left Hand of   Darkness ", 3)

	// act
	added, addErr := store.AddBook(ctx, newBook)
	loaded, getErr := store.GetBook(ctx, newBook.ID)

	// assert
	require.NoError(t, addErr)
	require.NoError(t, getErr)
	assert.Equal(t, newBook.ID, loaded.ID)
	assert.Equal(t, "The Left Hand of   Darkness", loaded.Title)
	assert.Equal(t, "the left hand of darkness", loaded.TitleNorm)
	assert.Equal(t, 3, loaded.CopiesTotal)
	assert.Equal(t, 3, loaded.CopiesAvailable)
	assert.Equal(t, added.ID, loaded.ID)
	assert.False(t, loaded.CreatedAt.IsZero())
}

func Test_AddBook_With_DuplicateNormalizedTitle(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := CreateWrapperWithTestConfig(t).Store()

	// arrange
	GivenBookWasAdded(t, ctx, store, "Dune", 1)

	// act
	_, err := store.AddBook(ctx, FixtureNewBook(t, " DUNE ", 1))

	// assert
	assert.ErrorIs(t, err, circulation.ErrDuplicateTitle)
	assert.Equal(t, circulation.KindConflict, circulation.KindOf(err))
}

func Test_GetBook_When_BookDoesNotExist(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := CreateWrapperWithTestConfig(t).Store()

	_, err := store.GetBook(ctx, GivenUniqueID(t))

	assert.ErrorIs(t, err, circulation.ErrBookNotFound)
}

func Test_UpdateCopiesTotal(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := CreateWrapperWithTestConfig(t).Store()
	fakeClock := time.Now().UTC()

	t.Run("growing keeps the copies on loan", func(t *testing.T) {
		// arrange
		book := GivenBookWasAdded(t, ctx, store, "Grow", 3)
		GivenLoanWasCreated(t, ctx, store, book.ID, "Jane", fakeClock)
		GivenLoanWasCreated(t, ctx, store, book.ID, "John", fakeClock)

		// act
		updated, err := store.UpdateCopiesTotal(ctx, book.ID, 5)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, 5, updated.CopiesTotal)
		assert.Equal(t, 3, updated.CopiesAvailable)
	})

	t.Run("shrinking below the active loans is rejected", func(t *testing.T) {
		// arrange
		book := GivenBookWasAdded(t, ctx, store, "Shrink", 3)
		GivenLoanWasCreated(t, ctx, store, book.ID, "Jane", fakeClock)
		GivenLoanWasCreated(t, ctx, store, book.ID, "John", fakeClock)

		// act
		_, err := store.UpdateCopiesTotal(ctx, book.ID, 1)

		// assert
		assert.ErrorIs(t, err, circulation.ErrCopiesBelowActiveLoans)
		reloaded := ReloadBook(t, ctx, store, book.ID)
		assert.Equal(t, 3, reloaded.CopiesTotal)
		assert.Equal(t, 1, reloaded.CopiesAvailable)
	})

	t.Run("shrinking to the active loans leaves no copy available", func(t *testing.T) {
		// arrange
		book := GivenBookWasAdded(t, ctx, store, "Exact", 3)
		GivenLoanWasCreated(t, ctx, store, book.ID, "Jane", fakeClock)

		// act
		updated, err := store.UpdateCopiesTotal(ctx, book.ID, 1)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, 1, updated.CopiesTotal)
		assert.Equal(t, 0, updated.CopiesAvailable)
	})

	t.Run("zero copies is a validation error", func(t *testing.T) {
		book := GivenBookWasAdded(t, ctx, store, "Zero", 1)

		_, err := store.UpdateCopiesTotal(ctx, book.ID, 0)

		assert.ErrorIs(t, err, circulation.ErrCopiesTotalTooSmall)
	})

	t.Run("unknown book", func(t *testing.T) {
		_, err := store.UpdateCopiesTotal(ctx, GivenUniqueID(t), 2)

		assert.ErrorIs(t, err, circulation.ErrBookNotFound)
	})
}

func Test_EditBook(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := CreateWrapperWithTestConfig(t).Store()

	t.Run("partial update keeps absent fields and clears blank ones", func(t *testing.T) {
		// arrange
		book := GivenBookWasAdded(t, ctx, store, "The Dispossessed", 2)
		edit, err := circulation.BuildBookEdit(ptr("The Dispossessed: An Ambiguous Utopia"), nil, ptr(""), ptr(400), nil)
		require.NoError(t, err)

		// act
		updated, err := store.EditBook(ctx, book.ID, edit)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, "The Dispossessed: An Ambiguous Utopia", updated.Title)
		assert.Equal(t, "the dispossessed: an ambiguous utopia", updated.TitleNorm)
		assert.Equal(t, book.Author, updated.Author)
		assert.Nil(t, updated.Category)
		assert.Equal(t, ptr(400), updated.Pages)
		assert.Equal(t, 2, updated.CopiesTotal)
	})

	t.Run("renaming onto an existing normalized title is a conflict", func(t *testing.T) {
		// arrange
		GivenBookWasAdded(t, ctx, store, "Lathe of Heaven", 1)
		book := GivenBookWasAdded(t, ctx, store, "Rocannon's World", 1)
		edit, err := circulation.BuildBookEdit(ptr("lathe  of heaven"), nil, nil, nil, nil)
		require.NoError(t, err)

		// act
		_, err = store.EditBook(ctx, book.ID, edit)

		// assert
		assert.ErrorIs(t, err, circulation.ErrDuplicateTitle)
		assert.Equal(t, "Rocannon's World", ReloadBook(t, ctx, store, book.ID).Title)
	})

	t.Run("empty edit returns the book unchanged", func(t *testing.T) {
		book := GivenBookWasAdded(t, ctx, store, "Unchanged", 1)

		updated, err := store.EditBook(ctx, book.ID, circulation.BookEdit{})

		assert.NoError(t, err)
		assert.Equal(t, book.Title, updated.Title)
	})
}

func Test_DeleteBook(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := CreateWrapperWithTestConfig(t).Store()
	fakeClock := time.Now().UTC()

	t.Run("active loans block the deletion", func(t *testing.T) {
		// arrange
		book := GivenBookWasAdded(t, ctx, store, "Blocked", 1)
		GivenLoanWasCreated(t, ctx, store, book.ID, "Jane", fakeClock)

		// act
		err := store.DeleteBook(ctx, book.ID)

		// assert
		assert.ErrorIs(t, err, circulation.ErrActiveLoansBlockDeletion)
		ReloadBook(t, ctx, store, book.ID)
	})

	t.Run("returned loans are removed with the book", func(t *testing.T) {
		// arrange
		book := GivenBookWasAdded(t, ctx, store, "Deletable", 1)
		loan := GivenLoanWasCreated(t, ctx, store, book.ID, "Jane", fakeClock)
		GivenLoanWasReturned(t, ctx, store, loan.ID, fakeClock)

		// act
		err := store.DeleteBook(ctx, book.ID)

		// assert
		assert.NoError(t, err)
		_, getBookErr := store.GetBook(ctx, book.ID)
		assert.ErrorIs(t, getBookErr, circulation.ErrBookNotFound)
		_, getLoanErr := store.GetLoan(ctx, loan.ID)
		assert.ErrorIs(t, getLoanErr, circulation.ErrLoanNotFound)
	})

	t.Run("unknown book", func(t *testing.T) {
		err := store.DeleteBook(ctx, GivenUniqueID(t))

		assert.ErrorIs(t, err, circulation.ErrBookNotFound)
	})
}

func Test_SearchBooks(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := CreateWrapperWithTestConfig(t).Store()

	// arrange
	GivenBookWasAdded(t, ctx, store, "Beta", 1)
	GivenBookWasAdded(t, ctx, store, "alpha", 1)
	GivenBookWasAdded(t, ctx, store, "100% Pure", 1)

	t.Run("empty query lists the catalog by title", func(t *testing.T) {
		books, err := store.SearchBooks(ctx, circulation.BookSearch{})

		require.NoError(t, err)
		require.Len(t, books, 3)
		assert.Equal(t, "100% Pure", books[0].Title)
	})

	t.Run("query matches case-insensitively", func(t *testing.T) {
		books, err := store.SearchBooks(ctx, circulation.BookSearch{Query: "ALPH"})

		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "alpha", books[0].Title)
	})

	t.Run("like wildcards are matched literally", func(t *testing.T) {
		books, err := store.SearchBooks(ctx, circulation.BookSearch{Query: "%"})

		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "100% Pure", books[0].Title)
	})

	t.Run("query matches the author", func(t *testing.T) {
		books, err := store.SearchBooks(circulation.WithEventualConsistency(ctx), circulation.BookSearch{Query: "le guin"})

		require.NoError(t, err)
		assert.Len(t, books, 3)
	})
}

func Test_EditBook_FailedEdit_LeavesTheRowUntouched(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := CreateWrapperWithTestConfig(t).Store()

	// arrange
	GivenBookWasAdded(t, ctx, store, "Always Coming Home", 1)
	target := GivenBookWasAdded(t, ctx, store, "The Beginning Place", 2)
	before := ReloadBook(t, ctx, store, target.ID)

	edit, err := circulation.BuildBookEdit(ptr("always coming home"), ptr("Someone Else"), nil, ptr(99), ptr(7))
	require.NoError(t, err)

	// act
	_, err = store.EditBook(ctx, target.ID, edit)

	// assert
	assert.ErrorIs(t, err, circulation.ErrDuplicateTitle)
	assert.Equal(t, before, ReloadBook(t, ctx, store, target.ID))
}
