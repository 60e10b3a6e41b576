package deletebook_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/app/features/command/deletebook"
	"github.com/AntonStoeckl/library-circulation-go/circulation"
	. "github.com/AntonStoeckl/library-circulation-go/testutil/postgresengine/pgtesthelpers" //nolint:revive
)

func Test_CommandHandler_Handle_Deletes_BookWithReturnedLoans(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := CreateWrapperWithTestConfig(t).Store()
	handler := deletebook.NewCommandHandler(store)
	fakeClock := time.Now().UTC()

	// arrange
	book := GivenBookWasAdded(t, ctx, store, "Always Coming Home", 1)
	loan := GivenLoanWasCreated(t, ctx, store, book.ID, "Stone Telling", fakeClock)
	GivenLoanWasReturned(t, ctx, store, loan.ID, fakeClock)

	// act
	result, err := handler.Handle(ctx, deletebook.BuildCommand(book.ID))

	// assert
	require.NoError(t, err)
	assert.Equal(t, book.ID, result.Value)

	_, err = store.GetBook(ctx, book.ID)
	assert.ErrorIs(t, err, circulation.ErrBookNotFound)

	_, err = store.GetLoan(ctx, loan.ID)
	assert.ErrorIs(t, err, circulation.ErrLoanNotFound, "the loan history goes with the book")
}

func Test_CommandHandler_Handle_Refuses_BookWithActiveLoans(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := CreateWrapperWithTestConfig(t).Store()
	handler := deletebook.NewCommandHandler(store)
	fakeClock := time.Now().UTC()

	// arrange
	book := GivenBookWasAdded(t, ctx, store, "Four Ways to Forgiveness", 2)
	GivenLoanWasCreated(t, ctx, store, book.ID, "Yoss", fakeClock)

	// act
	_, err := handler.Handle(ctx, deletebook.BuildCommand(book.ID))

	// assert
	assert.ErrorIs(t, err, circulation.ErrActiveLoansBlockDeletion)
	assert.Equal(t, 2, ReloadBook(t, ctx, store, book.ID).CopiesTotal)
}

func Test_CommandHandler_Handle_UnknownBook(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := CreateWrapperWithTestConfig(t).Store()
	handler := deletebook.NewCommandHandler(store)

	// act
	_, err := handler.Handle(ctx, deletebook.BuildCommand(GivenUniqueID(t)))

	// assert
	assert.ErrorIs(t, err, circulation.ErrBookNotFound)
}
