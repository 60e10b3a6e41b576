package editbook_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/app/features/command/editbook"
	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

type bookStoreStub struct {
	err      error
	calls    int
	received circulation.BookEdit
}

func (s *bookStoreStub) EditBook(_ context.Context, id uuid.UUID, edit circulation.BookEdit) (circulation.Book, error) {
	s.calls++
	s.received = edit

	if s.err != nil {
		return circulation.Book{}, s.err
	}

	return circulation.Book{ID: id}, nil
}

func Test_CommandHandler_Handle_Passes_TheEdit(t *testing.T) {
	// setup
	store := &bookStoreStub{}
	handler := editbook.NewCommandHandler(store)
	title := " The Farthest Shore "
	author := ""
	pages := 259

	// act
	result, err := handler.Handle(context.Background(), editbook.BuildCommand(uuid.New(), &title, &author, nil, &pages, nil))

	// assert
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, result.Value.ID)
	require.NotNil(t, store.received.TitleNorm)
	assert.Equal(t, "the farthest shore", *store.received.TitleNorm)
	assert.True(t, store.received.Author.Set, "an empty author clears it")
	assert.Nil(t, store.received.Author.Value)
	assert.False(t, store.received.Category.Set)
	assert.Equal(t, 259, *store.received.Pages)
	assert.Nil(t, store.received.CopiesTotal)
}

func Test_CommandHandler_Handle_Rejects_BlankTitle(t *testing.T) {
	// setup
	store := &bookStoreStub{}
	handler := editbook.NewCommandHandler(store)
	title := "  "

	// act
	_, err := handler.Handle(context.Background(), editbook.BuildCommand(uuid.New(), &title, nil, nil, nil, nil))

	// assert
	assert.ErrorIs(t, err, circulation.ErrTitleRequired)
	assert.Zero(t, store.calls)
}

func Test_CommandHandler_Handle_Rejects_NilBookID(t *testing.T) {
	// setup
	store := &bookStoreStub{}
	handler := editbook.NewCommandHandler(store)

	// act
	_, err := handler.Handle(context.Background(), editbook.BuildCommand(uuid.Nil, nil, nil, nil, nil, nil))

	// assert
	assert.ErrorIs(t, err, circulation.ErrInvalidID)
	assert.Zero(t, store.calls)
}

func Test_CommandHandler_Handle_Returns_StoreRejections(t *testing.T) {
	// setup
	store := &bookStoreStub{err: circulation.CopiesBelowActiveLoansError(1, 2)}
	handler := editbook.NewCommandHandler(store)
	copies := 1

	// act
	_, err := handler.Handle(context.Background(), editbook.BuildCommand(uuid.New(), nil, nil, nil, nil, &copies))

	// assert
	assert.ErrorIs(t, err, circulation.ErrCopiesBelowActiveLoans)
	assert.Equal(t, 1, store.calls)
}
