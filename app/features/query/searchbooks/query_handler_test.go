package searchbooks_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/app/features/query/searchbooks"
	"github.com/AntonStoeckl/library-circulation-go/circulation"
	. "github.com/AntonStoeckl/library-circulation-go/testutil/postgresengine/pgtesthelpers" //nolint:revive
)

func Test_QueryHandler_Handle_FiltersAndOrders_ByTitle(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := CreateWrapperWithTestConfig(t).Store()
	handler := searchbooks.NewQueryHandler(store)

	// arrange
	GivenBookWasAdded(t, ctx, store, "Tombs of Atuan", 1)
	GivenBookWasAdded(t, ctx, store, "Lavinia", 1)
	GivenBookWasAdded(t, ctx, store, "The Other Wind", 2)

	// act
	all, err := handler.Handle(ctx, searchbooks.BuildQuery(""))
	require.NoError(t, err)

	filtered, err := handler.Handle(ctx, searchbooks.BuildQuery("  WIND "))
	require.NoError(t, err)

	// assert
	require.Equal(t, 3, all.Count)
	assert.Equal(t, "Lavinia", all.Books[0].Title)
	assert.Equal(t, "The Other Wind", all.Books[1].Title)
	assert.Equal(t, "Tombs of Atuan", all.Books[2].Title)

	require.Equal(t, 1, filtered.Count)
	assert.Equal(t, "The Other Wind", filtered.Books[0].Title)
}

type bookStoreStub struct {
	consistency circulation.ConsistencyLevel
}

func (s *bookStoreStub) SearchBooks(ctx context.Context, _ circulation.BookSearch) ([]circulation.Book, error) {
	s.consistency = circulation.GetConsistencyLevel(ctx)
	return []circulation.Book{}, nil
}

func Test_QueryHandler_Handle_Allows_ReplicaReads(t *testing.T) {
	// setup
	store := &bookStoreStub{}
	handler := searchbooks.NewQueryHandler(store)

	// act
	result, err := handler.Handle(context.Background(), searchbooks.BuildQuery("x"))

	// assert
	require.NoError(t, err)
	assert.Zero(t, result.Count)
	assert.Equal(t, circulation.EventualConsistency, store.consistency)
}
