package postgresengine_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	. "github.com/AntonStoeckl/library-circulation-go/circulation/postgresengine"
	"github.com/AntonStoeckl/library-circulation-go/testutil/postgresengine/pgtesthelpers"
)

func Test_FactoryFunctions_With_NilConnection(t *testing.T) {
	_, err := NewStoreFromPGXPool((*pgxpool.Pool)(nil))
	assert.ErrorIs(t, err, circulation.ErrNilDatabaseConnection)

	_, err = NewStoreFromPGXPoolAndReplica((*pgxpool.Pool)(nil), nil)
	assert.ErrorIs(t, err, circulation.ErrNilDatabaseConnection)

	_, err = NewStoreFromSQLDB((*sql.DB)(nil))
	assert.ErrorIs(t, err, circulation.ErrNilDatabaseConnection)

	_, err = NewStoreFromSQLX((*sqlx.DB)(nil))
	assert.ErrorIs(t, err, circulation.ErrNilDatabaseConnection)
}

func Test_FactoryFunctions_With_InvalidOptions(t *testing.T) {
	tests := []struct {
		name        string
		option      Option
		expectedErr error
	}{
		{name: "empty books table name", option: WithBooksTableName(""), expectedErr: circulation.ErrEmptyTableName},
		{name: "empty loans table name", option: WithLoansTableName(""), expectedErr: circulation.ErrEmptyTableName},
		{name: "negative lock timeout", option: WithLockTimeout(-1), expectedErr: circulation.ErrInvalidLockTimeout},
		{name: "zero lock timeout", option: WithLockTimeout(50*time.Millisecond), expectedErr: circulation.ErrInvalidLockTimeout},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := pgtesthelpers.TryCreateStore(t, tc.option)

			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func Test_FactoryFunctions_With_ValidOptions(t *testing.T) {
	err := pgtesthelpers.TryCreateStore(
		t,
		WithBooksTableName("books"),
		WithLoansTableName("loans"),
		WithLockTimeout(0),
	)

	assert.NoError(t, err)
}
