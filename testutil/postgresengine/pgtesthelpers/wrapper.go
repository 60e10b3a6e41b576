package pgtesthelpers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation/postgresengine"
	"github.com/AntonStoeckl/library-circulation-go/testutil/postgresengine/config"
)

// Adapter type values of ADAPTER_TYPE.
const (
	TypePGXPool = "pgx.pool"
	TypeSQLDB   = "sql.db"
	TypeSQLXDB  = "sqlx.db"
)

const pingTimeout = 2 * time.Second

// Wrapper abstracts over the connection types a Store can be built from.
type Wrapper interface {
	Store() *postgresengine.Store
	Exec(ctx context.Context, stmt string) error
	// HoldInTx runs stmt in a transaction that stays open, with its locks, until release is called.
	HoldInTx(ctx context.Context, stmt string) (release func(), err error)
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing.
type PGXPoolWrapper struct {
	pool  *pgxpool.Pool
	store *postgresengine.Store
}

func (w *PGXPoolWrapper) Store() *postgresengine.Store { return w.store }

func (w *PGXPoolWrapper) Exec(ctx context.Context, stmt string) error {
	_, err := w.pool.Exec(ctx, stmt)
	return err
}

func (w *PGXPoolWrapper) HoldInTx(ctx context.Context, stmt string) (func(), error) {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	release := func() { _ = tx.Rollback(context.Background()) }

	if _, err = tx.Exec(ctx, stmt); err != nil {
		release()
		return nil, err
	}

	return release, nil
}

func (w *PGXPoolWrapper) Close() { w.pool.Close() }

// SQLDBWrapper wraps sql.DB-based testing.
type SQLDBWrapper struct {
	db    *sql.DB
	store *postgresengine.Store
}

func (w *SQLDBWrapper) Store() *postgresengine.Store { return w.store }

func (w *SQLDBWrapper) Exec(ctx context.Context, stmt string) error {
	_, err := w.db.ExecContext(ctx, stmt)
	return err
}

func (w *SQLDBWrapper) HoldInTx(ctx context.Context, stmt string) (func(), error) {
	return holdInSQLTx(ctx, w.db, stmt)
}

func (w *SQLDBWrapper) Close() { _ = w.db.Close() }

// SQLXWrapper wraps sqlx.DB-based testing.
type SQLXWrapper struct {
	db    *sqlx.DB
	store *postgresengine.Store
}

func (w *SQLXWrapper) Store() *postgresengine.Store { return w.store }

func (w *SQLXWrapper) Exec(ctx context.Context, stmt string) error {
	_, err := w.db.ExecContext(ctx, stmt)
	return err
}

func (w *SQLXWrapper) HoldInTx(ctx context.Context, stmt string) (func(), error) {
	return holdInSQLTx(ctx, w.db.DB, stmt)
}

func (w *SQLXWrapper) Close() { _ = w.db.Close() }

func holdInSQLTx(ctx context.Context, db *sql.DB, stmt string) (func(), error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	release := func() { _ = tx.Rollback() }

	if _, err = tx.ExecContext(ctx, stmt); err != nil {
		release()
		return nil, err
	}

	return release, nil
}

// AdapterTypeFromEnv returns the adapter selected by ADAPTER_TYPE.
func AdapterTypeFromEnv() string {
	adapterType := strings.ToLower(os.Getenv("ADAPTER_TYPE"))
	if adapterType == "" {
		return TypePGXPool
	}

	return adapterType
}

// CreateWrapperWithTestConfig connects to the test database with the adapter from ADAPTER_TYPE,
// creates the schema and empties both tables. The test is skipped when the database is unreachable.
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) Wrapper {
	t.Helper()

	wrapper := connect(t, options...)
	t.Cleanup(wrapper.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, wrapper.Store().CreateSchema(ctx), "creating the schema failed")
	CleanUp(t, wrapper)

	return wrapper
}

// TryCreateStore builds a Store with the given options and returns the construction error.
func TryCreateStore(t testing.TB, options ...postgresengine.Option) error {
	t.Helper()

	switch adapterType := AdapterTypeFromEnv(); adapterType {
	case TypePGXPool:
		poolConfig, err := config.PostgresPGXPoolTestConfig()
		require.NoError(t, err)

		pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
		require.NoError(t, err)
		defer pool.Close()

		_, err = postgresengine.NewStoreFromPGXPool(pool, options...)
		return err

	case TypeSQLDB:
		db, err := config.PostgresSQLDBTestConfig()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		_, err = postgresengine.NewStoreFromSQLDB(db, options...)
		return err

	case TypeSQLXDB:
		db, err := config.PostgresSQLXTestConfig()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		_, err = postgresengine.NewStoreFromSQLX(db, options...)
		return err

	default:
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterType))
	}
}

// GivenBookRowIsLockedElsewhere locks the book row from another connection, as a concurrent
// transaction would. The lock is released by the returned func or at the end of the test.
func GivenBookRowIsLockedElsewhere(t testing.TB, ctx context.Context, wrapper Wrapper, bookID uuid.UUID) func() { //nolint:revive
	t.Helper()

	release, err := wrapper.HoldInTx(ctx, fmt.Sprintf("SELECT id FROM books WHERE id = '%s' FOR UPDATE", bookID))
	require.NoError(t, err, "error in arranging test data")

	var once sync.Once
	releaseOnce := func() { once.Do(release) }
	t.Cleanup(releaseOnce)

	return releaseOnce
}

// CleanUp removes all loans and books.
func CleanUp(t testing.TB, wrapper Wrapper) {
	t.Helper()

	err := wrapper.Exec(context.Background(), "TRUNCATE TABLE loans, books")
	require.NoError(t, err, "error cleaning up the tables")
}

func connect(t testing.TB, options ...postgresengine.Option) Wrapper {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	switch adapterType := AdapterTypeFromEnv(); adapterType {
	case TypePGXPool:
		poolConfig, err := config.PostgresPGXPoolTestConfig()
		require.NoError(t, err)

		pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
		require.NoError(t, err)

		if pingErr := pool.Ping(ctx); pingErr != nil {
			pool.Close()
			t.Skipf("test database not reachable: %v", pingErr)
		}

		store, err := postgresengine.NewStoreFromPGXPool(pool, options...)
		require.NoError(t, err)

		return &PGXPoolWrapper{pool: pool, store: store}

	case TypeSQLDB:
		db, err := config.PostgresSQLDBTestConfig()
		require.NoError(t, err)

		if pingErr := db.PingContext(ctx); pingErr != nil {
			_ = db.Close()
			t.Skipf("test database not reachable: %v", pingErr)
		}

		store, err := postgresengine.NewStoreFromSQLDB(db, options...)
		require.NoError(t, err)

		return &SQLDBWrapper{db: db, store: store}

	case TypeSQLXDB:
		db, err := config.PostgresSQLXTestConfig()
		require.NoError(t, err)

		if pingErr := db.PingContext(ctx); pingErr != nil {
			_ = db.Close()
			t.Skipf("test database not reachable: %v", pingErr)
		}

		store, err := postgresengine.NewStoreFromSQLX(db, options...)
		require.NoError(t, err)

		return &SQLXWrapper{db: db, store: store}

	default:
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterType))
	}
}
