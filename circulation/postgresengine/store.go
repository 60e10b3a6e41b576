package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/postgresengine/internal/adapters"
)

const (
	defaultBooksTableName = "books"
	defaultLoansTableName = "loans"
	defaultLockTimeout    = 5 * time.Second
	dialectPostgres       = "postgres"
	listLoansLimit        = 500
)

// Store is the PostgreSQL backed book catalog and loan ledger.
type Store struct {
	db               adapters.DBAdapter
	booksTable       string
	loansTable       string
	lockTimeout      time.Duration
	logger           circulation.Logger
	contextualLogger circulation.ContextualLogger
	metricsCollector circulation.MetricsCollector
	tracingCollector circulation.TracingCollector
}

// NewStoreFromPGXPool creates a new Store using a pgx Pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, circulation.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromPGXPoolAndReplica creates a new Store using a primary and a replica pgx Pool.
// Reads go to the replica when the context carries circulation.EventualConsistency.
func NewStoreFromPGXPoolAndReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil || replica == nil {
		return nil, circulation.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, circulation.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, circulation.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (*Store, error) {
	s := &Store{
		db:          db,
		booksTable:  defaultBooksTableName,
		loansTable:  defaultLoansTableName,
		lockTimeout: defaultLockTimeout,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Ping checks that the primary database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return classifyDBError(s.db.Ping(ctx))
}

// queryer is satisfied by the adapter (outside a transaction) and by an open transaction.
type queryer interface {
	Query(ctx context.Context, query string) (adapters.DBRows, error)
}

// execer is satisfied by the adapter (outside a transaction) and by an open transaction.
type execer interface {
	Exec(ctx context.Context, query string) (adapters.DBResult, error)
}

// inTx runs fn in a transaction with the configured lock timeout.
// Any error from fn, and any panic, rolls the transaction back.
func (s *Store) inTx(ctx context.Context, action string, fn func(tx adapters.DBTx) error) (err error) {
	tx, beginErr := s.db.BeginTx(ctx)
	if beginErr != nil {
		s.logError(ctx, logMsgBeginTxFailed, beginErr, logAttrAction, action)
		return errors.Join(ErrBeginningTransactionFailed, classifyDBError(beginErr))
	}

	commitAttempted := false

	defer func() {
		if p := recover(); p != nil {
			s.rollback(ctx, tx, action)
			panic(p)
		}

		if err != nil && !commitAttempted {
			s.rollback(ctx, tx, action)
		}
	}()

	stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", max(s.lockTimeout.Milliseconds(), 1))
	if err = s.exec(ctx, tx, stmt, action); err != nil {
		return err
	}

	if err = fn(tx); err != nil {
		return err
	}

	commitAttempted = true

	if commitErr := tx.Commit(ctx); commitErr != nil {
		s.logError(ctx, logMsgCommitFailed, commitErr, logAttrAction, action)
		return errors.Join(ErrCommittingTransactionFailed, classifyDBError(commitErr))
	}

	return nil
}

func (s *Store) rollback(ctx context.Context, tx adapters.DBTx, action string) {
	// The request context may be canceled already, the rollback must still reach the server.
	if rollbackErr := tx.Rollback(context.WithoutCancel(ctx)); rollbackErr != nil {
		s.logWarn(ctx, logMsgRollbackFailed, logAttrError, rollbackErr.Error(), logAttrAction, action)
	}
}

// query runs a statement that returns rows and hands each row to scan.
func (s *Store) query(
	ctx context.Context,
	db queryer,
	sqlQuery string,
	action string,
	scan func(rows adapters.DBRows) error,
) error {

	start := time.Now()
	rows, queryErr := db.Query(ctx, sqlQuery)
	s.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if queryErr != nil {
		s.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		return errors.Join(ErrQueryingFailed, classifyDBError(queryErr))
	}
	defer s.closeRows(ctx, rows)

	for rows.Next() {
		if scanErr := scan(rows); scanErr != nil {
			s.logError(ctx, logMsgScanRowFailed, scanErr, logAttrAction, action)
			return errors.Join(ErrScanningDBRowFailed, scanErr)
		}
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		s.logError(ctx, logMsgDBQueryFailed, rowsErr, logAttrQuery, sqlQuery)
		return errors.Join(ErrQueryingFailed, classifyDBError(rowsErr))
	}

	return nil
}

// exec runs a statement without result rows.
func (s *Store) exec(ctx context.Context, db execer, sqlQuery string, action string) error {
	_, err := s.execCounting(ctx, db, sqlQuery, action)
	return err
}

// execCounting runs a statement without result rows and returns the number of affected rows.
func (s *Store) execCounting(ctx context.Context, db execer, sqlQuery string, action string) (int64, error) {
	start := time.Now()
	result, execErr := db.Exec(ctx, sqlQuery)
	s.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if execErr != nil {
		s.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		return 0, errors.Join(ErrExecutingFailed, classifyDBError(execErr))
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		s.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)
		return 0, errors.Join(ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, nil
}

func (s *Store) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

func (s *Store) builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

// toSQL renders a goqu statement with all values interpolated.
func toSQL(statement interface{ ToSQL() (string, []any, error) }) (string, error) {
	sqlQuery, _, err := statement.ToSQL()
	if err != nil {
		return "", errors.Join(ErrBuildingQueryFailed, err)
	}

	return sqlQuery, nil
}
