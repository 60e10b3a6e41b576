package postgresengine

import (
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// Errors of the store plumbing. They are joined with the driver error and,
// where one applies, with the matching circulation sentinel.
var (
	ErrBuildingQueryFailed         = errors.New("building query failed")
	ErrQueryingFailed              = errors.New("querying the database failed")
	ErrExecutingFailed             = errors.New("executing the statement failed")
	ErrScanningDBRowFailed         = errors.New("scanning db row failed")
	ErrGettingRowsAffectedFailed   = errors.New("getting rows affected failed")
	ErrBeginningTransactionFailed  = errors.New("beginning the transaction failed")
	ErrCommittingTransactionFailed = errors.New("committing the transaction failed")
)

// PostgreSQL error codes the store reacts to.
const (
	pgCodeUniqueViolation      = "23505"
	pgCodeLockNotAvailable     = "55P03"
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeQueryCanceled        = "57014"
	pgCodeAdminShutdown        = "57P01"
	pgCodeCannotConnectNow     = "57P03"
	pgClassConnectionException = "08"
	pgClassInsufficientRes     = "53"
)

// classifyDBError joins a driver error with the circulation sentinel it stands for:
// duplicate normalized titles become circulation.ErrDuplicateTitle, lock timeouts,
// serialization failures, deadlocks and connection problems become circulation.ErrTransientStore.
// Other errors are returned unchanged.
func classifyDBError(err error) error {
	if err == nil {
		return nil
	}

	code, constraint := pgErrorDetails(err)

	switch {
	case code == pgCodeUniqueViolation && strings.Contains(constraint, colTitleNorm):
		return errors.Join(circulation.ErrDuplicateTitle, err)

	case code == pgCodeUniqueViolation:
		return errors.Join(circulation.ErrConflict, err)

	case isTransientCode(code):
		return errors.Join(circulation.ErrTransientStore, err)

	case code == "" && isConnectionFailure(err):
		return errors.Join(circulation.ErrTransientStore, err)

	default:
		return err
	}
}

// pgErrorDetails extracts the SQLSTATE and constraint name from pgx and lib/pq errors.
func pgErrorDetails(err error) (code string, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint
	}

	return "", ""
}

func isTransientCode(code string) bool {
	switch code {
	case pgCodeLockNotAvailable, pgCodeSerializationFailure, pgCodeDeadlockDetected,
		pgCodeQueryCanceled, pgCodeAdminShutdown, pgCodeCannotConnectNow:
		return true
	}

	return strings.HasPrefix(code, pgClassConnectionException) || strings.HasPrefix(code, pgClassInsufficientRes)
}

func isConnectionFailure(err error) bool {
	var connectErr *pgconn.ConnectError

	return errors.As(err, &connectErr) ||
		pgconn.SafeToRetry(err) ||
		pgconn.Timeout(err) ||
		errors.Is(err, driver.ErrBadConn)
}
