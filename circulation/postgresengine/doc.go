// Package postgresengine provides the PostgreSQL implementation of the circulation store:
// the book catalog, the loan ledger and the loan lifecycle operations on top of them.
//
// Every mutating operation runs in one transaction. Operations that read copy counts
// before writing them (CreateLoan, ReturnLoan, EditBook, UpdateCopiesTotal, DeleteBook)
// lock the rows involved with SELECT ... FOR UPDATE first, so concurrent requests on the
// same book serialize and a copy can never be lent twice. Each transaction sets a local
// lock timeout; lock timeouts, deadlocks and connection failures surface as
// circulation.ErrTransientStore and are safe to retry.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX)
//   - Optional read replica for eventually consistent reads (PGX)
//   - Upsert by normalized title for legacy catalog imports
//   - Logging, metrics and tracing through dependency-free interfaces
//
// Usage examples:
//
//	pool, _ := pgxpool.New(context.Background(), dsn)
//	store, _ := postgresengine.NewStoreFromPGXPool(pool, postgresengine.WithLogger(slog.Default()))
//	_ = store.CreateSchema(ctx)
//
//	newLoan, _ := circulation.BuildNewLoan(loanID, bookID, "Jane Roe", "2026-11-02", time.Now())
//	loan, err := store.CreateLoan(ctx, newLoan)
package postgresengine
