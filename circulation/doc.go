// Package circulation provides the core types and rules for book circulation
// in a single library: the catalog of books with their copy counts, and the
// loans that lend those copies to borrowers.
//
// This package is storage-agnostic. It defines:
//   - Book and Loan, and the inputs to create or change them
//   - The error taxonomy (validation, not found, conflict, transient store errors)
//   - Title normalization used as the duplicate key
//   - Pure copy-count rules applied by the storage engines under row locks
//   - Grouping of legacy records for the bulk import
//   - Observability interfaces implemented by loggers, metrics and tracing backends
//
// Common usage pattern:
//
//	newLoan, err := circulation.BuildNewLoan(loanID, bookID, " Jane Roe ", "2026-11-02", time.Now())
//	if err != nil {
//		// circulation.KindOf(err) == circulation.KindValidation
//	}
//
//	loan, err := store.CreateLoan(ctx, newLoan)
//	if errors.Is(err, circulation.ErrNoCopiesAvailable) {
//		// every copy is lent out
//	}
package circulation
