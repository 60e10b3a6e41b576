// Package lendbookcopy implements lending one copy of a book to a borrower.
//
// The book row is locked for the whole transaction, so concurrent loans of the last copy
// resolve to exactly one success and circulation.ErrNoCopiesAvailable for the others.
package lendbookcopy
