package postgresengine

import (
	"context"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/postgresengine/internal/adapters"
)

const (
	aliasLoans = "l"
	aliasBooks = "b"
)

func loanColumns() []any {
	return []any{colID, colBookID, colBorrower, colBorrowDate, colDueDate, colReturnedAt, colCreatedAt}
}

func scanLoan(rows adapters.DBRows) (circulation.Loan, error) {
	var loan circulation.Loan

	err := rows.Scan(
		&loan.ID, &loan.BookID, &loan.Borrower, &loan.BorrowDate, &loan.DueDate, &loan.ReturnedAt, &loan.CreatedAt,
	)

	return normalizeLoanDates(loan), err
}

// normalizeLoanDates keeps DATE values as midnight UTC, whatever location the driver picked.
func normalizeLoanDates(loan circulation.Loan) circulation.Loan {
	loan.DueDate = time.Date(loan.DueDate.Year(), loan.DueDate.Month(), loan.DueDate.Day(), 0, 0, 0, 0, time.UTC)
	return loan
}

// CreateLoan lends one copy of a book.
//
// The book row is locked first, then copies_available is re-read under that lock:
// without a copy the transaction aborts with circulation.ErrNoCopiesAvailable and nothing
// changes, otherwise the loan is inserted and copies_available decremented. Concurrent
// calls on the same book serialize on the lock, so no more loans than copies can be created.
func (s *Store) CreateLoan(ctx context.Context, newLoan circulation.NewLoan) (loan circulation.Loan, err error) {
	observer, ctx := s.observe(ctx, operationCreateLoan)
	defer func() { observer.finish(err, -1) }()

	err = s.inTx(ctx, operationCreateLoan, func(tx adapters.DBTx) error {
		book, lockErr := s.lockBook(ctx, tx, newLoan.BookID, operationCreateLoan)
		if lockErr != nil {
			return lockErr
		}

		after, lendErr := book.Copies().Lend()
		if lendErr != nil {
			return lendErr
		}

		insertSQL, buildErr := toSQL(s.builder().
			Insert(s.loansTable).
			Rows(goqu.Record{
				colID:         newLoan.ID.String(),
				colBookID:     newLoan.BookID.String(),
				colBorrower:   newLoan.Borrower,
				colBorrowDate: newLoan.BorrowDate,
				colDueDate:    circulation.FormatDate(newLoan.DueDate),
			}).
			Returning(loanColumns()...))
		if buildErr != nil {
			return buildErr
		}

		inserted, insertErr := s.queryOneLoan(ctx, tx, insertSQL, operationCreateLoan)
		if insertErr != nil {
			return insertErr
		}

		if updateErr := s.setCopiesAvailable(ctx, tx, book.ID, after.Available, operationCreateLoan); updateErr != nil {
			return updateErr
		}

		loan = inserted

		return nil
	})

	return loan, err
}

// ReturnLoan marks an active loan as returned and gives its copy back.
//
// The loan row is locked, then the book row. A loan that was returned before fails with
// circulation.ErrLoanAlreadyReturned and changes nothing. copies_available never exceeds copies_total.
func (s *Store) ReturnLoan(ctx context.Context, loanID uuid.UUID, returnedAt time.Time) (loan circulation.Loan, err error) {
	observer, ctx := s.observe(ctx, operationReturnLoan)
	defer func() { observer.finish(err, -1) }()

	err = s.inTx(ctx, operationReturnLoan, func(tx adapters.DBTx) error {
		lockSQL, buildErr := toSQL(s.selectLoan(loanID).ForUpdate(exp.Wait))
		if buildErr != nil {
			return buildErr
		}

		current, lockErr := s.queryOneLoan(ctx, tx, lockSQL, operationReturnLoan)
		if lockErr != nil {
			return lockErr
		}

		if !current.IsActive() {
			return circulation.ErrLoanAlreadyReturned
		}

		book, bookErr := s.lockBook(ctx, tx, current.BookID, operationReturnLoan)
		if bookErr != nil {
			return bookErr
		}

		updateSQL, buildErr := toSQL(s.builder().
			Update(s.loansTable).
			Set(goqu.Record{colReturnedAt: returnedAt}).
			Where(goqu.C(colID).Eq(loanID.String())).
			Returning(loanColumns()...))
		if buildErr != nil {
			return buildErr
		}

		returned, updateErr := s.queryOneLoan(ctx, tx, updateSQL, operationReturnLoan)
		if updateErr != nil {
			return updateErr
		}

		if setErr := s.setCopiesAvailable(ctx, tx, book.ID, book.Copies().Return().Available, operationReturnLoan); setErr != nil {
			return setErr
		}

		loan = returned

		return nil
	})

	return loan, err
}

// GetLoan reads one loan. It honors the consistency level of ctx.
func (s *Store) GetLoan(ctx context.Context, id uuid.UUID) (loan circulation.Loan, err error) {
	observer, ctx := s.observe(ctx, operationGetLoan)
	defer func() { observer.finish(err, -1) }()

	sqlQuery, err := toSQL(s.selectLoan(id))
	if err != nil {
		return circulation.Loan{}, err
	}

	return s.queryOneLoan(ctx, s.db, sqlQuery, operationGetLoan)
}

// ListLoans lists at most 500 loans with the catalog data of their books:
// active loans first, then by due date ascending, then by borrow date descending.
// It honors the consistency level of ctx.
func (s *Store) ListLoans(ctx context.Context, search circulation.LoanSearch) (loans []circulation.LoanView, err error) {
	observer, ctx := s.observe(ctx, operationListLoans)
	defer func() { observer.finish(err, len(loans)) }()

	loanCol := func(column string) exp.IdentifierExpression { return goqu.T(aliasLoans).Col(column) }
	bookCol := func(column string) exp.IdentifierExpression { return goqu.T(aliasBooks).Col(column) }

	stmt := s.builder().
		From(goqu.I(s.loansTable).As(aliasLoans)).
		Join(goqu.I(s.booksTable).As(aliasBooks), goqu.On(bookCol(colID).Eq(loanCol(colBookID)))).
		Select(
			loanCol(colID), loanCol(colBookID), loanCol(colBorrower), loanCol(colBorrowDate),
			loanCol(colDueDate), loanCol(colReturnedAt), loanCol(colCreatedAt),
			bookCol(colTitle), bookCol(colAuthor), bookCol(colCategory),
		).
		Order(
			goqu.L("? IS NULL", loanCol(colReturnedAt)).Desc(),
			loanCol(colDueDate).Asc(),
			loanCol(colBorrowDate).Desc(),
		).
		Limit(listLoansLimit)

	switch search.Status {
	case circulation.LoanStatusActive, "":
		stmt = stmt.Where(loanCol(colReturnedAt).IsNull())
	case circulation.LoanStatusOverdue:
		stmt = stmt.Where(
			loanCol(colReturnedAt).IsNull(),
			loanCol(colDueDate).Lt(circulation.FormatDate(circulation.CalendarDate(search.Today))),
		)
	case circulation.LoanStatusReturned:
		stmt = stmt.Where(loanCol(colReturnedAt).IsNotNull())
	case circulation.LoanStatusAll:
	default:
		return nil, circulation.ErrInvalidLoanStatus
	}

	if query := strings.TrimSpace(search.Query); query != "" {
		pattern := "%" + likeEscaper.Replace(query) + "%"
		stmt = stmt.Where(goqu.Or(
			bookCol(colTitle).ILike(pattern),
			bookCol(colAuthor).ILike(pattern),
			bookCol(colCategory).ILike(pattern),
			loanCol(colBorrower).ILike(pattern),
		))
	}

	sqlQuery, err := toSQL(stmt)
	if err != nil {
		return nil, err
	}

	loans = make([]circulation.LoanView, 0)
	err = s.query(ctx, s.db, sqlQuery, operationListLoans, func(rows adapters.DBRows) error {
		var view circulation.LoanView

		scanErr := rows.Scan(
			&view.ID, &view.BookID, &view.Borrower, &view.BorrowDate, &view.DueDate, &view.ReturnedAt, &view.CreatedAt,
			&view.Title, &view.Author, &view.Category,
		)
		if scanErr != nil {
			return scanErr
		}

		view.Loan = normalizeLoanDates(view.Loan)
		loans = append(loans, view)

		return nil
	})

	if err != nil {
		return nil, err
	}

	return loans, nil
}

// AllLoans returns every loan ordered by borrow date, for exports and backups.
// It honors the consistency level of ctx.
func (s *Store) AllLoans(ctx context.Context) (loans []circulation.Loan, err error) {
	observer, ctx := s.observe(ctx, operationAllLoans)
	defer func() { observer.finish(err, len(loans)) }()

	sqlQuery, err := toSQL(s.builder().
		From(s.loansTable).
		Select(loanColumns()...).
		Order(goqu.C(colBorrowDate).Asc(), goqu.C(colID).Asc()))
	if err != nil {
		return nil, err
	}

	loans = make([]circulation.Loan, 0)
	err = s.query(ctx, s.db, sqlQuery, operationAllLoans, func(rows adapters.DBRows) error {
		loan, scanErr := scanLoan(rows)
		if scanErr != nil {
			return scanErr
		}

		loans = append(loans, loan)

		return nil
	})

	if err != nil {
		return nil, err
	}

	return loans, nil
}

func (s *Store) selectLoan(id uuid.UUID) *goqu.SelectDataset {
	return s.builder().
		From(s.loansTable).
		Select(loanColumns()...).
		Where(goqu.C(colID).Eq(id.String()))
}

// queryOneLoan runs a statement expected to return one loan row, no row means circulation.ErrLoanNotFound.
func (s *Store) queryOneLoan(ctx context.Context, db queryer, sqlQuery string, action string) (circulation.Loan, error) {
	var loan circulation.Loan
	found := false

	err := s.query(ctx, db, sqlQuery, action, func(rows adapters.DBRows) error {
		scanned, scanErr := scanLoan(rows)
		if scanErr != nil {
			return scanErr
		}

		loan = scanned
		found = true

		return nil
	})

	if err != nil {
		return circulation.Loan{}, err
	}

	if !found {
		return circulation.Loan{}, circulation.ErrLoanNotFound
	}

	return loan, nil
}

func (s *Store) setCopiesAvailable(ctx context.Context, tx adapters.DBTx, bookID uuid.UUID, available int, action string) error {
	sqlQuery, err := toSQL(s.builder().
		Update(s.booksTable).
		Set(goqu.Record{colCopiesAvailable: available, colUpdatedAt: goqu.L("NOW()")}).
		Where(goqu.C(colID).Eq(bookID.String())))
	if err != nil {
		return err
	}

	return s.exec(ctx, tx, sqlQuery, action)
}
