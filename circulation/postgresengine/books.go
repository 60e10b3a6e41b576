package postgresengine

import (
	"context"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/postgresengine/internal/adapters"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func bookColumns() []any {
	return []any{
		colID, colTitle, colTitleNorm, colAuthor, colCategory, colPages,
		colCopiesTotal, colCopiesAvailable, colCreatedAt, colUpdatedAt,
	}
}

func scanBook(rows adapters.DBRows) (circulation.Book, error) {
	var book circulation.Book

	err := rows.Scan(
		&book.ID, &book.Title, &book.TitleNorm, &book.Author, &book.Category, &book.Pages,
		&book.CopiesTotal, &book.CopiesAvailable, &book.CreatedAt, &book.UpdatedAt,
	)

	return book, err
}

// AddBook inserts a new catalog entry with all copies available.
// A title whose normalized form already exists fails with circulation.ErrDuplicateTitle.
func (s *Store) AddBook(ctx context.Context, newBook circulation.NewBook) (book circulation.Book, err error) {
	observer, ctx := s.observe(ctx, operationAddBook)
	defer func() { observer.finish(err, -1) }()

	stmt := s.builder().
		Insert(s.booksTable).
		Rows(goqu.Record{
			colID:              newBook.ID.String(),
			colTitle:           newBook.Title,
			colTitleNorm:       newBook.TitleNorm,
			colAuthor:          nullableText(newBook.Author),
			colCategory:        nullableText(newBook.Category),
			colPages:           nullableInt(newBook.Pages),
			colCopiesTotal:     newBook.CopiesTotal,
			colCopiesAvailable: newBook.CopiesTotal,
		}).
		Returning(bookColumns()...)

	sqlQuery, err := toSQL(stmt)
	if err != nil {
		return circulation.Book{}, err
	}

	err = s.inTx(ctx, operationAddBook, func(tx adapters.DBTx) error {
		found, queryErr := s.queryOneBook(ctx, tx, sqlQuery, operationAddBook)
		if queryErr != nil {
			return queryErr
		}

		book = found

		return nil
	})

	return book, err
}

// GetBook reads one book. It honors the consistency level of ctx.
func (s *Store) GetBook(ctx context.Context, id uuid.UUID) (book circulation.Book, err error) {
	observer, ctx := s.observe(ctx, operationGetBook)
	defer func() { observer.finish(err, -1) }()

	sqlQuery, err := toSQL(s.selectBook(id))
	if err != nil {
		return circulation.Book{}, err
	}

	return s.queryOneBook(ctx, s.db, sqlQuery, operationGetBook)
}

// SearchBooks lists books whose title, author or category contain the query, ordered by title.
// An empty query lists the whole catalog. It honors the consistency level of ctx.
func (s *Store) SearchBooks(ctx context.Context, search circulation.BookSearch) (books []circulation.Book, err error) {
	observer, ctx := s.observe(ctx, operationSearchBooks)
	defer func() { observer.finish(err, len(books)) }()

	stmt := s.builder().
		From(s.booksTable).
		Select(bookColumns()...).
		Order(goqu.C(colTitle).Asc(), goqu.C(colID).Asc())

	if query := strings.TrimSpace(search.Query); query != "" {
		pattern := "%" + likeEscaper.Replace(query) + "%"
		stmt = stmt.Where(goqu.Or(
			goqu.C(colTitle).ILike(pattern),
			goqu.C(colAuthor).ILike(pattern),
			goqu.C(colCategory).ILike(pattern),
		))
	}

	sqlQuery, err := toSQL(stmt)
	if err != nil {
		return nil, err
	}

	books = make([]circulation.Book, 0)
	err = s.query(ctx, s.db, sqlQuery, operationSearchBooks, func(rows adapters.DBRows) error {
		book, scanErr := scanBook(rows)
		if scanErr != nil {
			return scanErr
		}

		books = append(books, book)

		return nil
	})

	if err != nil {
		return nil, err
	}

	return books, nil
}

// EditBook applies a partial update to a book while holding its row lock.
// A new title recomputes the normalized title, a new copies total keeps the copies on loan.
func (s *Store) EditBook(ctx context.Context, id uuid.UUID, edit circulation.BookEdit) (book circulation.Book, err error) {
	return s.editBook(ctx, operationEditBook, id, edit)
}

// UpdateCopiesTotal sets the number of copies owned, keeping copies on loan:
// copies_available becomes newTotal minus the active loans. It fails with
// circulation.ErrCopiesBelowActiveLoans and leaves the book unchanged when newTotal
// is below the number of active loans.
func (s *Store) UpdateCopiesTotal(ctx context.Context, id uuid.UUID, newTotal int) (circulation.Book, error) {
	if newTotal < 1 {
		return circulation.Book{}, circulation.ErrCopiesTotalTooSmall
	}

	return s.editBook(ctx, operationUpdateCopiesTotal, id, circulation.BookEdit{CopiesTotal: &newTotal})
}

func (s *Store) editBook(
	ctx context.Context,
	operation string,
	id uuid.UUID,
	edit circulation.BookEdit,
) (book circulation.Book, err error) {

	observer, ctx := s.observe(ctx, operation)
	defer func() { observer.finish(err, -1) }()

	err = s.inTx(ctx, operation, func(tx adapters.DBTx) error {
		current, lockErr := s.lockBook(ctx, tx, id, operation)
		if lockErr != nil {
			return lockErr
		}

		if edit.IsEmpty() {
			book = current
			return nil
		}

		record := goqu.Record{colUpdatedAt: goqu.L("NOW()")}

		if edit.Title != nil {
			record[colTitle] = *edit.Title
			record[colTitleNorm] = *edit.TitleNorm
		}

		if edit.Author.Set {
			record[colAuthor] = nullableText(edit.Author.Value)
		}

		if edit.Category.Set {
			record[colCategory] = nullableText(edit.Category.Value)
		}

		if edit.Pages != nil {
			record[colPages] = *edit.Pages
		}

		if edit.CopiesTotal != nil {
			counts, countsErr := current.Copies().WithTotal(*edit.CopiesTotal)
			if countsErr != nil {
				return countsErr
			}

			record[colCopiesTotal] = counts.Total
			record[colCopiesAvailable] = counts.Available
		}

		sqlQuery, buildErr := toSQL(s.builder().
			Update(s.booksTable).
			Set(record).
			Where(goqu.C(colID).Eq(id.String())).
			Returning(bookColumns()...))
		if buildErr != nil {
			return buildErr
		}

		updated, updateErr := s.queryOneBook(ctx, tx, sqlQuery, operation)
		if updateErr != nil {
			return updateErr
		}

		book = updated

		return nil
	})

	return book, err
}

// DeleteBook removes a book that has no active loans. Its returned loans are removed with it.
func (s *Store) DeleteBook(ctx context.Context, id uuid.UUID) (err error) {
	observer, ctx := s.observe(ctx, operationDeleteBook)
	defer func() { observer.finish(err, -1) }()

	return s.inTx(ctx, operationDeleteBook, func(tx adapters.DBTx) error {
		if _, lockErr := s.lockBook(ctx, tx, id, operationDeleteBook); lockErr != nil {
			return lockErr
		}

		activeLoans, countErr := s.countActiveLoans(ctx, tx, id)
		if countErr != nil {
			return countErr
		}

		if activeLoans > 0 {
			return circulation.ErrActiveLoansBlockDeletion
		}

		sqlQuery, buildErr := toSQL(s.builder().Delete(s.booksTable).Where(goqu.C(colID).Eq(id.String())))
		if buildErr != nil {
			return buildErr
		}

		deleted, execErr := s.execCounting(ctx, tx, sqlQuery, operationDeleteBook)
		if execErr != nil {
			return execErr
		}

		if deleted == 0 {
			return circulation.ErrBookNotFound
		}

		return nil
	})
}

func (s *Store) selectBook(id uuid.UUID) *goqu.SelectDataset {
	return s.builder().
		From(s.booksTable).
		Select(bookColumns()...).
		Where(goqu.C(colID).Eq(id.String()))
}

// lockBook reads a book with an exclusive row lock held until the transaction ends.
func (s *Store) lockBook(ctx context.Context, tx adapters.DBTx, id uuid.UUID, action string) (circulation.Book, error) {
	sqlQuery, err := toSQL(s.selectBook(id).ForUpdate(exp.Wait))
	if err != nil {
		return circulation.Book{}, err
	}

	return s.queryOneBook(ctx, tx, sqlQuery, action)
}

// queryOneBook runs a statement expected to return one book row, no row means circulation.ErrBookNotFound.
func (s *Store) queryOneBook(ctx context.Context, db queryer, sqlQuery string, action string) (circulation.Book, error) {
	var book circulation.Book
	found := false

	err := s.query(ctx, db, sqlQuery, action, func(rows adapters.DBRows) error {
		scanned, scanErr := scanBook(rows)
		if scanErr != nil {
			return scanErr
		}

		book = scanned
		found = true

		return nil
	})

	if err != nil {
		return circulation.Book{}, err
	}

	if !found {
		return circulation.Book{}, circulation.ErrBookNotFound
	}

	return book, nil
}

func (s *Store) countActiveLoans(ctx context.Context, tx adapters.DBTx, bookID uuid.UUID) (int64, error) {
	sqlQuery, err := toSQL(s.builder().
		From(s.loansTable).
		Select(goqu.COUNT(goqu.Star())).
		Where(
			goqu.C(colBookID).Eq(bookID.String()),
			goqu.C(colReturnedAt).IsNull(),
		))
	if err != nil {
		return 0, err
	}

	var count int64
	err = s.query(ctx, tx, sqlQuery, operationDeleteBook, func(rows adapters.DBRows) error {
		return rows.Scan(&count)
	})

	return count, err
}

func nullableText(text *string) any {
	if text == nil {
		return nil
	}

	return *text
}

func nullableInt(number *int) any {
	if number == nil {
		return nil
	}

	return *number
}
