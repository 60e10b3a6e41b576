package postgresengine

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

const (
	colID              = "id"
	colTitle           = "title"
	colTitleNorm       = "title_norm"
	colAuthor          = "author"
	colCategory        = "category"
	colPages           = "pages"
	colCopiesTotal     = "copies_total"
	colCopiesAvailable = "copies_available"
	colCreatedAt       = "created_at"
	colUpdatedAt       = "updated_at"
	colBookID          = "book_id"
	colBorrower        = "borrower"
	colBorrowDate      = "borrow_date"
	colDueDate         = "due_date"
	colReturnedAt      = "returned_at"
	colInserted        = "inserted"
)

// schemaTemplate is applied by CreateSchema. %[1]s is the books table, %[2]s the loans table,
// %[3]s to %[5]s are the constraint and index names, all quoted.
// The unique constraint name contains title_norm, duplicate detection relies on that.
const schemaTemplate = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id               UUID PRIMARY KEY,
	title            TEXT NOT NULL,
	title_norm       TEXT NOT NULL,
	author           TEXT,
	category         TEXT,
	pages            INTEGER CHECK (pages > 0),
	copies_total     INTEGER NOT NULL CHECK (copies_total >= 1),
	copies_available INTEGER NOT NULL CHECK (copies_available >= 0 AND copies_available <= copies_total),
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT %[3]s UNIQUE (title_norm)
);

CREATE TABLE IF NOT EXISTS %[2]s (
	id          UUID PRIMARY KEY,
	book_id     UUID NOT NULL REFERENCES %[1]s (id) ON DELETE CASCADE,
	borrower    TEXT NOT NULL CHECK (btrim(borrower) <> ''),
	borrow_date TIMESTAMPTZ NOT NULL,
	due_date    DATE NOT NULL,
	returned_at TIMESTAMPTZ,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS %[4]s ON %[2]s (book_id) WHERE returned_at IS NULL;
CREATE INDEX IF NOT EXISTS %[5]s ON %[2]s (due_date);
`

// CreateSchema creates the books and loans tables and their indexes if they do not exist yet.
// Table names are quoted the same way the generated statements quote them, "schema.table" included.
func (s *Store) CreateSchema(ctx context.Context) (err error) {
	observer, ctx := s.observe(ctx, operationCreateSchema)
	defer func() { observer.finish(err, -1) }()

	stmt := fmt.Sprintf(
		schemaTemplate,
		quoteTableName(s.booksTable),
		quoteTableName(s.loansTable),
		pq.QuoteIdentifier(unqualified(s.booksTable)+"_title_norm_key"),
		pq.QuoteIdentifier(unqualified(s.loansTable)+"_active_book_idx"),
		pq.QuoteIdentifier(unqualified(s.loansTable)+"_due_date_idx"),
	)

	return s.exec(ctx, s.db, stmt, operationCreateSchema)
}

// DropSchema removes both tables. It exists for tests and local resets.
func (s *Store) DropSchema(ctx context.Context) error {
	stmt := fmt.Sprintf(
		"DROP TABLE IF EXISTS %s; DROP TABLE IF EXISTS %s;",
		quoteTableName(s.loansTable),
		quoteTableName(s.booksTable),
	)

	return s.exec(ctx, s.db, stmt, "drop_schema")
}

// quoteTableName quotes every part of a possibly schema-qualified table name.
func quoteTableName(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = pq.QuoteIdentifier(part)
	}

	return strings.Join(parts, ".")
}

func unqualified(name string) string {
	return name[strings.LastIndex(name, ".")+1:]
}
