package postgresengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/postgresengine/internal/adapters"
)

// ImportBooks upserts grouped legacy records by normalized title in one transaction.
//
// A new title is inserted with the group's counts. An existing title gets the group's
// counts added, takes the group's display title and has author, category and pages filled
// where they are still empty; values already set are never overwritten. Any failure rolls
// back the whole batch. RecordsProcessed of the result is left to the caller.
func (s *Store) ImportBooks(ctx context.Context, groups []circulation.ImportGroup) (stats circulation.ImportStats, err error) {
	observer, ctx := s.observe(ctx, operationImportBooks)
	defer func() {
		observer.finish(err, stats.Groups, "inserted", stats.Inserted, "updated", stats.Updated)
	}()

	statements := make([]string, 0, len(groups))

	for _, group := range groups {
		sqlQuery, buildErr := s.buildUpsertQuery(group)
		if buildErr != nil {
			return circulation.ImportStats{}, buildErr
		}

		statements = append(statements, sqlQuery)
	}

	var result circulation.ImportStats

	err = s.inTx(ctx, operationImportBooks, func(tx adapters.DBTx) error {
		for _, sqlQuery := range statements {
			var inserted bool

			queryErr := s.query(ctx, tx, sqlQuery, operationImportBooks, func(rows adapters.DBRows) error {
				return rows.Scan(&inserted)
			})
			if queryErr != nil {
				return queryErr
			}

			if inserted {
				result.Inserted++
			} else {
				result.Updated++
			}
		}

		return nil
	})

	if err != nil {
		return circulation.ImportStats{}, err
	}

	result.Groups = len(groups)
	stats = result

	return stats, nil
}

func (s *Store) buildUpsertQuery(group circulation.ImportGroup) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	existing := func(column string) exp.LiteralExpression {
		return goqu.L("COALESCE(?, EXCLUDED.?)", s.booksColumn(column), goqu.C(column))
	}

	added := func(column string) exp.LiteralExpression {
		return goqu.L("? + EXCLUDED.?", s.booksColumn(column), goqu.C(column))
	}

	stmt := s.builder().
		Insert(s.booksTable).
		Rows(goqu.Record{
			colID:              id.String(),
			colTitle:           group.Title,
			colTitleNorm:       group.TitleNorm,
			colAuthor:          nullableText(group.Author),
			colCategory:        nullableText(group.Category),
			colPages:           nullableInt(group.Pages),
			colCopiesTotal:     group.CopiesTotal,
			colCopiesAvailable: group.CopiesAvailable,
		}).
		OnConflict(goqu.DoUpdate(colTitleNorm, goqu.Record{
			colTitle:           goqu.L("EXCLUDED.?", goqu.C(colTitle)),
			colAuthor:          existing(colAuthor),
			colCategory:        existing(colCategory),
			colPages:           existing(colPages),
			colCopiesTotal:     added(colCopiesTotal),
			colCopiesAvailable: added(colCopiesAvailable),
			colUpdatedAt:       goqu.L("NOW()"),
		})).
		Returning(goqu.L("(xmax = 0)").As(colInserted))

	return toSQL(stmt)
}

// booksColumn qualifies a column with the books table, which may carry a schema.
func (s *Store) booksColumn(column string) exp.IdentifierExpression {
	return goqu.I(s.booksTable + "." + column)
}
