package exportcatalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	queryType = "ExportCatalog"
)

// Format selects what is exported and how.
type Format string

const (
	FormatBooksJSON Format = "books.json"
	FormatBooksCSV  Format = "books.csv"
	FormatLoansJSON Format = "loans.json"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = fmt.Errorf("%w: unknown export format", circulation.ErrValidation)

// ParseFormat maps user input to a Format. The short forms "json" and "csv" mean the books exports.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "json", string(FormatBooksJSON):
		return FormatBooksJSON, nil
	case "csv", string(FormatBooksCSV):
		return FormatBooksCSV, nil
	case "loans", string(FormatLoansJSON):
		return FormatLoansJSON, nil
	default:
		return "", errors.Join(ErrUnknownFormat, fmt.Errorf("format %q", raw))
	}
}

// Query represents the intent to export in Format. ExportedAt is stamped into the payload and the filename.
type Query struct {
	Format     Format
	ExportedAt time.Time
}

// BuildQuery creates a new Query.
func BuildQuery(format Format, exportedAt time.Time) Query {
	return Query{Format: format, ExportedAt: exportedAt}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
