package listloans

import (
	"strings"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	queryType = "ListLoans"
)

// Query represents the intent to list loans. Today decides which loans are overdue.
type Query struct {
	Status circulation.LoanStatus
	Text   string
	Today  time.Time
}

// BuildQuery creates a new Query. An unknown status fails with circulation.ErrInvalidLoanStatus.
func BuildQuery(status string, text string, today time.Time) (Query, error) {
	loanStatus, err := circulation.ParseLoanStatus(status)
	if err != nil {
		return Query{}, err
	}

	return Query{
		Status: loanStatus,
		Text:   strings.TrimSpace(text),
		Today:  today,
	}, nil
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
