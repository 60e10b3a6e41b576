package getbook

import "github.com/google/uuid"

const (
	queryType = "GetBook"
)

// Query represents the intent to read the book BookID.
type Query struct {
	BookID uuid.UUID
}

// BuildQuery creates a new Query.
func BuildQuery(bookID uuid.UUID) Query {
	return Query{BookID: bookID}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
