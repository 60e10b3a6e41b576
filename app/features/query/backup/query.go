package backup

import "time"

const (
	queryType = "Backup"
)

// Query represents the intent to take a backup at GeneratedAt.
type Query struct {
	GeneratedAt time.Time
}

// BuildQuery creates a new Query.
func BuildQuery(generatedAt time.Time) Query {
	return Query{GeneratedAt: generatedAt}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
