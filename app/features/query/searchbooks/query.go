package searchbooks

import "strings"

const (
	queryType = "SearchBooks"
)

// Query represents the intent to list books whose title, author or category contain Text.
type Query struct {
	Text string
}

// BuildQuery creates a new Query. Surrounding whitespace is dropped.
func BuildQuery(text string) Query {
	return Query{Text: strings.TrimSpace(text)}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
