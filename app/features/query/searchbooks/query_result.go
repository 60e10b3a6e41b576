package searchbooks

import "github.com/AntonStoeckl/library-circulation-go/circulation"

// Books is the query result, ordered by title.
type Books struct {
	Books []circulation.Book
	Count int
}
