// Package searchbooks lists the catalog, optionally filtered by a free-text query.
//
// Results may come from a read replica, so a book added a moment ago can be missing.
package searchbooks
