// Package addbook implements the catalog entry of a new book title with its copies.
package addbook
