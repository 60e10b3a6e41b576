// Package deletebook implements removing a book from the catalog. Books with active loans stay.
package deletebook
