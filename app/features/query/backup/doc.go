// Package backup produces a full snapshot of the books and loans tables as one JSON document.
package backup
