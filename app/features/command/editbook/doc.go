// Package editbook implements partial updates of a catalog entry.
//
// Absent fields keep their value, empty optional text clears it. A new title must stay unique
// after normalization and a new copies total must cover the copies currently on loan.
package editbook
