// Package changecopiestotal implements changing how many copies of a book the library owns.
//
// Copies on loan are kept: the available copies become the new total minus the active loans,
// and a total below the active loans is refused.
package changecopiestotal
