// Package returnbookcopy implements closing a loan and putting its copy back on the shelf.
package returnbookcopy
