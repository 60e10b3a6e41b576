// Package listloans lists loans with the catalog data of their books.
//
// The listing is capped at 500 rows and filtered by status (active by default, overdue,
// returned or all) and by a free-text query over title, author, category and borrower.
package listloans
