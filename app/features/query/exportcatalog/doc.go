// Package exportcatalog renders downloadable exports of the catalog and the loan ledger.
//
// Books are exported as JSON or CSV ordered by title, loans as JSON with the newest loan first.
// Exports are rendered in memory; the catalog of a single library fits comfortably.
package exportcatalog
