// Package adapters provide the database adapters the PostgreSQL circulation store runs on.
//
// Three connection types are supported: pgxpool.Pool, sql.DB (lib/pq) and sqlx.DB.
// Each adapter presents the same DBAdapter interface, including transactions,
// so the store can lock rows and commit atomically on any of them.
package adapters
