// Package pgtesthelpers provides test utilities for the PostgreSQL circulation store with multi-adapter support.
//
// Tests run against all PostgreSQL drivers (pgx, sql.DB, sqlx.DB) through the Wrapper
// interface. The adapter is chosen with the ADAPTER_TYPE environment variable
// (pgx.pool, sql.db, sqlx.db; pgx.pool when empty). When the test database is not
// reachable the calling test is skipped.
package pgtesthelpers
