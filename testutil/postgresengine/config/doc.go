// Package config provides PostgreSQL connections for circulation store tests.
//
// It creates connections for all supported adapters (pgx.Pool, sql.DB, sqlx.DB)
// against the test database. The DSN defaults to a local database and can be
// overridden with TEST_DATABASE_URL.
package config
