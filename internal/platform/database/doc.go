// Package database provides the SQL implementations of the interfaces in
// internal/store. PostgreSQL (via pgx) is the production backend and SQLite
// (via modernc.org/sqlite) serves local development and tests. Both share the
// same queries, written with PostgreSQL placeholders and rebound per dialect,
// and both are migrated by goose from embedded per-dialect migrations.
package database
