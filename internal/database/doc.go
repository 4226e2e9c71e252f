// Package database provides PostgreSQL connectivity for the overlay state.
//
// Uses pgx for connection pooling. The schema is a single-row table with
// additive-only migrations, so upgrading against an existing deployment
// never loses data.
package database
