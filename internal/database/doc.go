// Package database manages the PostgreSQL connection pool backing the
// optional postgres archive store.
package database
