// Package archive persists reconciled price series into a partitioned,
// durable archive and merges new observations idempotently with what is
// already stored.
//
// Partitions are keyed by price area and calendar period: day (YYYY-MM-DD),
// month (YYYY-MM), year (YYYY), plus a rolling "latest" partition covering
// today and tomorrow for live display. Within a partition records form a
// sorted set; merging the same series twice is a no-op.
//
// Two backends implement Store: a filesystem store writing the index.json
// layout consumed by the static site, and a PostgreSQL store for operators
// who want the archive queryable.
package archive
