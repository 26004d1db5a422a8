// Package reconcile drives one ingestion run: fetch raw fragments over a
// query window, normalize each into a full-cadence sequence, and resolve
// overlaps into a single ordered series.
//
// The engine isolates per-fragment and per-window failures: malformed
// documents and unsupported fragments are logged and skipped, while
// transport failures propagate (or skip the sub-window during backfill when
// the caller opts in).
package reconcile
