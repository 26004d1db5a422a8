// Package api provides the client for the transparency platform REST API.
//
// Day-ahead prices are published as Publication_MarketDocument XML: one or
// more TimeSeries per response, each carrying a Period with a time interval,
// a resolution code, and a sparse list of Points. The decoder maps this into
// model.RawFragment; the upstream may re-publish an interval with a
// classificationSequence marking the more authoritative series.
//
// Query spans are limited to 14 days by the upstream; callers split longer
// windows (see internal/reconcile).
package api
