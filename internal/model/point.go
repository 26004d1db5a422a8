package model

import "time"

// MarketZone is the fixed UTC+1 offset the day-ahead market publishes in.
// The market does not observe DST; archived timestamps always carry +01:00.
var MarketZone = time.FixedZone("UTC+1", 3600)

// PricePoint is one archived price for one cadence slot.
//
// Two points are the same record only when both timestamp instant and value
// match exactly. A changed value at an existing timestamp is a different
// record, not an update; the merge layer builds on this.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     string    `json:"value"`
}

// Equal reports whether p and other denote the same record.
func (p PricePoint) Equal(other PricePoint) bool {
	return p.Timestamp.Equal(other.Timestamp) && p.Value == other.Value
}

// ReconciledSeries is the output of one reconciliation run: gap-free,
// deduplicated price points sorted ascending by timestamp.
type ReconciledSeries []PricePoint
