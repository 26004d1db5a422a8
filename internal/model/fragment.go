package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultClassification is the rank assigned to fragments published without a
// classification sequence. 999 sorts after every real rank, so an unclassified
// fragment never beats a classified re-publication of the same interval.
const DefaultClassification = 999

// ErrUnsupportedResolution is returned for cadences other than 60 and 15
// minutes. Callers skip the fragment rather than abort the batch.
var ErrUnsupportedResolution = errors.New("unsupported resolution")

// Resolution is the fixed cadence of a published time series.
type Resolution int

const (
	ResolutionUnknown Resolution = iota
	ResolutionHourly
	ResolutionQuarterHourly
)

// ParseResolution maps the upstream resolution code to a Resolution.
func ParseResolution(code string) (Resolution, error) {
	switch code {
	case "PT60M":
		return ResolutionHourly, nil
	case "PT15M":
		return ResolutionQuarterHourly, nil
	default:
		return ResolutionUnknown, fmt.Errorf("%w: %q", ErrUnsupportedResolution, code)
	}
}

// Step returns the slot duration.
func (r Resolution) Step() time.Duration {
	switch r {
	case ResolutionHourly:
		return time.Hour
	case ResolutionQuarterHourly:
		return 15 * time.Minute
	}
	return 0
}

// Slots returns the number of cadence slots in one published interval.
func (r Resolution) Slots() int {
	switch r {
	case ResolutionHourly:
		return 24
	case ResolutionQuarterHourly:
		return 96
	}
	return 0
}

func (r Resolution) String() string {
	switch r {
	case ResolutionHourly:
		return "PT60M"
	case ResolutionQuarterHourly:
		return "PT15M"
	}
	return "unknown"
}

// Interval is the half-open [Start, End) window a fragment covers.
type Interval struct {
	Start time.Time
	End   time.Time
}

// DataPoint is one sparse entry of a fragment. Position is a 1-based offset
// into the interval at the fragment's resolution; the source elides slots
// whose price repeats the previous one.
type DataPoint struct {
	Position int
	Price    decimal.Decimal
}

// RawFragment is one time series as published by the upstream source for a
// query window. Fragments are transient: decoded from one response, expanded
// by the normalizer, then discarded.
type RawFragment struct {
	Currency       string
	EnergyUnit     string
	Interval       Interval
	Resolution     string // upstream code, e.g. "PT60M"
	Classification int    // authority rank, lower wins; DefaultClassification when absent
	DataPoints     []DataPoint
}
