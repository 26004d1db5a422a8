package archive

import (
	"context"
	"fmt"

	"github.com/utilitarian/spot-archive/internal/model"
)

// Granularity names one partition scheme of the archive.
type Granularity string

const (
	GranularityDay    Granularity = "day"
	GranularityMonth  Granularity = "month"
	GranularityYear   Granularity = "year"
	GranularityLatest Granularity = "latest"
)

// LatestKey is the singleton partition key of the latest granularity.
const LatestKey = "latest"

// Store reads and writes archive partitions. Read returns an empty slice
// for partitions that do not exist yet. Write replaces the partition
// wholesale with the given sorted set.
type Store interface {
	Read(ctx context.Context, area string, g Granularity, key string) ([]model.PricePoint, error)
	Write(ctx context.Context, area string, g Granularity, key string, points []model.PricePoint) error

	// Year statistics live alongside the price partitions.
	ReadStats(ctx context.Context, area, year string) ([]model.DayStatistics, error)
	WriteStats(ctx context.Context, area, year string, stats []model.DayStatistics) error
}

// PersistenceError is an archive I/O failure. Fatal for the merge that hit
// it; no partial partition is left behind on write failure.
type PersistenceError struct {
	Area        string
	Granularity Granularity
	Key         string
	Op          string // "read" or "write"
	Err         error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("archive %s %s/%s/%s: %v", e.Op, e.Area, e.Granularity, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Partition key formats. Keys are derived from the point's own zoned
// timestamp, so a day runs midnight to midnight in market time.
const (
	dayKeyFormat   = "2006-01-02"
	monthKeyFormat = "2006-01"
	yearKeyFormat  = "2006"
)

// GroupByDay buckets points by their calendar day key.
func GroupByDay(points []model.PricePoint) map[string][]model.PricePoint {
	return groupBy(points, dayKeyFormat)
}

// GroupByMonth buckets points by their calendar month key.
func GroupByMonth(points []model.PricePoint) map[string][]model.PricePoint {
	return groupBy(points, monthKeyFormat)
}

// GroupByYear buckets points by their calendar year key.
func GroupByYear(points []model.PricePoint) map[string][]model.PricePoint {
	return groupBy(points, yearKeyFormat)
}

func groupBy(points []model.PricePoint, format string) map[string][]model.PricePoint {
	out := make(map[string][]model.PricePoint)
	for _, p := range points {
		key := p.Timestamp.Format(format)
		out[key] = append(out[key], p)
	}
	return out
}
