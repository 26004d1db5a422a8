// Package stats computes per-day price statistics (lowest, highest, mean)
// over the archive and maintains the per-year statistics files.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/utilitarian/spot-archive/internal/archive"
	"github.com/utilitarian/spot-archive/internal/model"
)

// Calculator derives day statistics from archived day partitions.
type Calculator struct {
	store    archive.Store
	recorder Recorder
	logger   *slog.Logger
}

// NewCalculator creates a Calculator. recorder may be nil to skip history
// recording.
func NewCalculator(store archive.Store, recorder Recorder, logger *slog.Logger) *Calculator {
	if recorder == nil {
		recorder = NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{
		store:    store,
		recorder: recorder,
		logger:   logger,
	}
}

// DayStats computes statistics for one archived day. The average is rounded
// half-up to two decimals. An empty day partition is an error; callers skip
// days with no published data.
func (c *Calculator) DayStats(ctx context.Context, area, day string) (model.DayStatistics, error) {
	points, err := c.store.Read(ctx, area, archive.GranularityDay, day)
	if err != nil {
		return model.DayStatistics{}, err
	}
	if len(points) == 0 {
		return model.DayStatistics{}, fmt.Errorf("no archived prices for %s on %s", area, day)
	}

	var lowest, highest, sum decimal.Decimal
	for i, p := range points {
		value, err := decimal.NewFromString(p.Value)
		if err != nil {
			return model.DayStatistics{}, fmt.Errorf("bad archived value %q for %s on %s: %w", p.Value, area, day, err)
		}
		if i == 0 {
			lowest, highest = value, value
		} else {
			if value.LessThan(lowest) {
				lowest = value
			}
			if value.GreaterThan(highest) {
				highest = value
			}
		}
		sum = sum.Add(value)
	}

	average := sum.Div(decimal.NewFromInt(int64(len(points)))).StringFixed(2)

	return model.DayStatistics{
		Day:          day,
		HighestPrice: highest.String(),
		LowestPrice:  lowest.String(),
		AveragePrice: average,
	}, nil
}

// UpdateYear computes statistics for one day and folds them into that
// year's statistics file, replacing any existing entry for the same day so
// recomputation never duplicates.
func (c *Calculator) UpdateYear(ctx context.Context, area, day string) (model.DayStatistics, error) {
	dayStats, err := c.DayStats(ctx, area, day)
	if err != nil {
		return model.DayStatistics{}, err
	}

	year := day[:4]
	existing, err := c.store.ReadStats(ctx, area, year)
	if err != nil {
		return model.DayStatistics{}, err
	}

	replaced := false
	for i := range existing {
		if existing[i].Day == day {
			existing[i] = dayStats
			replaced = true
			break
		}
	}
	if !replaced {
		existing = append(existing, dayStats)
	}
	sort.Slice(existing, func(a, b int) bool {
		return existing[a].Day < existing[b].Day
	})

	c.logger.Info("updating day statistics",
		"area", area,
		"day", day,
		"lowest", dayStats.LowestPrice,
		"highest", dayStats.HighestPrice,
		"average", dayStats.AveragePrice,
	)

	if err := c.store.WriteStats(ctx, area, year, existing); err != nil {
		return model.DayStatistics{}, err
	}

	if err := c.recorder.RecordDayStats(area, dayStats); err != nil {
		// History recording is best-effort; the stats file is the source of
		// truth.
		c.logger.Warn("failed to record stats history", "area", area, "day", day, "err", err)
	}

	return dayStats, nil
}
