package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utilitarian/spot-archive/internal/api"
	"github.com/utilitarian/spot-archive/internal/model"
	"github.com/utilitarian/spot-archive/internal/normalize"
	"github.com/utilitarian/spot-archive/internal/ratelimit"
)

// MaxQueryWindow is the hard upstream limit on one query span.
const MaxQueryWindow = 14 * 24 * time.Hour

// Fetcher provides raw fragments for a query window.
type Fetcher interface {
	FetchDayAheadPrices(ctx context.Context, area model.PriceArea, start, end time.Time) ([]model.RawFragment, error)
}

// Options controls one reconciliation run.
type Options struct {
	// ContinueOnError skips sub-windows whose request fails instead of
	// aborting the run. Meant for historical backfill; day-ahead runs keep
	// the default and treat transport failures as fatal.
	ContinueOnError bool
}

// Report summarizes one run for logging and exit-status decisions.
type Report struct {
	RunID            string
	SubWindows       int
	FailedWindows    int
	Fragments        int
	SkippedFragments int
	Points           int
}

// Engine orchestrates fetch, normalize, and resolve over a query window.
type Engine struct {
	limiter *ratelimit.Limiter
	fetcher Fetcher
	logger  *slog.Logger
}

// New creates an Engine.
func New(limiter *ratelimit.Limiter, fetcher Fetcher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		limiter: limiter,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Run reconciles the [start, end) window for one area into a single ordered,
// deduplicated series.
func (e *Engine) Run(ctx context.Context, area model.PriceArea, start, end time.Time, opts Options) (model.ReconciledSeries, *Report, error) {
	report := &Report{RunID: uuid.NewString()}
	logger := e.logger.With("run_id", report.RunID, "area", area.Name)

	windows := splitWindow(start, end, MaxQueryWindow)
	report.SubWindows = len(windows)

	logger.Info("starting reconciliation run",
		"start", start,
		"end", end,
		"sub_windows", len(windows),
	)

	var normalized []normalize.NormalizedFragment
	for _, w := range windows {
		fragments, err := e.fetchWindow(ctx, area, w)
		if err != nil {
			var parseErr *api.ParseError
			if errors.As(err, &parseErr) {
				// Structural parse failure: the window yields no data but the
				// run goes on.
				logger.Error("no usable document for sub-window",
					"start", w.start, "end", w.end, "err", parseErr)
				report.FailedWindows++
				continue
			}
			if opts.ContinueOnError {
				logger.Warn("skipping failed sub-window",
					"start", w.start, "end", w.end, "err", err)
				report.FailedWindows++
				continue
			}
			return nil, report, fmt.Errorf("fetch %s [%s, %s): %w",
				area.Name, w.start.Format(time.RFC3339), w.end.Format(time.RFC3339), err)
		}

		for _, frag := range fragments {
			points, err := normalize.Expand(frag)
			if err != nil {
				logger.Warn("skipping fragment",
					"interval_start", frag.Interval.Start,
					"resolution", frag.Resolution,
					"err", err,
				)
				report.SkippedFragments++
				continue
			}
			normalized = append(normalized, normalize.NormalizedFragment{
				Classification: frag.Classification,
				Points:         points,
			})
			report.Fragments++
		}
	}

	series := normalize.Resolve(normalized)
	report.Points = len(series)

	logger.Info("reconciliation run complete",
		"fragments", report.Fragments,
		"skipped_fragments", report.SkippedFragments,
		"failed_windows", report.FailedWindows,
		"points", report.Points,
	)

	return series, report, nil
}

func (e *Engine) fetchWindow(ctx context.Context, area model.PriceArea, w window) ([]model.RawFragment, error) {
	if err := e.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return e.fetcher.FetchDayAheadPrices(ctx, area, w.start, w.end)
}

type window struct {
	start time.Time
	end   time.Time
}

// splitWindow slices [start, end) into consecutive sub-windows no longer
// than max.
func splitWindow(start, end time.Time, max time.Duration) []window {
	var out []window
	for cursor := start; cursor.Before(end); {
		next := cursor.Add(max)
		if next.After(end) {
			next = end
		}
		out = append(out, window{start: cursor, end: next})
		cursor = next
	}
	return out
}
