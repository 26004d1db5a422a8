// Package pipeline assembles the ingestion components from configuration
// and exposes the job entry points shared by the one-shot binaries and the
// daemon.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/utilitarian/spot-archive/internal/api"
	"github.com/utilitarian/spot-archive/internal/archive"
	"github.com/utilitarian/spot-archive/internal/config"
	"github.com/utilitarian/spot-archive/internal/database"
	"github.com/utilitarian/spot-archive/internal/model"
	"github.com/utilitarian/spot-archive/internal/notify"
	"github.com/utilitarian/spot-archive/internal/ratelimit"
	"github.com/utilitarian/spot-archive/internal/reconcile"
	"github.com/utilitarian/spot-archive/internal/stats"
)

// Pipeline wires the configured store, engine, statistics and notification
// components together.
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger

	store    archive.Store
	merger   *archive.Merger
	engine   *reconcile.Engine
	calc     *stats.Calculator
	notifier *notify.Notifier
	recorder stats.Recorder
	pool     *pgxpool.Pool
}

// New builds a Pipeline from config. Close must be called when done.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{cfg: cfg, logger: logger}

	switch cfg.Archive.Backend {
	case "filesystem":
		p.store = archive.NewFSStore(cfg.Archive.Root)
	case "postgres":
		pool, err := database.Connect(ctx, cfg.Archive.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connect archive database: %w", err)
		}
		pg := archive.NewPGStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate archive database: %w", err)
		}
		p.pool = pool
		p.store = pg
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
	}

	policy, err := archive.ParsePolicy(cfg.Archive.MergePolicy)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.merger = archive.NewMerger(p.store, policy, logger)

	client := api.NewClient(cfg.API.BaseURL, cfg.API.SecurityToken,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
	)
	limiter := ratelimit.New(cfg.RateLimit.MaxCalls, cfg.RateLimit.Period)
	p.engine = reconcile.New(limiter, client, logger)

	p.recorder = stats.NoopRecorder{}
	if cfg.Stats.SQLitePath != "" {
		rec, err := stats.NewSQLiteRecorder(cfg.Stats.SQLitePath, logger)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("open stats recorder: %w", err)
		}
		p.recorder = rec
	}
	p.calc = stats.NewCalculator(p.store, p.recorder, logger)

	if cfg.Notify.SubscriptionEndpoint != "" {
		service := notify.NewServiceClient(cfg.Notify.SubscriptionEndpoint, cfg.Notify.AdminToken)
		sender := &notify.VAPIDSender{
			PrivateKey: cfg.Notify.VAPIDPrivateKey,
			PublicKey:  cfg.Notify.VAPIDPublicKey,
			Subject:    cfg.Notify.VAPIDSubject,
			TTL:        int(cfg.Notify.TTL / time.Second),
		}
		p.notifier = notify.NewNotifier(p.store, service, sender, logger)
	}

	return p, nil
}

// Close releases the pipeline's pooled resources.
func (p *Pipeline) Close() {
	if p.recorder != nil {
		if err := p.recorder.Close(); err != nil {
			p.logger.Warn("closing stats recorder", "err", err)
		}
	}
	if p.pool != nil {
		p.pool.Close()
	}
}

// DayAheadWindow returns the default ingestion window around now: midnight
// days-behind days ago up to the end of the last days-ahead day, in market
// time.
func (p *Pipeline) DayAheadWindow(now time.Time) (time.Time, time.Time) {
	midnight := Midnight(now)
	start := midnight.AddDate(0, 0, -p.cfg.Ingest.DaysBehind)
	end := midnight.AddDate(0, 0, p.cfg.Ingest.DaysAhead+1)
	return start, end
}

// IngestDayAhead runs the default ingestion window for every configured
// area and refreshes the latest partition.
func (p *Pipeline) IngestDayAhead(ctx context.Context) error {
	start, end := p.DayAheadWindow(time.Now())
	return p.ingest(ctx, start, end, reconcile.Options{}, true)
}

// Backfill ingests a historical window for every configured area. Windows
// with failures are skipped so one bad stretch does not abort the rest.
// The latest partition is left alone: a historical series carries nothing
// for today or tomorrow, and replacing the live feed with that empty set
// would blank the display until the next day-ahead run.
func (p *Pipeline) Backfill(ctx context.Context, start, end time.Time) error {
	return p.ingest(ctx, start, end, reconcile.Options{ContinueOnError: true}, false)
}

// ingest fetches, reconciles and archives the window for every configured
// area.
func (p *Pipeline) ingest(ctx context.Context, start, end time.Time, opts reconcile.Options, updateLatest bool) error {
	var firstErr error
	for _, name := range p.cfg.Areas {
		area, err := model.LookupArea(name)
		if err != nil {
			return err
		}

		series, report, err := p.engine.Run(ctx, area, start, end, opts)
		if err != nil {
			p.logger.Error("ingest failed", "area", area.Name, "err", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("area %s: %w", area.Name, err)
			}
			continue
		}
		p.logger.Info("ingest reconciled",
			"area", area.Name,
			"run_id", report.RunID,
			"windows", report.SubWindows,
			"failed_windows", report.FailedWindows,
			"fragments", report.Fragments,
			"points", report.Points,
		)

		if len(series) == 0 {
			continue
		}
		if err := p.merger.MergeAll(ctx, area.Name, series); err != nil {
			return err
		}
		if updateLatest {
			if err := p.merger.MergeLatest(ctx, area.Name, series, time.Now()); err != nil {
				return err
			}
		}
	}
	return firstErr
}

// UpdateStats recomputes day statistics for every configured area over the
// day range [start, end]. Days without archived prices are skipped.
func (p *Pipeline) UpdateStats(ctx context.Context, start, end time.Time) error {
	for _, area := range p.cfg.Areas {
		for day := Midnight(start); !day.After(end); day = day.AddDate(0, 0, 1) {
			key := day.Format("2006-01-02")
			points, err := p.store.Read(ctx, area, archive.GranularityDay, key)
			if err != nil {
				return err
			}
			if len(points) == 0 {
				p.logger.Debug("no prices archived, skipping stats", "area", area, "day", key)
				continue
			}
			if _, err := p.calc.UpdateYear(ctx, area, key); err != nil {
				return err
			}
		}
	}
	return nil
}

// UpdateRecentStats covers the default ingestion window, catching both
// freshly published days and late corrections.
func (p *Pipeline) UpdateRecentStats(ctx context.Context) error {
	start, end := p.DayAheadWindow(time.Now())
	return p.UpdateStats(ctx, start, end.AddDate(0, 0, -1))
}

// Notify runs the freshness check for every configured area. It is a no-op
// when no subscription endpoint is configured.
func (p *Pipeline) Notify(ctx context.Context) error {
	if p.notifier == nil {
		p.logger.Info("no subscription endpoint configured, skipping notify")
		return nil
	}
	return p.notifier.Run(ctx, p.cfg.Areas)
}

// Midnight truncates t to the start of its day in market time.
func Midnight(t time.Time) time.Time {
	local := t.In(model.MarketZone)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, model.MarketZone)
}
