package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/utilitarian/spot-archive/internal/config"
	"github.com/utilitarian/spot-archive/internal/model"
	"github.com/utilitarian/spot-archive/internal/pipeline"
	"github.com/utilitarian/spot-archive/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/spot.yaml", "path to config file")
	mode := flag.String("mode", "day-ahead", "ingestion mode: day-ahead or backfill")
	startFlag := flag.String("start", "", "backfill start day (YYYY-MM-DD, inclusive)")
	endFlag := flag.String("end", "", "backfill end day (YYYY-MM-DD, inclusive)")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting ingest",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"mode", *mode,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	p, err := pipeline.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer p.Close()

	switch *mode {
	case "day-ahead":
		err = p.IngestDayAhead(ctx)
	case "backfill":
		var start, end time.Time
		start, end, err = backfillWindow(*startFlag, *endFlag)
		if err == nil {
			err = p.Backfill(ctx, start, end)
		}
	default:
		logger.Error("unknown mode", "mode", *mode)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}
	logger.Info("ingest finished")
}

// backfillWindow parses the inclusive day range flags into a half-open
// window in market time.
func backfillWindow(startFlag, endFlag string) (time.Time, time.Time, error) {
	if startFlag == "" || endFlag == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("backfill mode requires -start and -end")
	}
	start, err := time.ParseInLocation("2006-01-02", startFlag, model.MarketZone)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad -start: %w", err)
	}
	end, err := time.ParseInLocation("2006-01-02", endFlag, model.MarketZone)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad -end: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("-end is before -start")
	}
	return start, end.AddDate(0, 0, 1), nil
}
