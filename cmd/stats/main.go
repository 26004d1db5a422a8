package main

import (
	"context"
	"flag"
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
	startFlag := flag.String("start", "", "first day to recompute (YYYY-MM-DD, default recent window)")
	endFlag := flag.String("end", "", "last day to recompute (YYYY-MM-DD, inclusive)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting stats",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
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

	if *startFlag == "" && *endFlag == "" {
		err = p.UpdateRecentStats(ctx)
	} else {
		var start, end time.Time
		start, err = time.ParseInLocation("2006-01-02", *startFlag, model.MarketZone)
		if err != nil {
			logger.Error("bad -start", "error", err)
			os.Exit(2)
		}
		end, err = time.ParseInLocation("2006-01-02", *endFlag, model.MarketZone)
		if err != nil {
			logger.Error("bad -end", "error", err)
			os.Exit(2)
		}
		err = p.UpdateStats(ctx, start, end)
	}

	if err != nil {
		logger.Error("stats failed", "error", err)
		os.Exit(1)
	}
	logger.Info("stats finished")
}
