package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/utilitarian/spot-archive/internal/config"
	"github.com/utilitarian/spot-archive/internal/pipeline"
	"github.com/utilitarian/spot-archive/internal/scheduler"
	"github.com/utilitarian/spot-archive/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/spot.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting daemon",
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

	p, err := pipeline.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer p.Close()

	sched := scheduler.NewScheduler(ctx, scheduler.Jobs{
		Ingest: p.IngestDayAhead,
		Stats:  p.UpdateRecentStats,
		Notify: p.Notify,
	}, logger)

	if err := sched.Register(cfg.Schedule.IngestCron, cfg.Schedule.StatsCron, cfg.Schedule.NotifyCron); err != nil {
		logger.Error("failed to register tasks", "error", err)
		os.Exit(1)
	}

	sched.Start()

	if cfg.Schedule.RunOnStart {
		go sched.RunAllNow()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig)

	sched.Stop()
	cancel()
	logger.Info("daemon stopped")
}
