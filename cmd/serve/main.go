package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/utilitarian/spot-archive/internal/config"
	"github.com/utilitarian/spot-archive/internal/serve"
	"github.com/utilitarian/spot-archive/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/spot.yaml", "path to config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	root := flag.String("root", "", "directory to serve (overrides config)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting serve",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Serve.Addr = *addr
	}
	if *root != "" {
		cfg.Serve.Root = *root
	}

	server := serve.NewServer(cfg.Serve.Root, logger)
	if err := server.ListenAndServe(cfg.Serve.Addr); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
