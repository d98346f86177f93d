// Command populate runs one ingestion pass against the configured store
// and exits. It shares the server's wiring, so the stored rows are exactly
// what the cron endpoint would have written.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sakif/gh-rankings/internal/config"
	"github.com/sakif/gh-rankings/internal/repository/sqlite"
	"github.com/sakif/gh-rankings/internal/server"
)

func main() {
	os.Exit(run())
}

// run returns the exit code so deferred cleanup runs before os.Exit.
func run() int {
	configFile := flag.String("config", os.Getenv("CONFIG_FILE"), "optional YAML config file")
	query := flag.String("query", "", "search query (defaults to ingest.query)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.NewLoader(*configFile, logger).Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}
	if lvl, err := config.ParseLevel(cfg.LogLevel); err == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	}

	if cfg.DB.Driver == config.DriverSQLite && cfg.DB.Path != sqlite.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.DB.Path), 0755); err != nil {
			logger.Error("failed to create database directory", slog.String("error", err.Error()))
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("closing resources", slog.String("error", err.Error()))
		}
	}()

	logger.Info("starting database population")
	res, err := app.Job.Run(ctx, *query)
	if err != nil {
		logger.Error("failed to populate database", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("database population completed",
		slog.String("run_id", res.RunID),
		slog.Int("processed", res.Processed),
		slog.Int("failed", res.Failed),
		slog.Duration("duration", res.Duration),
	)
	return 0
}
