// Package main is the entry point for the rankings HTTP server.
//
// main only loads configuration, builds the logger and hands both to
// internal/server; everything else lives in internal packages.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/gh-rankings/internal/config"
	"github.com/sakif/gh-rankings/internal/repository/sqlite"
	"github.com/sakif/gh-rankings/internal/server"
)

func main() {
	configFile := flag.String("config", os.Getenv("CONFIG_FILE"), "optional YAML config file (hot-reloaded)")
	flag.Parse()

	// === 1. LOGGING ===
	// The level is a LevelVar so a config reload can change it in place.
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	// === 2. CONFIGURATION ===
	loader := config.NewLoader(*configFile, logger)
	cfg, err := loader.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if lvl, err := config.ParseLevel(cfg.LogLevel); err == nil {
		level.Set(lvl)
	}

	// === 3. DATABASE DIRECTORY ===
	if cfg.DB.Driver == config.DriverSQLite && cfg.DB.Path != sqlite.MemoryPath {
		dbDir := filepath.Dir(cfg.DB.Path)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. SERVER ===
	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	loader.OnChange(func(c *config.Config) {
		if lvl, err := config.ParseLevel(c.LogLevel); err == nil {
			level.Set(lvl)
		}
		srv.Reload(c)
	})
	loader.Watch()

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
