// Package server sets up the HTTP server, router, and all route definitions.
//
// It is the composition root: New assembles the App (store, GitHub client,
// publisher, services) and mounts the handlers on a chi router. Start runs
// the listener, the optional background ingestion, and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/gh-rankings/internal/auth"
	"github.com/sakif/gh-rankings/internal/config"
	"github.com/sakif/gh-rankings/internal/handler"
	"github.com/sakif/gh-rankings/internal/middleware"
)

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	app    *App
}

// New creates a Server. The App is built from cfg unless opts replace
// parts of it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	app, err := NewApp(ctx, cfg, logger, opts...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		app:    app,
	}
	s.setupRoutes()
	return s, nil
}

// ROUTES:
// GET /healthz                    → store ping
// GET /api/countries              → reference country list
// GET /api/github/rankings        → paginated rankings
// GET /api/github/rankings/{login} → one stored user
// GET /api/github?username=       → live single-user lookup
// GET /api/cron/update-rankings   → ingestion trigger (bearer secret)
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	rankingsHandler := handler.NewRankingsHandler(s.app.Rankings, s.logger)
	cronHandler := handler.NewCronHandler(s.app.Job, s.logger)

	s.router.Get("/healthz", rankingsHandler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/countries", rankingsHandler.HandleCountries)
		r.Get("/github", rankingsHandler.HandleLookup)
		r.Get("/github/rankings", rankingsHandler.HandleRankings)
		r.Get("/github/rankings/{login}", rankingsHandler.HandleRanked)

		r.With(auth.RequireBearer(s.config.CronSecret, handler.WriteError)).
			Get("/cron/update-rankings", cronHandler.HandleUpdateRankings)
	})

	if s.config.CronSecret == "" {
		s.logger.Warn("CRON_SECRET_KEY not set, /api/cron/update-rankings rejects every request")
	}
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Reload applies a changed configuration to the running services. Only the
// ingestion tunables are hot-reloadable; everything else needs a restart.
func (s *Server) Reload(cfg *config.Config) {
	s.app.Apply(cfg)
}

// Close releases the App without starting the listener.
func (s *Server) Close() error {
	return s.app.Close()
}

// Start serves HTTP until SIGINT/SIGTERM or a listener error.
//
// BACKGROUND WORK:
// Bootstrap ingestion (empty store) and the optional interval ticker run on
// a context that is cancelled at shutdown; the App is closed only after
// they return and in-flight requests have drained.
func (s *Server) Start() error {
	defer func() {
		if err := s.app.Close(); err != nil {
			s.logger.Error("closing resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", s.config.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// An ingestion run behind the cron endpoint takes minutes.
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	var bg sync.WaitGroup
	s.startBackground(bgCtx, &bg)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("db_driver", s.config.DB.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Cancels any ingestion run so handlers waiting on it return.
		s.app.Job.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			runErr = fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	stopBackground()
	bg.Wait()
	if runErr == nil {
		s.logger.Info("server stopped gracefully")
	}
	return runErr
}

func (s *Server) startBackground(ctx context.Context, wg *sync.WaitGroup) {
	if s.config.Ingest.Bootstrap {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.app.Job.BootstrapIfEmpty(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("bootstrap ingestion failed", slog.String("error", err.Error()))
			}
		}()
	}

	if interval := s.config.Ingest.Interval; interval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.logger.Info("scheduled ingestion enabled", slog.Duration("interval", interval))
			s.app.Job.RunEvery(ctx, interval)
		}()
	}
}
