package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/gh-rankings/internal/config"
	"github.com/sakif/gh-rankings/internal/country"
	"github.com/sakif/gh-rankings/internal/events"
	"github.com/sakif/gh-rankings/internal/github"
	"github.com/sakif/gh-rankings/internal/repository"
	"github.com/sakif/gh-rankings/internal/repository/mysql"
	"github.com/sakif/gh-rankings/internal/repository/postgres"
	"github.com/sakif/gh-rankings/internal/repository/sqlite"
	"github.com/sakif/gh-rankings/internal/service"
)

// App is the assembled service graph shared by the HTTP server and the
// populate command. It owns the store and the publisher; Close releases
// both.
type App struct {
	Store     repository.UserRepository
	Publisher events.Publisher
	Enricher  *service.Enricher
	Rankings  *service.RankingService
	Job       *service.IngestJob
}

// Option customises NewApp.
type Option func(*options)

type options struct {
	gh        service.GitHubAPI
	store     repository.UserRepository
	publisher events.Publisher
}

// WithGitHub replaces the GitHub client built from the configuration.
func WithGitHub(gh service.GitHubAPI) Option {
	return func(o *options) { o.gh = gh }
}

// WithStore replaces the store opened from the configuration.
func WithStore(store repository.UserRepository) Option {
	return func(o *options) { o.store = store }
}

// WithPublisher replaces the publisher built from the configuration.
func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// NewApp wires the store, the GitHub client, the publisher and the
// services. On error everything opened so far is closed again.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store := o.store
	if store == nil {
		var err error
		if store, err = OpenStore(ctx, cfg.DB); err != nil {
			return nil, err
		}
	}

	publisher := o.publisher
	if publisher == nil {
		var err error
		if publisher, err = NewPublisher(cfg.Kafka, logger); err != nil {
			store.Close()
			return nil, err
		}
	}

	gh := o.gh
	if gh == nil {
		gh = github.New(GitHubConfig(cfg.GitHub), logger)
	}

	countries := country.New()
	enricher := service.NewEnricher(gh, countries, logger)
	return &App{
		Store:     store,
		Publisher: publisher,
		Enricher:  enricher,
		Rankings:  service.NewRankingService(store, countries, enricher, logger),
		Job:       service.NewIngestJob(gh, enricher, store, publisher, IngestOptions(cfg.Ingest), logger),
	}, nil
}

// Apply pushes the hot-reloadable part of cfg into the running services.
func (a *App) Apply(cfg *config.Config) {
	a.Job.SetOptions(IngestOptions(cfg.Ingest))
}

// Close stops any ingestion run, then releases the publisher and the store.
func (a *App) Close() error {
	a.Job.Close()
	return errors.Join(a.Publisher.Close(), a.Store.Close())
}

// OpenStore opens the repository selected by cfg.Driver and runs its
// migrations.
func OpenStore(ctx context.Context, cfg config.DB) (repository.UserRepository, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return db, nil
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return db, nil
	case config.DriverMySQL:
		db, err := mysql.New(ctx, mysql.Config{
			Host:            cfg.MySQL.Host,
			Port:            cfg.MySQL.Port,
			User:            cfg.MySQL.User,
			Password:        cfg.MySQL.Password,
			Database:        cfg.MySQL.Database,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("opening mysql store: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// NewPublisher returns a Kafka publisher when brokers are configured and a
// no-op one otherwise.
func NewPublisher(cfg config.Kafka, logger *slog.Logger) (events.Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return events.Nop{}, nil
	}
	k, err := events.NewKafka(cfg.Brokers, cfg.Topic, logger)
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}
	return k, nil
}

// GitHubConfig translates the github config section into client settings.
func GitHubConfig(cfg config.GitHub) github.Config {
	gc := github.DefaultConfig()
	gc.Token = cfg.Token
	if cfg.APIURL != "" {
		gc.BaseURL = cfg.APIURL
	}
	if cfg.Timeout > 0 {
		gc.Timeout = cfg.Timeout
	}
	if cfg.MaxRepoPages > 0 {
		gc.MaxRepoPages = cfg.MaxRepoPages
	}
	return gc
}

// IngestOptions translates the ingest config section into job options.
func IngestOptions(cfg config.Ingest) service.IngestOptions {
	return service.IngestOptions{
		Query:         cfg.Query,
		BatchSize:     cfg.BatchSize,
		BatchDelay:    cfg.BatchDelay,
		SearchPerPage: cfg.SearchPerPage,
	}
}
