package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
	"golang.org/x/sync/singleflight"

	"github.com/sakif/gh-rankings/internal/events"
	"github.com/sakif/gh-rankings/internal/model"
	"github.com/sakif/gh-rankings/internal/repository"
)

// Ingestion bounds. Batch size and delay are clamped into these ranges so
// a bad config value cannot hammer the API.
const (
	DefaultQuery      = "followers:>1000"
	DefaultBatchSize  = 10
	MinBatchSize      = 5
	MaxBatchSize      = 10
	DefaultBatchDelay = time.Second
	MinBatchDelay     = time.Second
	MaxBatchDelay     = 2 * time.Second
	MaxSearchPerPage  = 100

	// JobName keys the single-flight guard and tags log lines.
	JobName = "update-rankings"
)

// IngestOptions are the tunables of one run.
type IngestOptions struct {
	Query         string
	BatchSize     int
	BatchDelay    time.Duration
	SearchPerPage int
}

// DefaultIngestOptions returns the options used when nothing is configured.
func DefaultIngestOptions() IngestOptions {
	return IngestOptions{
		Query:         DefaultQuery,
		BatchSize:     DefaultBatchSize,
		BatchDelay:    DefaultBatchDelay,
		SearchPerPage: MaxSearchPerPage,
	}
}

// normalized fills zero values with defaults and clamps the rest.
func (o IngestOptions) normalized() IngestOptions {
	if strings.TrimSpace(o.Query) == "" {
		o.Query = DefaultQuery
	}

	switch {
	case o.BatchSize <= 0:
		o.BatchSize = DefaultBatchSize
	case o.BatchSize < MinBatchSize:
		o.BatchSize = MinBatchSize
	case o.BatchSize > MaxBatchSize:
		o.BatchSize = MaxBatchSize
	}

	switch {
	case o.BatchDelay <= 0:
		o.BatchDelay = DefaultBatchDelay
	case o.BatchDelay < MinBatchDelay:
		o.BatchDelay = MinBatchDelay
	case o.BatchDelay > MaxBatchDelay:
		o.BatchDelay = MaxBatchDelay
	}

	if o.SearchPerPage <= 0 || o.SearchPerPage > MaxSearchPerPage {
		o.SearchPerPage = MaxSearchPerPage
	}
	return o
}

// IngestJob searches for candidate accounts, enriches them in batches and
// upserts the results.
//
// RUN LIFECYCLE:
// Concurrent Run calls share one execution through a singleflight.Group
// keyed by the job name alone, so the cron endpoint, the interval ticker and the
// startup bootstrap can never race each other on the same rows. The shared
// execution runs on the job's own context: a caller that gives up stops
// waiting, but the run continues for the others until Close cancels it.
type IngestJob struct {
	gh        GitHubAPI
	enricher  *Enricher
	repo      repository.UserRepository
	publisher events.Publisher
	logger    *slog.Logger

	mu   sync.RWMutex
	opts IngestOptions

	flights singleflight.Group
	base    context.Context
	cancel  context.CancelFunc

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
	newID func() string
}

func NewIngestJob(
	gh GitHubAPI,
	enricher *Enricher,
	repo repository.UserRepository,
	publisher events.Publisher,
	opts IngestOptions,
	logger *slog.Logger,
) *IngestJob {
	if publisher == nil {
		publisher = events.Nop{}
	}
	base, cancel := context.WithCancel(context.Background())
	return &IngestJob{
		gh:        gh,
		enricher:  enricher,
		repo:      repo,
		publisher: publisher,
		logger:    logger.With(slog.String("job", JobName)),
		opts:      opts.normalized(),
		base:      base,
		cancel:    cancel,
		now:       time.Now,
		sleep:     sleepCtx,
		newID:     func() string { return xid.New().String() },
	}
}

// Options returns the options the next run will use.
func (j *IngestJob) Options() IngestOptions {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.opts
}

// SetOptions replaces the tunables; a run already in progress keeps the
// options it started with.
func (j *IngestJob) SetOptions(o IngestOptions) {
	o = o.normalized()
	j.mu.Lock()
	j.opts = o
	j.mu.Unlock()
	j.logger.Info("ingest options updated",
		slog.String("query", o.Query),
		slog.Int("batch_size", o.BatchSize),
		slog.Duration("batch_delay", o.BatchDelay),
		slog.Int("search_per_page", o.SearchPerPage),
	)
}

// Close cancels any run in progress. Later Run calls fail immediately.
func (j *IngestJob) Close() {
	j.cancel()
}

// Run executes one ingestion for query (the configured query when empty)
// and returns its summary. If any run is already in flight, Run waits for
// it and returns its result instead of starting another, even when query
// differs from the one that run started with.
func (j *IngestJob) Run(ctx context.Context, query string) (*model.IngestResult, error) {
	opts := j.Options()
	if q := strings.TrimSpace(query); q != "" {
		opts.Query = q
	}

	ch := j.flights.DoChan(JobName, func() (any, error) {
		return j.run(j.base, opts)
	})

	select {
	case res := <-ch:
		if res.Shared {
			j.logger.Info("joined in-flight ingestion run", slog.String("requested_query", opts.Query))
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.IngestResult), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (j *IngestJob) run(ctx context.Context, opts IngestOptions) (*model.IngestResult, error) {
	start := j.now()
	runID := j.newID()
	logger := j.logger.With(slog.String("run_id", runID))

	logger.Info("ingestion started",
		slog.String("query", opts.Query),
		slog.Int("batch_size", opts.BatchSize),
	)

	items, err := j.gh.SearchUsers(ctx, opts.Query, opts.SearchPerPage)
	if err != nil {
		logger.Error("candidate search failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("ingest: searching candidates: %w", err)
	}

	logins := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		key := strings.ToLower(it.Login)
		if seen[key] {
			continue
		}
		seen[key] = true
		logins = append(logins, it.Login)
	}

	res := &model.IngestResult{RunID: runID, Candidates: len(logins)}
	for offset := 0; offset < len(logins); offset += opts.BatchSize {
		if offset > 0 {
			if err := j.sleep(ctx, opts.BatchDelay); err != nil {
				return nil, fmt.Errorf("ingest: waiting between batches: %w", err)
			}
		}

		batch := logins[offset:min(offset+opts.BatchSize, len(logins))]
		res.Batches++
		processed, failed := j.processBatch(ctx, runID, batch, logger)
		res.Processed += processed
		res.Failed += failed

		logger.Info("batch complete",
			slog.Int("batch", res.Batches),
			slog.Int("processed", processed),
			slog.Int("failed", failed),
			slog.Int("progress", offset+len(batch)),
			slog.Int("candidates", len(logins)),
		)

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("ingest: run cancelled: %w", err)
		}
	}

	res.Duration = j.now().Sub(start)
	logger.Info("ingestion finished",
		slog.Int("processed", res.Processed),
		slog.Int("failed", res.Failed),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

// processBatch enriches batch in parallel, then upserts and announces each
// success. Failures are counted, never returned.
func (j *IngestJob) processBatch(ctx context.Context, runID string, batch []string, logger *slog.Logger) (processed, failed int) {
	for _, o := range j.enricher.EnrichAll(ctx, batch) {
		if o.Err != nil {
			failed++
			continue
		}
		if err := j.repo.Upsert(ctx, o.User); err != nil {
			logger.Error("upsert failed",
				slog.String("login", o.Login),
				slog.String("error", err.Error()),
			)
			failed++
			continue
		}
		processed++

		if err := j.publisher.PublishRanked(ctx, events.NewUserRanked(runID, o.User)); err != nil {
			logger.Warn("publishing ranking event failed",
				slog.String("login", o.Login),
				slog.String("error", err.Error()),
			)
		}
	}
	return processed, failed
}

// BootstrapIfEmpty runs the job once when the store holds no users, so a
// fresh deployment serves rankings without waiting for the first cron call.
// It reports whether a run happened.
func (j *IngestJob) BootstrapIfEmpty(ctx context.Context) (bool, error) {
	n, err := j.repo.Count(ctx, repository.UserQuery{})
	if err != nil {
		return false, fmt.Errorf("ingest: counting users: %w", err)
	}
	if n > 0 {
		j.logger.Info("store already populated, skipping bootstrap", slog.Int("users", n))
		return false, nil
	}

	j.logger.Info("store is empty, running bootstrap ingestion")
	if _, err := j.Run(ctx, ""); err != nil {
		return true, err
	}
	return true, nil
}

// RunEvery triggers Run on every tick of interval until ctx is done. Errors
// are logged and the schedule continues.
func (j *IngestJob) RunEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.Run(ctx, ""); err != nil && !errors.Is(err, context.Canceled) {
				j.logger.Error("scheduled ingestion failed", slog.String("error", err.Error()))
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
