// Package github is the rate-limit-aware client for the GitHub REST API.
//
// Every outbound call goes through Client.FetchWithRetry, which applies one
// RetryPolicy: it waits out 403/429 responses that carry an
// x-ratelimit-reset header, backs off on transport failures, and throttles
// itself after each success so sequential calls stay under the quota.
//
// AUTHENTICATION:
// The token is attached by an oauth2 transport built from a static token
// source, so every request carries "Authorization: Bearer <token>" without
// each call site having to set it.
package github

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/gh-rankings/internal/apperror"
)

const (
	DefaultBaseURL   = "https://api.github.com"
	defaultUserAgent = "gh-rankings/1.0"

	headerRateRemaining = "X-RateLimit-Remaining"
	headerRateReset     = "X-RateLimit-Reset"
)

// RetryPolicy is the single retry/backoff policy shared by all call sites.
type RetryPolicy struct {
	MaxRetries       int           // total attempts, including the first
	BaseDelay        time.Duration // transport failures wait BaseDelay * attempt
	RateLimitAware   bool          // wait for x-ratelimit-reset on 403/429
	MaxRateLimitWait time.Duration // cap on a single rate-limit wait
	SuccessDelay     time.Duration // self-imposed throttle after each success
}

// DefaultPolicy returns 3 attempts, 1s base backoff, rate-limit waits capped
// at 5s, and a 1s pause after every successful call.
func DefaultPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:       3,
		BaseDelay:        1000 * time.Millisecond,
		RateLimitAware:   true,
		MaxRateLimitWait: 5000 * time.Millisecond,
		SuccessDelay:     1000 * time.Millisecond,
	}
}

// HTTPError is a non-2xx response from the API that was not retried.
type HTTPError struct {
	Status int
	URL    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("github: HTTP error! status: %d (%s)", e.Status, e.URL)
}

// Unwrap makes every HTTPError an upstream error for errors.Is.
func (e *HTTPError) Unwrap() error {
	return apperror.ErrUpstream
}

// Config holds client settings.
type Config struct {
	Token        string
	BaseURL      string
	UserAgent    string
	Timeout      time.Duration
	Policy       RetryPolicy
	MaxRepoPages int // upper bound on followed repository pages per user
	LowRateLimit int // log a warning when x-ratelimit-remaining drops below this
}

// DefaultConfig returns settings for api.github.com.
func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		UserAgent:    defaultUserAgent,
		Timeout:      30 * time.Second,
		Policy:       DefaultPolicy(),
		MaxRepoPages: 3,
		LowRateLimit: 100,
	}
}

// Client is safe for concurrent use.
type Client struct {
	http   *http.Client
	cfg    Config
	logger *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Client. An empty token yields an unauthenticated client,
// which GitHub limits to 60 requests per hour.
func New(cfg Config, logger *slog.Logger) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Policy.MaxRetries <= 0 {
		cfg.Policy = def.Policy
	}
	if cfg.MaxRepoPages <= 0 {
		cfg.MaxRepoPages = def.MaxRepoPages
	}
	if cfg.LowRateLimit <= 0 {
		cfg.LowRateLimit = def.LowRateLimit
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.Token != "" {
		// oauth2.NewClient picks up the base client from the context.
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.Token,
			TokenType:   "Bearer",
		}))
		httpClient.Timeout = cfg.Timeout
	} else {
		logger.Warn("GITHUB_TOKEN not set, using unauthenticated GitHub API (rate limited)")
	}

	return &Client{
		http:   httpClient,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Policy returns the client's default retry policy.
func (c *Client) Policy() RetryPolicy {
	return c.cfg.Policy
}

// FetchWithRetry issues an authenticated GET and returns the successful
// response; the caller must close its body.
//
// Failures:
//   - 403/429 with x-ratelimit-reset: sleep max(0, reset-now)+1s (capped) and
//     retry; once attempts run out, an ExhaustedRetries error.
//   - any other non-2xx: an Upstream error wrapping *HTTPError, immediately.
//   - transport error: sleep BaseDelay*attempt and retry; once attempts run
//     out, an ExhaustedRetries error wrapping the last transport error.
func (c *Client) FetchWithRetry(ctx context.Context, url string, policy RetryPolicy) (*http.Response, error) {
	attempts := policy.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("github: building request for %s: %w", url, err)
		}
		c.applyHeaders(req)

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			c.logger.Warn("github request failed",
				slog.String("url", url),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			if attempt < attempts {
				if err := c.sleep(ctx, policy.BaseDelay*time.Duration(attempt)); err != nil {
					return nil, err
				}
			}
			continue
		}

		c.logRateLimit(resp, url)

		if policy.RateLimitAware {
			if wait, limited := c.rateLimitWait(resp, policy); limited {
				drainAndClose(resp)
				lastErr = &HTTPError{Status: resp.StatusCode, URL: url}
				if attempt == attempts {
					break
				}
				c.logger.Warn("github rate limit hit, waiting",
					slog.String("url", url),
					slog.Int("attempt", attempt),
					slog.Duration("wait", wait),
				)
				if err := c.sleep(ctx, wait); err != nil {
					return nil, err
				}
				continue
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			drainAndClose(resp)
			return nil, apperror.Upstream(
				fmt.Sprintf("github responded %d", resp.StatusCode),
				&HTTPError{Status: resp.StatusCode, URL: url},
			)
		}

		if policy.SuccessDelay > 0 {
			if err := c.sleep(ctx, policy.SuccessDelay); err != nil {
				resp.Body.Close()
				return nil, err
			}
		}
		return resp, nil
	}

	return nil, apperror.ExhaustedRetries(attempts, lastErr)
}

// rateLimitWait reports whether resp is a rate-limit rejection the policy can
// wait out, and for how long.
func (c *Client) rateLimitWait(resp *http.Response, policy RetryPolicy) (time.Duration, bool) {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return 0, false
	}
	raw := resp.Header.Get(headerRateReset)
	if raw == "" {
		return 0, false
	}
	resetEpoch, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}

	untilReset := time.Duration(resetEpoch*1000-c.now().UnixMilli()) * time.Millisecond
	if untilReset < 0 {
		untilReset = 0
	}
	wait := untilReset + time.Second
	if policy.MaxRateLimitWait > 0 && wait > policy.MaxRateLimitWait {
		wait = policy.MaxRateLimitWait
	}
	return wait, true
}

func (c *Client) logRateLimit(resp *http.Response, url string) {
	raw := resp.Header.Get(headerRateRemaining)
	if raw == "" {
		return
	}
	remaining, err := strconv.Atoi(raw)
	if err != nil || remaining >= c.cfg.LowRateLimit {
		return
	}
	c.logger.Warn("github rate limit running low",
		slog.Int("remaining", remaining),
		slog.String("reset", resp.Header.Get(headerRateReset)),
		slog.String("url", url),
	)
}

func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
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

// drainAndClose lets the transport reuse the connection.
func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
