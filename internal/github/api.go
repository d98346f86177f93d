package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sakif/gh-rankings/internal/apperror"
)

// MaxSearchPerPage is the largest page GitHub's search API returns.
const MaxSearchPerPage = 100

// SearchUsers runs a /search/users query sorted by followers and returns at
// most perPage candidates (capped at MaxSearchPerPage).
func (c *Client) SearchUsers(ctx context.Context, query string, perPage int) ([]SearchItem, error) {
	if perPage <= 0 || perPage > MaxSearchPerPage {
		perPage = MaxSearchPerPage
	}
	endpoint := fmt.Sprintf("%s/search/users?q=%s&sort=followers&order=desc&per_page=%d",
		c.cfg.BaseURL, url.QueryEscape(query), perPage)

	var raw searchSchema
	if _, err := c.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("github: searching users %q: %w", query, err)
	}
	return raw.validate()
}

// GetUser fetches a single profile. An unknown login yields apperror.ErrNotFound.
func (c *Client) GetUser(ctx context.Context, login string) (*Profile, error) {
	endpoint := fmt.Sprintf("%s/users/%s", c.cfg.BaseURL, url.PathEscape(login))

	var raw profileSchema
	if _, err := c.getJSON(ctx, endpoint, &raw); err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound {
			return nil, apperror.NotFound("github user", login)
		}
		return nil, fmt.Errorf("github: fetching user %s: %w", login, err)
	}
	return raw.validate()
}

// ListRepos returns the repositories owned by login, following the Link
// header for at most MaxRepoPages pages of 100.
func (c *Client) ListRepos(ctx context.Context, login string) ([]Repo, error) {
	next := fmt.Sprintf("%s/users/%s/repos?per_page=100&type=owner", c.cfg.BaseURL, url.PathEscape(login))

	var repos []Repo
	for page := 0; next != "" && page < c.cfg.MaxRepoPages; page++ {
		var raw []repoSchema
		header, err := c.getJSON(ctx, next, &raw)
		if err != nil {
			return nil, fmt.Errorf("github: listing repos of %s: %w", login, err)
		}
		for _, r := range raw {
			repos = append(repos, r.toRepo())
		}
		next = nextLink(header.Get("Link"))
	}
	if next != "" {
		// Stars from the remaining pages are not counted.
		c.logger.Warn("repository list truncated",
			slog.String("login", login),
			slog.Int("max_pages", c.cfg.MaxRepoPages),
			slog.Int("repos_counted", len(repos)),
		)
	}
	return repos, nil
}

// getJSON fetches endpoint with the client's policy and decodes the body
// into out. A body that does not decode into out is a schema mismatch.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) (http.Header, error) {
	resp, err := c.FetchWithRetry(ctx, endpoint, c.cfg.Policy)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, &apperror.AppError{
			Err:     apperror.ErrSchema,
			Message: fmt.Sprintf("github: decoding %s", endpoint),
			Cause:   err,
		}
	}
	return resp.Header, nil
}

// nextLink extracts the rel="next" URL from an RFC 8288 Link header.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.Trim(strings.TrimSpace(segments[0]), "<>")
		for _, param := range segments[1:] {
			if strings.TrimSpace(param) == `rel="next"` {
				return target
			}
		}
	}
	return ""
}
