// Package service contains the business logic of the rankings service.
//
// THE LAYERS:
//
//	Handler (HTTP)       → parses requests, writes JSON
//	Service (this layer) → enrichment, ingestion, ranking queries
//	Repository (storage) → upserts and filtered reads of ranked users
//
// Services depend on small interfaces (GitHubAPI, Countries,
// repository.UserRepository, events.Publisher) rather than concrete types,
// so tests drive them with in-memory fakes and cmd/populate reuses exactly
// the same code as the HTTP trigger.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/gh-rankings/internal/github"
	"github.com/sakif/gh-rankings/internal/model"
)

// GitHubAPI is the subset of *github.Client the services call.
type GitHubAPI interface {
	SearchUsers(ctx context.Context, query string, perPage int) ([]github.SearchItem, error)
	GetUser(ctx context.Context, login string) (*github.Profile, error)
	ListRepos(ctx context.Context, login string) ([]github.Repo, error)
}

// Countries is implemented by *country.Resolver.
type Countries interface {
	FindByLocation(location string) (model.Country, bool)
	Lookup(selector string) (model.Country, bool)
	All() []model.Country
}

// Enricher turns a login into a fully derived model.User.
type Enricher struct {
	gh        GitHubAPI
	countries Countries
	logger    *slog.Logger
}

func NewEnricher(gh GitHubAPI, countries Countries, logger *slog.Logger) *Enricher {
	return &Enricher{gh: gh, countries: countries, logger: logger}
}

// Enrich fetches the profile and the repository list concurrently and
// derives the user's stats once both have returned. Either fetch failing
// fails the enrichment.
func (e *Enricher) Enrich(ctx context.Context, login string) (*model.User, error) {
	var (
		profile *github.Profile
		repos   []github.Repo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := e.gh.GetUser(gctx, login)
		profile = p
		return err
	})
	g.Go(func() error {
		r, err := e.gh.ListRepos(gctx, login)
		repos = r
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("enriching %s: %w", login, err)
	}

	return e.build(profile, repos), nil
}

func (e *Enricher) build(p *github.Profile, repos []github.Repo) *model.User {
	stars := 0
	for _, r := range repos {
		stars += r.StargazersCount
	}

	u := &model.User{
		Login:         p.Login,
		Name:          p.Name,
		Location:      p.Location,
		Type:          p.Type,
		PublicRepos:   p.PublicRepos,
		Followers:     p.Followers,
		AvatarURL:     p.AvatarURL,
		TotalStars:    stars,
		Contributions: model.Contributions(p.PublicRepos, p.Followers),
	}
	if p.Location != nil {
		if c, ok := e.countries.FindByLocation(*p.Location); ok {
			u.Country = model.StringPtr(c.Name)
		}
	}
	return u
}

// Outcome is the settled result of one enrichment in a batch: exactly one
// of User and Err is set.
type Outcome struct {
	Login string
	User  *model.User
	Err   error
}

// EnrichAll enriches every login concurrently and waits for all of them.
// Outcomes come back in input order. A failure is logged and recorded in
// its own Outcome; it never cancels the other enrichments.
func (e *Enricher) EnrichAll(ctx context.Context, logins []string) []Outcome {
	outcomes := make([]Outcome, len(logins))

	var wg sync.WaitGroup
	for i, login := range logins {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := e.Enrich(ctx, login)
			outcomes[i] = Outcome{Login: login, User: u, Err: err}
			if err != nil {
				e.logger.Warn("enrichment failed, skipping user",
					slog.String("login", login),
					slog.String("error", err.Error()),
				)
			}
		}()
	}
	wg.Wait()

	return outcomes
}
