package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/sakif/gh-rankings/internal/apperror"
	"github.com/sakif/gh-rankings/internal/model"
	"github.com/sakif/gh-rankings/internal/repository"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// RankingService answers rankings queries from the store and single-user
// lookups from the live API.
type RankingService struct {
	repo      repository.UserRepository
	countries Countries
	enricher  *Enricher
	logger    *slog.Logger
}

func NewRankingService(repo repository.UserRepository, countries Countries, enricher *Enricher, logger *slog.Logger) *RankingService {
	return &RankingService{repo: repo, countries: countries, enricher: enricher, logger: logger}
}

// DefaultFilters returns the filters of a query with no parameters.
func DefaultFilters() model.RankingFilters {
	return model.RankingFilters{
		Type:    model.FilterTypeAll,
		Country: model.CountryGlobal,
		Page:    1,
		PerPage: DefaultPerPage,
		SortBy:  model.SortFollowers,
	}
}

// Query returns one page of ranked users. Filters are validated first; on
// any error no page is returned at all.
func (s *RankingService) Query(ctx context.Context, f model.RankingFilters) (*model.Page[model.User], error) {
	f, q, err := s.resolve(f)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing rankings: %w", err)
	}
	total, err := s.repo.Count(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("counting rankings: %w", err)
	}

	return model.NewPage(items, total, f.Page, f.PerPage), nil
}

// resolve validates f, applies defaults and translates it into a
// repository query. The returned filters are the ones echoed in the page.
func (s *RankingService) resolve(f model.RankingFilters) (model.RankingFilters, repository.UserQuery, error) {
	var q repository.UserQuery

	switch strings.ToLower(strings.TrimSpace(f.Type)) {
	case "", model.FilterTypeAll:
		f.Type = model.FilterTypeAll
	case model.FilterTypeUser:
		f.Type = model.FilterTypeUser
		q.Type = model.AccountTypeUser
	case model.FilterTypeOrganization:
		f.Type = model.FilterTypeOrganization
		q.Type = model.AccountTypeOrganization
	default:
		return f, q, apperror.ValidationFailed("type", fmt.Sprintf("type must be one of all, user, organization; got %q", f.Type))
	}

	country := strings.TrimSpace(f.Country)
	if country == "" || strings.EqualFold(country, model.CountryGlobal) {
		f.Country = model.CountryGlobal
	} else {
		c, ok := s.countries.Lookup(country)
		if !ok {
			return f, q, apperror.ValidationFailed("country", fmt.Sprintf("unknown country %q", f.Country))
		}
		q.Country = c.Name
	}

	if f.SortBy == "" {
		f.SortBy = model.SortFollowers
	}
	if !slices.Contains(model.SortKeys, f.SortBy) {
		return f, q, apperror.ValidationFailed("sortBy", fmt.Sprintf("sortBy must be one of %s; got %q", strings.Join(model.SortKeys, ", "), f.SortBy))
	}
	q.SortBy = f.SortBy

	if f.Page < 1 {
		return f, q, apperror.ValidationFailed("page", "page must be at least 1")
	}
	if f.PerPage < 1 {
		return f, q, apperror.ValidationFailed("perPage", "perPage must be at least 1")
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}

	q.Limit = f.PerPage
	q.Offset = (f.Page - 1) * f.PerPage
	return f, q, nil
}

// Lookup enriches login live from the API without persisting the result.
func (s *RankingService) Lookup(ctx context.Context, login string) (*model.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, apperror.ValidationFailed("username", "Username is required")
	}
	u, err := s.enricher.Enrich(ctx, login)
	if err != nil {
		s.logger.Error("user lookup failed", slog.String("login", login), slog.String("error", err.Error()))
		return nil, err
	}
	return u, nil
}

// Ranked returns the stored row for login as of the last ingestion run.
// Logins that were never ranked yield apperror.ErrNotFound.
func (s *RankingService) Ranked(ctx context.Context, login string) (*model.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, apperror.ValidationFailed("login", "Username is required")
	}
	return s.repo.GetByLogin(ctx, login)
}

// Countries returns the reference country list.
func (s *RankingService) Countries() []model.Country {
	return s.countries.All()
}

// Ping checks the store.
func (s *RankingService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
