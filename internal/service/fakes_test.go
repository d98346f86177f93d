package service

import (
	"cmp"
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sakif/gh-rankings/internal/apperror"
	"github.com/sakif/gh-rankings/internal/events"
	"github.com/sakif/gh-rankings/internal/github"
	"github.com/sakif/gh-rankings/internal/model"
	"github.com/sakif/gh-rankings/internal/repository"
)

// =========================================================================
// FAKE GITHUB
// =========================================================================

// fakeGitHub serves canned profiles and repositories. Logins listed in
// fail return that error from GetUser.
type fakeGitHub struct {
	mu       sync.Mutex
	search   []github.SearchItem
	profiles map[string]*github.Profile
	repos    map[string][]github.Repo
	fail     map[string]error

	searchErr   error
	searchGate  chan struct{} // when set, SearchUsers blocks until it is closed
	searchCalls atomic.Int32
	userCalls   atomic.Int32
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		profiles: make(map[string]*github.Profile),
		repos:    make(map[string][]github.Repo),
		fail:     make(map[string]error),
	}
}

// addUser registers a profile plus repos with the given star counts and
// puts the login in the search results.
func (f *fakeGitHub) addUser(login string, publicRepos, followers int, location string, stars ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[login] = &github.Profile{
		Login:       login,
		Location:    model.StringPtr(location),
		Type:        model.AccountTypeUser,
		PublicRepos: publicRepos,
		Followers:   followers,
	}
	repos := make([]github.Repo, 0, len(stars))
	for i, s := range stars {
		repos = append(repos, github.Repo{Name: login + "-repo-" + string(rune('a'+i)), StargazersCount: s})
	}
	f.repos[login] = repos
	f.search = append(f.search, github.SearchItem{Login: login, Type: model.AccountTypeUser})
}

func (f *fakeGitHub) SearchUsers(ctx context.Context, _ string, perPage int) ([]github.SearchItem, error) {
	f.searchCalls.Add(1)
	if f.searchGate != nil {
		select {
		case <-f.searchGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	items := slices.Clone(f.search)
	if len(items) > perPage {
		items = items[:perPage]
	}
	return items, nil
}

func (f *fakeGitHub) GetUser(_ context.Context, login string) (*github.Profile, error) {
	f.userCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fail[login]; ok {
		return nil, err
	}
	p, ok := f.profiles[login]
	if !ok {
		return nil, apperror.NotFound("github user", login)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeGitHub) ListRepos(_ context.Context, login string) ([]github.Repo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.repos[login]), nil
}

// =========================================================================
// IN-MEMORY REPOSITORY
// =========================================================================

// memRepo mirrors the SQL backends: upsert by login, filter, order by the
// sort key descending then login ascending.
type memRepo struct {
	mu        sync.Mutex
	users     map[string]model.User
	upsertErr map[string]error
	listErr   error
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[string]model.User), upsertErr: make(map[string]error)}
}

func (m *memRepo) Upsert(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.upsertErr[u.Login]; ok {
		return err
	}
	now := time.Now()
	u.UpdatedAt = now
	if existing, ok := m.users[u.Login]; ok {
		u.CreatedAt = existing.CreatedAt
	} else {
		u.CreatedAt = now
	}
	m.users[u.Login] = *u
	return nil
}

func (m *memRepo) GetByLogin(_ context.Context, login string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[login]
	if !ok {
		return nil, apperror.NotFound("user", login)
	}
	return &u, nil
}

func (m *memRepo) matching(q repository.UserQuery) []model.User {
	var out []model.User
	for _, u := range m.users {
		if q.Type != "" && u.Type != q.Type {
			continue
		}
		if q.Country != "" && (u.Country == nil || *u.Country != q.Country) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func sortValue(u model.User, key string) int {
	switch key {
	case model.SortTotalStars:
		return u.TotalStars
	case model.SortContributions:
		return u.Contributions
	case model.SortPublicRepos:
		return u.PublicRepos
	default:
		return u.Followers
	}
}

func (m *memRepo) List(_ context.Context, q repository.UserQuery) ([]model.User, error) {
	if _, err := repository.SortColumn(q.SortBy); err != nil {
		return nil, apperror.ValidationFailed("sortBy", err.Error())
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}

	users := m.matching(q)
	slices.SortFunc(users, func(a, b model.User) int {
		if c := cmp.Compare(sortValue(b, q.SortBy), sortValue(a, q.SortBy)); c != 0 {
			return c
		}
		return strings.Compare(a.Login, b.Login)
	})

	limit, offset := repository.Window(q)
	if offset >= len(users) {
		return []model.User{}, nil
	}
	return users[offset:min(offset+limit, len(users))], nil
}

func (m *memRepo) Count(_ context.Context, q repository.UserQuery) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matching(q)), nil
}

func (m *memRepo) Ping(context.Context) error { return nil }
func (m *memRepo) Close() error { return nil }

func (m *memRepo) snapshot() map[string]model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]model.User, len(m.users))
	for k, u := range m.users {
		u.CreatedAt, u.UpdatedAt = time.Time{}, time.Time{}
		out[k] = u
	}
	return out
}

// =========================================================================
// RECORDING PUBLISHER
// =========================================================================

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.UserRanked
	err    error
}

func (p *recordingPublisher) PublishRanked(_ context.Context, ev events.UserRanked) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []events.UserRanked {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.events)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
