package github

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/gh-rankings/internal/apperror"
)

func TestSearchUsers(t *testing.T) {
	var gotQuery, gotPerPage, gotSort string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/users", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotPerPage = r.URL.Query().Get("per_page")
		gotSort = r.URL.Query().Get("sort")
		fmt.Fprint(w, `{"total_count":2,"items":[{"login":"torvalds","type":"User"},{"login":"github","type":"Organization"}]}`)
	}))

	items, err := c.SearchUsers(context.Background(), "followers:>1000", 500)
	require.NoError(t, err)

	assert.Equal(t, "followers:>1000", gotQuery)
	assert.Equal(t, "100", gotPerPage, "per_page is capped")
	assert.Equal(t, "followers", gotSort)
	assert.Equal(t, []SearchItem{
		{Login: "torvalds", Type: "User"},
		{Login: "github", Type: "Organization"},
	}, items)
}

func TestSearchUsers_SchemaMismatch(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing items", body: `{"total_count":3}`},
		{name: "item without login", body: `{"items":[{"type":"User"}]}`},
		{name: "items is not a list", body: `{"items":{"login":"x"}}`},
		{name: "not json", body: `<html>oops</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))

			_, err := c.SearchUsers(context.Background(), "followers:>1000", 10)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrSchema), "got %v", err)
		})
	}
}

func TestGetUser(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octocat", r.URL.Path)
		fmt.Fprint(w, `{"login":"octocat","name":"The Octocat","location":"San Francisco, United States",
			"type":"User","public_repos":8,"followers":4000,"avatar_url":"https://avatars.example/octocat"}`)
	}))

	p, err := c.GetUser(context.Background(), "octocat")
	require.NoError(t, err)

	assert.Equal(t, "octocat", p.Login)
	require.NotNil(t, p.Name)
	assert.Equal(t, "The Octocat", *p.Name)
	require.NotNil(t, p.Location)
	assert.Equal(t, "San Francisco, United States", *p.Location)
	assert.Equal(t, 8, p.PublicRepos)
	assert.Equal(t, 4000, p.Followers)
	assert.Equal(t, "https://avatars.example/octocat", p.AvatarURL)
}

func TestGetUser_NullableFieldsAndDefaultType(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"login":"ghost","name":null,"location":"","public_repos":0,"followers":0}`)
	}))

	p, err := c.GetUser(context.Background(), "ghost")
	require.NoError(t, err)

	assert.Nil(t, p.Name)
	assert.Nil(t, p.Location)
	assert.Equal(t, "User", p.Type)
}

func TestGetUser_NotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.GetUser(context.Background(), "nobody-here")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestGetUser_MissingRequiredField(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"login":"octocat","public_repos":8}`)
	}))

	_, err := c.GetUser(context.Background(), "octocat")

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.True(t, errors.Is(err, apperror.ErrSchema))
	assert.Equal(t, "followers", appErr.Field)
}

func TestListRepos_FollowsLinkHeader(t *testing.T) {
	var pages int
	var c *Client
	c, _ = newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		switch r.URL.Query().Get("page") {
		case "":
			w.Header().Set("Link", fmt.Sprintf(`<%s/users/octocat/repos?per_page=100&type=owner&page=2>; rel="next", <%s/users/octocat/repos?page=2>; rel="last"`, c.cfg.BaseURL, c.cfg.BaseURL))
			fmt.Fprint(w, `[{"name":"a","stargazers_count":10},{"name":"b","stargazers_count":3}]`)
		case "2":
			fmt.Fprint(w, `[{"name":"c","stargazers_count":2},{"name":"d"}]`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))

	repos, err := c.ListRepos(context.Background(), "octocat")
	require.NoError(t, err)

	assert.Equal(t, 2, pages)
	require.Len(t, repos, 4)
	total := 0
	for _, r := range repos {
		total += r.StargazersCount
	}
	assert.Equal(t, 15, total)
	assert.Equal(t, 0, repos[3].StargazersCount, "missing star count counts as zero")
}

func TestListRepos_StopsAtMaxPages(t *testing.T) {
	var pages int
	var c *Client
	c, _ = newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		w.Header().Set("Link", fmt.Sprintf(`<%s/users/busy/repos?page=%d>; rel="next"`, c.cfg.BaseURL, pages+1))
		fmt.Fprint(w, `[{"name":"x","stargazers_count":1}]`)
	}))
	c.cfg.MaxRepoPages = 2
	var logs bytes.Buffer
	c.logger = slog.New(slog.NewTextHandler(&logs, nil))

	repos, err := c.ListRepos(context.Background(), "busy")
	require.NoError(t, err)

	assert.Equal(t, 2, pages)
	assert.Len(t, repos, 2)
	assert.Contains(t, logs.String(), "repository list truncated")
	assert.Contains(t, logs.String(), "login=busy")
}

func TestListRepos_Empty(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))

	repos, err := c.ListRepos(context.Background(), "newbie")
	require.NoError(t, err)
	assert.Empty(t, repos)
}

func TestNextLink(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "empty", header: "", want: ""},
		{
			name:   "next and last",
			header: `<https://api.github.com/x?page=2>; rel="next", <https://api.github.com/x?page=5>; rel="last"`,
			want:   "https://api.github.com/x?page=2",
		},
		{
			name:   "last page",
			header: `<https://api.github.com/x?page=1>; rel="first", <https://api.github.com/x?page=4>; rel="prev"`,
			want:   "",
		},
		{name: "malformed", header: `garbage`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextLink(tt.header))
		})
	}
}
