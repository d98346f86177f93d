package github

import (
	"fmt"

	"github.com/sakif/gh-rankings/internal/apperror"
	"github.com/sakif/gh-rankings/internal/model"
)

// Profile is a validated /users/{login} response.
type Profile struct {
	Login       string
	Name        *string
	Location    *string
	Type        string
	PublicRepos int
	Followers   int
	AvatarURL   string
}

// Repo is one entry of a validated /users/{login}/repos response.
type Repo struct {
	Name            string
	StargazersCount int
}

// SearchItem is one entry of a validated /search/users response.
type SearchItem struct {
	Login string
	Type  string
}

// The *Schema types mirror the wire format. Required fields are pointers so
// a missing key is distinguishable from a zero value.

type profileSchema struct {
	Login       *string `json:"login"`
	Name        *string `json:"name"`
	Location    *string `json:"location"`
	Type        *string `json:"type"`
	PublicRepos *int    `json:"public_repos"`
	Followers   *int    `json:"followers"`
	AvatarURL   *string `json:"avatar_url"`
}

func (s *profileSchema) validate() (*Profile, error) {
	if s.Login == nil || *s.Login == "" {
		return nil, apperror.SchemaMismatch("login", "github: user response has no login")
	}
	if s.PublicRepos == nil {
		return nil, apperror.SchemaMismatch("public_repos", fmt.Sprintf("github: user %s has no public_repos", *s.Login))
	}
	if s.Followers == nil {
		return nil, apperror.SchemaMismatch("followers", fmt.Sprintf("github: user %s has no followers", *s.Login))
	}

	p := &Profile{
		Login:       *s.Login,
		Name:        nonEmpty(s.Name),
		Location:    nonEmpty(s.Location),
		Type:        model.AccountTypeUser,
		PublicRepos: *s.PublicRepos,
		Followers:   *s.Followers,
	}
	if s.Type != nil && *s.Type != "" {
		p.Type = *s.Type
	}
	if s.AvatarURL != nil {
		p.AvatarURL = *s.AvatarURL
	}
	return p, nil
}

type repoSchema struct {
	Name            string `json:"name"`
	StargazersCount *int   `json:"stargazers_count"`
}

func (s repoSchema) toRepo() Repo {
	r := Repo{Name: s.Name}
	if s.StargazersCount != nil && *s.StargazersCount > 0 {
		r.StargazersCount = *s.StargazersCount
	}
	return r
}

type searchItemSchema struct {
	Login *string `json:"login"`
	Type  *string `json:"type"`
}

type searchSchema struct {
	TotalCount *int                `json:"total_count"`
	Items      *[]searchItemSchema `json:"items"`
}

func (s *searchSchema) validate() ([]SearchItem, error) {
	if s.Items == nil {
		return nil, apperror.SchemaMismatch("items", "github: search response has no items")
	}
	items := make([]SearchItem, 0, len(*s.Items))
	for i, it := range *s.Items {
		if it.Login == nil || *it.Login == "" {
			return nil, apperror.SchemaMismatch("items.login", fmt.Sprintf("github: search item %d has no login", i))
		}
		item := SearchItem{Login: *it.Login, Type: model.AccountTypeUser}
		if it.Type != nil && *it.Type != "" {
			item.Type = *it.Type
		}
		items = append(items, item)
	}
	return items, nil
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
