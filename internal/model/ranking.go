package model

import "time"

// Ranking filter values accepted by the rankings endpoint.
const (
	FilterTypeAll          = "all"
	FilterTypeUser         = "user"
	FilterTypeOrganization = "organization"

	CountryGlobal = "global"

	SortFollowers     = "followers"
	SortTotalStars    = "totalStars"
	SortContributions = "contributions"
	SortPublicRepos   = "public_repos"
)

// SortKeys lists every accepted sortBy value.
var SortKeys = []string{SortFollowers, SortTotalStars, SortContributions, SortPublicRepos}

// RankingFilters describes one rankings query. Page is 1-based and PerPage
// is always positive once the filters have been validated by the service.
type RankingFilters struct {
	Type    string `json:"type"`
	Country string `json:"country"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
	SortBy  string `json:"sortBy"`
}

// Page is one window of a paginated result set.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalPages int `json:"totalPages"`
}

// NewPage builds a Page and computes TotalPages = ceil(total/perPage).
// A nil items slice is replaced by an empty one so it encodes as [].
func NewPage[T any](items []T, total, page, perPage int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: TotalPages(total, perPage),
	}
}

// TotalPages returns ceil(total/perPage), or 0 when there is nothing to page.
func TotalPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// IngestResult summarises one run of the ingestion job.
type IngestResult struct {
	RunID      string        `json:"runId"`
	Candidates int           `json:"candidates"`
	Processed  int           `json:"processed"`
	Failed     int           `json:"failed"`
	Batches    int           `json:"batches"`
	Duration   time.Duration `json:"duration"`
}
