// Package model defines the data structures used throughout the application.
package model

import "time"

// Account types as reported by the GitHub users API.
const (
	AccountTypeUser         = "User"
	AccountTypeOrganization = "Organization"
)

// User is a ranked GitHub account together with its derived statistics.
//
// Login is the unique key: every ingestion run recomputes the stats
// wholesale and upserts them by login. Rows are never deleted.
//
// WHY *string FOR Name, Location AND Country?
// GitHub returns null for an unset name or location, and Country is only set
// when the location resolves to a known country. A nil pointer serialises to
// JSON null and maps to SQL NULL, so "unknown" stays distinguishable from "".
type User struct {
	Login         string    `json:"login"         db:"login"`
	Name          *string   `json:"name"          db:"name"`
	Location      *string   `json:"location"      db:"location"`
	Country       *string   `json:"country"       db:"country"` // canonical country name, derived from Location
	Type          string    `json:"type"          db:"type"`    // "User" or "Organization"
	PublicRepos   int       `json:"public_repos"  db:"public_repos"`
	Followers     int       `json:"followers"     db:"followers"`
	AvatarURL     string    `json:"avatar_url"    db:"avatar_url"`
	TotalStars    int       `json:"totalStars"    db:"total_stars"`
	Contributions int       `json:"contributions" db:"contributions"`
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt"     db:"updated_at"`
}

// Contributions is the synthetic activity score stored with every user:
// floor(publicRepos*50 + followers*2). It is a deterministic proxy, not
// real contribution data. Negative inputs are treated as zero.
func Contributions(publicRepos, followers int) int {
	if publicRepos < 0 {
		publicRepos = 0
	}
	if followers < 0 {
		followers = 0
	}
	return publicRepos*50 + followers*2
}

// StringPtr returns nil for an empty string, otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
