// Package repository defines the storage contract for ranked users.
//
// The service layer depends only on UserRepository; sqlite, postgres and
// mysql provide the concrete backends and are chosen at startup.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sakif/gh-rankings/internal/model"
)

// UserQuery selects a window of ranked users. Empty filter fields mean "no
// constraint".
type UserQuery struct {
	Type    string // stored account type ("User" or "Organization")
	Country string // canonical country name
	SortBy  string // one of model.SortKeys
	Limit   int
	Offset  int
}

type UserRepository interface {
	// Upsert inserts u or, when a row with the same login exists, replaces
	// every derived field in place. CreatedAt of an existing row is kept.
	Upsert(ctx context.Context, u *model.User) error
	GetByLogin(ctx context.Context, login string) (*model.User, error)
	// List returns users ordered by the sort key descending, then login
	// ascending.
	List(ctx context.Context, q UserQuery) ([]model.User, error)
	// Count returns how many users match q's filters; Limit and Offset are
	// ignored.
	Count(ctx context.Context, q UserQuery) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

var sortColumns = map[string]string{
	model.SortFollowers:     "followers",
	model.SortTotalStars:    "total_stars",
	model.SortContributions: "contributions",
	model.SortPublicRepos:   "public_repos",
}

// SortColumn maps a sortBy key to its column. Only whitelisted columns ever
// reach an ORDER BY clause.
func SortColumn(sortBy string) (string, error) {
	if sortBy == "" {
		return sortColumns[model.SortFollowers], nil
	}
	col, ok := sortColumns[sortBy]
	if !ok {
		return "", fmt.Errorf("repository: unknown sort key %q", sortBy)
	}
	return col, nil
}

// Where renders q's filters as a WHERE clause (empty when unfiltered) and
// its arguments. placeholder renders the n-th (1-based) bind parameter so
// the same builder serves "?" and "$n" dialects.
func Where(q UserQuery, placeholder func(n int) string) (string, []any) {
	var conds []string
	var args []any
	if q.Type != "" {
		args = append(args, q.Type)
		conds = append(conds, "type = "+placeholder(len(args)))
	}
	if q.Country != "" {
		args = append(args, q.Country)
		conds = append(conds, "country = "+placeholder(len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Question renders "?" bind parameters (SQLite, MySQL).
func Question(int) string { return "?" }

// Dollar renders "$n" bind parameters (Postgres).
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// Window clamps a limit/offset pair to sane bounds.
func Window(q UserQuery) (limit, offset int) {
	limit = q.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset = q.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// UserColumns is the select list shared by the database/sql backends, in
// the order ScanUser expects.
const UserColumns = "login, name, location, country, type, public_repos, followers, " +
	"avatar_url, total_stars, contributions, created_at, updated_at"

// RowScanner is satisfied by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// ScanUser reads one row selected with UserColumns.
func ScanUser(row RowScanner) (*model.User, error) {
	var u model.User
	var name, location, country sql.NullString
	if err := row.Scan(
		&u.Login, &name, &location, &country, &u.Type,
		&u.PublicRepos, &u.Followers, &u.AvatarURL,
		&u.TotalStars, &u.Contributions,
		&u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Name = fromNull(name)
	u.Location = fromNull(location)
	u.Country = fromNull(country)
	return &u, nil
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// Nullable turns an optional string into a bind argument; nil binds NULL.
func Nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
