package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/gh-rankings/internal/apperror"
	"github.com/sakif/gh-rankings/internal/model"
	"github.com/sakif/gh-rankings/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Upsert inserts a user or refreshes every derived field of the existing
// row with the same login.
//
// ON CONFLICT ... DO UPDATE keeps the row in place, unlike INSERT OR REPLACE
// which deletes and re-inserts it and would reset created_at. The stored
// created_at is read back so the caller's struct matches the row.
func (db *DB) Upsert(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.UpdatedAt = now
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (login, name, location, country, type, public_repos, followers,
		                    avatar_url, total_stars, contributions, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(login) DO UPDATE SET
			name          = excluded.name,
			location      = excluded.location,
			country       = excluded.country,
			type          = excluded.type,
			public_repos  = excluded.public_repos,
			followers     = excluded.followers,
			avatar_url    = excluded.avatar_url,
			total_stars   = excluded.total_stars,
			contributions = excluded.contributions,
			updated_at    = excluded.updated_at`,
		u.Login, repository.Nullable(u.Name), repository.Nullable(u.Location), repository.Nullable(u.Country),
		u.Type, u.PublicRepos, u.Followers,
		u.AvatarURL, u.TotalStars, u.Contributions, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting user %s: %w", u.Login, err)
	}

	err = db.conn.QueryRowContext(ctx,
		`SELECT created_at FROM users WHERE login = ?`, u.Login,
	).Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: reading back user %s: %w", u.Login, err)
	}
	return nil
}

// GetByLogin returns apperror.ErrNotFound when no row has that login.
func (db *DB) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+repository.UserColumns+` FROM users WHERE login = ?`, login)

	u, err := repository.ScanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", login)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", login, err)
	}
	return u, nil
}

// List returns one window of users matching q, ordered by the sort column
// descending and then login ascending so ties page deterministically.
func (db *DB) List(ctx context.Context, q repository.UserQuery) ([]model.User, error) {
	col, err := repository.SortColumn(q.SortBy)
	if err != nil {
		return nil, apperror.ValidationFailed("sortBy", err.Error())
	}
	where, args := repository.Where(q, repository.Question)
	limit, offset := repository.Window(q)

	// col comes from the SortColumn whitelist, never from user input.
	query := `SELECT ` + repository.UserColumns + ` FROM users` + where +
		` ORDER BY ` + col + ` DESC, login ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		u, err := repository.ScanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

// Count applies the same filters as List.
func (db *DB) Count(ctx context.Context, q repository.UserQuery) (int, error) {
	where, args := repository.Where(q, repository.Question)

	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting users: %w", err)
	}
	return n, nil
}
