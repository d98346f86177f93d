// Package postgres implements repository.UserRepository on PostgreSQL via
// lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/sakif/gh-rankings/internal/apperror"
	"github.com/sakif/gh-rankings/internal/model"
	"github.com/sakif/gh-rankings/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

type DB struct {
	conn *sql.DB
}

// New connects to dsn (a postgres:// URL or key=value string), tunes the
// pool and creates the schema.
func New(ctx context.Context, dsn string) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: opening database: %w", err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}
	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			login         TEXT PRIMARY KEY,
			name          TEXT,
			location      TEXT,
			country       TEXT,
			type          TEXT NOT NULL DEFAULT 'User',
			public_repos  INTEGER NOT NULL DEFAULT 0,
			followers     INTEGER NOT NULL DEFAULT 0,
			avatar_url    TEXT NOT NULL DEFAULT '',
			total_stars   INTEGER NOT NULL DEFAULT 0,
			contributions INTEGER NOT NULL DEFAULT 0,
			created_at    TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_users_country ON users(country);
		CREATE INDEX IF NOT EXISTS idx_users_type ON users(type);
		CREATE INDEX IF NOT EXISTS idx_users_followers ON users(followers DESC);
	`)
	return err
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

// Upsert inserts or updates by login; created_at of an existing row is kept
// and returned.
func (db *DB) Upsert(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.UpdatedAt = now
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}

	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO users (login, name, location, country, type, public_repos, followers,
		                   avatar_url, total_stars, contributions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (login) DO UPDATE SET
			name          = EXCLUDED.name,
			location      = EXCLUDED.location,
			country       = EXCLUDED.country,
			type          = EXCLUDED.type,
			public_repos  = EXCLUDED.public_repos,
			followers     = EXCLUDED.followers,
			avatar_url    = EXCLUDED.avatar_url,
			total_stars   = EXCLUDED.total_stars,
			contributions = EXCLUDED.contributions,
			updated_at    = EXCLUDED.updated_at
		RETURNING created_at
	`, u.Login, repository.Nullable(u.Name), repository.Nullable(u.Location), repository.Nullable(u.Country),
		u.Type, u.PublicRepos, u.Followers,
		u.AvatarURL, u.TotalStars, u.Contributions, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: upserting user %s: %w", u.Login, err)
	}
	return nil
}

func (db *DB) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+repository.UserColumns+` FROM users WHERE login = $1`, login)

	u, err := repository.ScanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", login)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", login, err)
	}
	return u, nil
}

func (db *DB) List(ctx context.Context, q repository.UserQuery) ([]model.User, error) {
	col, err := repository.SortColumn(q.SortBy)
	if err != nil {
		return nil, apperror.ValidationFailed("sortBy", err.Error())
	}
	where, args := repository.Where(q, repository.Dollar)
	limit, offset := repository.Window(q)

	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY %s DESC, login ASC LIMIT $%d OFFSET $%d`,
		repository.UserColumns, where, col, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		u, err := repository.ScanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating users: %w", err)
	}
	return users, nil
}

func (db *DB) Count(ctx context.Context, q repository.UserQuery) (int, error) {
	where, args := repository.Where(q, repository.Dollar)

	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: counting users: %w", err)
	}
	return n, nil
}
