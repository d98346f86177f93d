// Package sqlite implements repository.UserRepository on an embedded SQLite
// database. It is the default backend: no server to run, one file on disk.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C toolchain and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// SQLite, so the binary builds anywhere Go does.
//
// DATABASE/SQL RECAP:
//   - sql.DB   is a connection pool, not a single connection
//   - sql.Row  is one result row, sql.Rows many (must be closed!)
//   - every query takes a context so a cancelled request stops its query
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database, used by tests.
const MemoryPath = ":memory:"

// DB wraps the sql.DB pool and implements repository.UserRepository.
type DB struct {
	conn *sql.DB
}

// New opens (creating if needed) the database at dbPath and runs migrations.
//
// sql.Open does not connect; the Ping forces a real connection so a bad
// path or permissions problem fails here rather than on the first query.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty
	// database, so an in-memory store is pinned to one connection.
	if dbPath == MemoryPath {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets the rankings endpoint read while an ingestion run writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	// Ingestion upserts from several goroutines; wait for the write lock
	// instead of failing with SQLITE_BUSY.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// migrate creates the schema. CREATE ... IF NOT EXISTS and
// addColumnIfNotExists keep it safe to run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			login         TEXT PRIMARY KEY,
			name          TEXT,
			location      TEXT,
			country       TEXT,
			public_repos  INTEGER NOT NULL DEFAULT 0,
			followers     INTEGER NOT NULL DEFAULT 0,
			avatar_url    TEXT NOT NULL DEFAULT '',
			total_stars   INTEGER NOT NULL DEFAULT 0,
			contributions INTEGER NOT NULL DEFAULT 0,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_country ON users(country);
		CREATE INDEX IF NOT EXISTS idx_users_followers ON users(followers);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// Account type arrived after the first schema; older databases get
	// the column added with every existing row treated as a user.
	if err := db.addColumnIfNotExists("users", "type", "TEXT NOT NULL DEFAULT 'User'"); err != nil {
		return fmt.Errorf("adding type to users: %w", err)
	}
	if _, err := db.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_users_type ON users(type)`); err != nil {
		return fmt.Errorf("creating users type index: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column only if pragma_table_info does not
// already list it, because ALTER TABLE ADD COLUMN fails on a duplicate.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}
