package mysql

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/gh-rankings/internal/apperror"
	"github.com/sakif/gh-rankings/internal/model"
	"github.com/sakif/gh-rankings/internal/repository"
)

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db.internal", Port: "3307", User: "ranker", Password: "s3cret", Database: "rankings"}

	dsn := cfg.DSN()
	parsed, err := mysqlDriver.ParseDSN(dsn)
	require.NoError(t, err)

	assert.Equal(t, "ranker", parsed.User)
	assert.Equal(t, "s3cret", parsed.Passwd)
	assert.Equal(t, "db.internal:3307", parsed.Addr)
	assert.Equal(t, "rankings", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.True(t, strings.Contains(dsn, "charset=utf8mb4"))
}

func TestRowRoundTrip(t *testing.T) {
	u := &model.User{
		Login:      "octocat",
		Country:    model.StringPtr("United States"),
		Type:       model.AccountTypeOrganization,
		TotalStars: 15,
	}

	back := toRow(u).toUser()
	assert.Equal(t, *u, back)
}

// newTestDB connects to the DSN in TEST_MYSQL_DSN and truncates users. The
// test is skipped when it is unset or unreachable.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("Skipping test - TEST_MYSQL_DSN not set")
	}
	parsed, err := mysqlDriver.ParseDSN(dsn)
	require.NoError(t, err)

	host, port, _ := strings.Cut(parsed.Addr, ":")
	db, err := New(context.Background(), Config{
		Host: host, Port: port, User: parsed.User, Password: parsed.Passwd, Database: parsed.DBName,
	})
	if err != nil {
		t.Skipf("Skipping test - cannot connect to test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.gdb.Exec("TRUNCATE TABLE users").Error)
	return db
}

func TestMySQL_UpsertListCount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 1; i <= 45; i++ {
		u := &model.User{Login: fmt.Sprintf("my-user-%02d", i), Type: model.AccountTypeUser, Followers: 1000 - i}
		require.NoError(t, db.Upsert(ctx, u))
	}
	require.NoError(t, db.Upsert(ctx, &model.User{Login: "my-org", Type: model.AccountTypeOrganization, Followers: 1}))

	page, err := db.List(ctx, repository.UserQuery{Type: model.AccountTypeUser, Limit: 20, Offset: 20})
	require.NoError(t, err)
	require.Len(t, page, 20)
	assert.Equal(t, "my-user-21", page[0].Login)
	assert.Equal(t, "my-user-40", page[19].Login)

	n, err := db.Count(ctx, repository.UserQuery{Type: model.AccountTypeUser})
	require.NoError(t, err)
	assert.Equal(t, 45, n)

	first, err := db.GetByLogin(ctx, "my-user-01")
	require.NoError(t, err)
	updated := &model.User{Login: "my-user-01", Type: model.AccountTypeUser, Followers: 2}
	require.NoError(t, db.Upsert(ctx, updated))
	assert.True(t, first.CreatedAt.Equal(updated.CreatedAt))

	n, err = db.Count(ctx, repository.UserQuery{})
	require.NoError(t, err)
	assert.Equal(t, 46, n)
}

func TestMySQL_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByLogin(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
