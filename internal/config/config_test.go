package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// noEnvFile points the loader at a .env that does not exist.
func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader("", testLogger(), noEnvFile(t)).Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "followers:>1000", cfg.Ingest.Query)
	assert.Equal(t, 10, cfg.Ingest.BatchSize)
	assert.Equal(t, time.Second, cfg.Ingest.BatchDelay)
	assert.Equal(t, 100, cfg.Ingest.SearchPerPage)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIURL)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("CRON_SECRET_KEY", "s3cret")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/rankings?sslmode=disable")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("INGEST_BATCH_SIZE", "7")
	t.Setenv("INGEST_BATCH_DELAY", "1500ms")
	t.Setenv("INGEST_BOOTSTRAP", "false")

	cfg, err := NewLoader("", testLogger(), noEnvFile(t)).Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "ghp_test", cfg.GitHub.Token)
	assert.Equal(t, "s3cret", cfg.CronSecret)
	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, "postgres://u:p@localhost/rankings?sslmode=disable", cfg.DB.URL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 7, cfg.Ingest.BatchSize)
	assert.Equal(t, 1500*time.Millisecond, cfg.Ingest.BatchDelay)
	assert.False(t, cfg.Ingest.Bootstrap)
}

func TestLoad_MySQLAliases(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("MYSQL_HOST", "db.internal")
	t.Setenv("MYSQL_DATABASE", "ranks")

	cfg, err := NewLoader("", testLogger(), noEnvFile(t)).Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.MySQL.Host)
	assert.Equal(t, "ranks", cfg.DB.MySQL.Database)
	assert.Equal(t, "3306", cfg.DB.MySQL.Port)
}

func TestLoad_DotEnvFile(t *testing.T) {
	// Registers restoration of the original value, then clears it so the
	// .env file is allowed to set it.
	t.Setenv("CRON_SECRET_KEY", "")
	require.NoError(t, os.Unsetenv("CRON_SECRET_KEY"))

	envFile := writeFile(t, t.TempDir(), ".env", "CRON_SECRET_KEY=from-dotenv\n")

	cfg, err := NewLoader("", testLogger(), envFile).Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.CronSecret)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
port: 8181
ingest:
  query: "followers:>5000"
  batch_size: 6
  batch_delay: 2s
github:
  max_repo_pages: 5
`)

	cfg, err := NewLoader(path, testLogger(), noEnvFile(t)).Load()
	require.NoError(t, err)

	assert.Equal(t, 8181, cfg.Port)
	assert.Equal(t, "followers:>5000", cfg.Ingest.Query)
	assert.Equal(t, 6, cfg.Ingest.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.Ingest.BatchDelay)
	assert.Equal(t, 5, cfg.GitHub.MaxRepoPages)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "ingest:\n  batch_size: 6\n")
	t.Setenv("INGEST_BATCH_SIZE", "9")

	cfg, err := NewLoader(path, testLogger(), noEnvFile(t)).Load()
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Ingest.BatchSize)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml"), testLogger(), noEnvFile(t)).Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:     8080,
			LogLevel: "info",
			DB:       DB{Driver: DriverSQLite, Path: "x.db"},
			Ingest:   Ingest{Query: "followers:>1000"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "port zero", mutate: func(c *Config) { c.Port = 0 }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.DB.Driver = "oracle" }, wantErr: true},
		{name: "postgres without url", mutate: func(c *Config) { c.DB.Driver = DriverPostgres }, wantErr: true},
		{name: "mysql without host", mutate: func(c *Config) { c.DB.Driver = DriverMySQL }, wantErr: true},
		{name: "empty query", mutate: func(c *Config) { c.Ingest.Query = "  " }, wantErr: true},
		{name: "negative interval", mutate: func(c *Config) { c.Ingest.Interval = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)
}

func TestReload_NotifiesCallbacks(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "ingest:\n  batch_size: 6\n")

	l := NewLoader(path, testLogger(), noEnvFile(t))
	_, err := l.Load()
	require.NoError(t, err)

	var got *Config
	l.OnChange(func(c *Config) { got = c })

	writeFile(t, dir, "config.yaml", "ingest:\n  batch_size: 8\n  batch_delay: 2s\n")
	require.NoError(t, l.v.ReadInConfig())
	require.NoError(t, l.reload())

	require.NotNil(t, got)
	assert.Equal(t, 8, got.Ingest.BatchSize)
	assert.Equal(t, 2*time.Second, got.Ingest.BatchDelay)
	assert.Equal(t, 8, l.Current().Ingest.BatchSize)
}

func TestReload_InvalidKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "ingest:\n  batch_size: 6\n")

	l := NewLoader(path, testLogger(), noEnvFile(t))
	_, err := l.Load()
	require.NoError(t, err)

	called := false
	l.OnChange(func(*Config) { called = true })

	writeFile(t, dir, "config.yaml", "ingest:\n  query: \"\"\n")
	require.NoError(t, l.v.ReadInConfig())
	assert.Error(t, l.reload())

	assert.False(t, called)
	assert.Equal(t, 6, l.Current().Ingest.BatchSize)
}
