// Package config loads service settings from defaults, an optional YAML
// file, a .env file and the process environment, in increasing precedence.
//
// Keys are dotted paths ("ingest.batch_size"); each maps to an environment
// variable by upper-casing and replacing dots with underscores
// (INGEST_BATCH_SIZE). A few variables keep their conventional names, see
// envAliases.
//
// When a config file is in use, Watch re-reads it on change and hands the
// new Config to every registered callback. Only the ingestion tunables are
// meant to change at runtime; everything else is read once at startup.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type Config struct {
	Port       int    `mapstructure:"port"`
	LogLevel   string `mapstructure:"log_level"`
	CronSecret string `mapstructure:"cron_secret_key"`

	DB     DB     `mapstructure:"db"`
	GitHub GitHub `mapstructure:"github"`
	Kafka  Kafka  `mapstructure:"kafka"`
	Ingest Ingest `mapstructure:"ingest"`
}

type DB struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"` // sqlite file
	URL    string `mapstructure:"url"`  // postgres DSN
	MySQL  MySQL  `mapstructure:"mysql"`
}

type MySQL struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type GitHub struct {
	Token        string        `mapstructure:"token"`
	APIURL       string        `mapstructure:"api_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRepoPages int           `mapstructure:"max_repo_pages"`
}

type Kafka struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Ingest holds the hot-reloadable tunables of the ingestion job.
type Ingest struct {
	Query         string        `mapstructure:"query"`
	BatchSize     int           `mapstructure:"batch_size"`
	BatchDelay    time.Duration `mapstructure:"batch_delay"`
	SearchPerPage int           `mapstructure:"search_per_page"`
	Interval      time.Duration `mapstructure:"interval"`  // 0 disables the in-process ticker
	Bootstrap     bool          `mapstructure:"bootstrap"` // populate an empty store at startup
}

var defaults = map[string]any{
	"port":            8080,
	"log_level":       "info",
	"cron_secret_key": "",

	"db.driver":                  DriverSQLite,
	"db.path":                    "data/rankings.db",
	"db.url":                     "",
	"db.mysql.host":              "127.0.0.1",
	"db.mysql.port":              "3306",
	"db.mysql.user":              "root",
	"db.mysql.password":          "",
	"db.mysql.database":          "gh_rankings",
	"db.mysql.max_idle_conns":    10,
	"db.mysql.max_open_conns":    50,
	"db.mysql.conn_max_lifetime": time.Hour,

	"github.token":          "",
	"github.api_url":        "https://api.github.com",
	"github.timeout":        30 * time.Second,
	"github.max_repo_pages": 3,

	"kafka.brokers": []string{},
	"kafka.topic":   "user-rankings",

	"ingest.query":           "followers:>1000",
	"ingest.batch_size":      10,
	"ingest.batch_delay":     time.Second,
	"ingest.search_per_page": 100,
	"ingest.interval":        time.Duration(0),
	"ingest.bootstrap":       true,
}

// envAliases binds keys whose environment names do not follow the dotted
// path convention.
var envAliases = map[string]string{
	"db.url":            "DATABASE_URL",
	"db.mysql.host":     "MYSQL_HOST",
	"db.mysql.port":     "MYSQL_PORT",
	"db.mysql.user":     "MYSQL_USER",
	"db.mysql.password": "MYSQL_PASSWORD",
	"db.mysql.database": "MYSQL_DATABASE",
}

// Loader reads and watches configuration. It is safe for concurrent use.
type Loader struct {
	v        *viper.Viper
	file     string
	envFiles []string
	logger   *slog.Logger

	mu        sync.RWMutex
	current   *Config
	callbacks []func(*Config)
}

// NewLoader creates a Loader. file is an optional YAML config path; envFiles
// are .env files loaded before the environment is read (missing ones are
// skipped). With no envFiles, ".env" is tried.
func NewLoader(file string, logger *slog.Logger, envFiles ...string) *Loader {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	return &Loader{
		v:        viper.New(),
		file:     file,
		envFiles: envFiles,
		logger:   logger,
	}
}

// Load resolves the configuration once and validates it.
func (l *Loader) Load() (*Config, error) {
	for _, f := range l.envFiles {
		// godotenv never overrides variables already set in the process.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}

	for key, val := range defaults {
		l.v.SetDefault(key, val)
	}
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
	for key, env := range envAliases {
		if err := l.v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("config: binding %s: %w", env, err)
		}
	}

	if l.file != "" {
		l.v.SetConfigFile(l.file)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", l.file, err)
		}
	}

	cfg, err := l.decode()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()
	return cfg, nil
}

// Current returns the most recently loaded configuration.
func (l *Loader) Current() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers fn to run after every successful reload.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	l.callbacks = append(l.callbacks, fn)
	l.mu.Unlock()
}

// Watch starts watching the config file. It is a no-op without one.
func (l *Loader) Watch() {
	if l.file == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		l.logger.Info("config file changed", slog.String("file", e.Name), slog.String("op", e.Op.String()))
		if err := l.reload(); err != nil {
			l.logger.Error("config reload rejected, keeping previous settings", slog.String("error", err.Error()))
		}
	})
	l.v.WatchConfig()
}

// reload re-decodes viper's state (already refreshed from the file) and
// notifies callbacks. An invalid file leaves the current config in place.
func (l *Loader) reload() error {
	cfg, err := l.decode()
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*Config), len(l.callbacks))
	copy(callbacks, l.callbacks)
	l.mu.Unlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
	l.logger.Info("configuration reloaded",
		slog.String("query", cfg.Ingest.Query),
		slog.Int("batch_size", cfg.Ingest.BatchSize),
		slog.Duration("batch_delay", cfg.Ingest.BatchDelay),
	)
	return nil
}

func (l *Loader) decode() (*Config, error) {
	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	switch c.DB.Driver {
	case DriverSQLite:
		if c.DB.Path == "" {
			return errors.New("config: db.path is required for sqlite")
		}
	case DriverPostgres:
		if c.DB.URL == "" {
			return errors.New("config: DATABASE_URL is required for postgres")
		}
	case DriverMySQL:
		if c.DB.MySQL.Host == "" || c.DB.MySQL.Database == "" {
			return errors.New("config: MYSQL_HOST and MYSQL_DATABASE are required for mysql")
		}
	default:
		return fmt.Errorf("config: unknown db driver %q", c.DB.Driver)
	}

	if strings.TrimSpace(c.Ingest.Query) == "" {
		return errors.New("config: ingest.query must not be empty")
	}
	if c.Ingest.Interval < 0 {
		return errors.New("config: ingest.interval must not be negative")
	}
	return nil
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: invalid log level %q", s)
	}
	return lvl, nil
}

// splitList flattens comma-separated entries, which is how a list arrives
// from a single environment variable.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
