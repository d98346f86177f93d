// Package mysql implements repository.UserRepository on MySQL through gorm.
package mysql

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/sakif/gh-rankings/internal/apperror"
	"github.com/sakif/gh-rankings/internal/model"
	"github.com/sakif/gh-rankings/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

// Config holds connection settings.
type Config struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders the go-sql-driver connection string. ParseTime is required so
// DATETIME columns scan into time.Time.
func (c Config) DSN() string {
	cfg := mysqlDriver.Config{
		User:                 c.User,
		Passwd:               c.Password,
		DBName:               c.Database,
		Addr:                 net.JoinHostPort(c.Host, c.Port),
		Net:                  "tcp",
		ParseTime:            true,
		Loc:                  time.UTC,
		AllowNativePasswords: true,
		Params:               map[string]string{"charset": "utf8mb4"},
	}
	return cfg.FormatDSN()
}

// userRow is the gorm mapping of model.User.
type userRow struct {
	Login         string    `gorm:"column:login;type:varchar(191);primaryKey"`
	Name          *string   `gorm:"column:name;type:varchar(255)"`
	Location      *string   `gorm:"column:location;type:varchar(255)"`
	Country       *string   `gorm:"column:country;type:varchar(100);index"`
	Type          string    `gorm:"column:type;type:varchar(20);not null;default:User;index"`
	PublicRepos   int       `gorm:"column:public_repos;not null;default:0"`
	Followers     int       `gorm:"column:followers;not null;default:0;index"`
	AvatarURL     string    `gorm:"column:avatar_url;type:varchar(512);not null;default:''"`
	TotalStars    int       `gorm:"column:total_stars;not null;default:0"`
	Contributions int       `gorm:"column:contributions;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null"`
}

func (userRow) TableName() string {
	return "users"
}

func toRow(u *model.User) userRow {
	return userRow{
		Login: u.Login, Name: u.Name, Location: u.Location, Country: u.Country, Type: u.Type,
		PublicRepos: u.PublicRepos, Followers: u.Followers, AvatarURL: u.AvatarURL,
		TotalStars: u.TotalStars, Contributions: u.Contributions,
		CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func (r userRow) toUser() model.User {
	return model.User{
		Login: r.Login, Name: r.Name, Location: r.Location, Country: r.Country, Type: r.Type,
		PublicRepos: r.PublicRepos, Followers: r.Followers, AvatarURL: r.AvatarURL,
		TotalStars: r.TotalStars, Contributions: r.Contributions,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type DB struct {
	gdb *gorm.DB
}

// New opens the pool and auto-migrates the users table.
func New(ctx context.Context, cfg Config) (*DB, error) {
	gdb, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("mysql: opening database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("mysql: getting pool: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	db := &DB{gdb: gdb}
	if err := db.Ping(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := gdb.WithContext(ctx).AutoMigrate(&userRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("mysql: migrating users: %w", err)
	}
	return db, nil
}

func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.gdb.DB()
	if err != nil {
		return fmt.Errorf("mysql: ping: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("mysql: ping: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	sqlDB, err := db.gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Upsert renders as INSERT ... ON DUPLICATE KEY UPDATE on MySQL; created_at
// is left out of the update list so the first-seen time survives.
func (db *DB) Upsert(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.UpdatedAt = now
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}

	row := toRow(u)
	err := db.gdb.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "login"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "location", "country", "type", "public_repos", "followers",
			"avatar_url", "total_stars", "contributions", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("mysql: upserting user %s: %w", u.Login, err)
	}

	var stored userRow
	if err := db.gdb.WithContext(ctx).Select("created_at").Where("login = ?", u.Login).Take(&stored).Error; err != nil {
		return fmt.Errorf("mysql: reading back user %s: %w", u.Login, err)
	}
	u.CreatedAt = stored.CreatedAt
	return nil
}

func (db *DB) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	var row userRow
	err := db.gdb.WithContext(ctx).Where("login = ?", login).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", login)
		}
		return nil, fmt.Errorf("mysql: getting user %s: %w", login, err)
	}
	u := row.toUser()
	return &u, nil
}

func (db *DB) List(ctx context.Context, q repository.UserQuery) ([]model.User, error) {
	col, err := repository.SortColumn(q.SortBy)
	if err != nil {
		return nil, apperror.ValidationFailed("sortBy", err.Error())
	}
	limit, offset := repository.Window(q)

	var rows []userRow
	err = db.filtered(ctx, q).
		Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "login"}}).
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("mysql: listing users: %w", err)
	}

	users := make([]model.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (db *DB) Count(ctx context.Context, q repository.UserQuery) (int, error) {
	var n int64
	if err := db.filtered(ctx, q).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("mysql: counting users: %w", err)
	}
	return int(n), nil
}

func (db *DB) filtered(ctx context.Context, q repository.UserQuery) *gorm.DB {
	tx := db.gdb.WithContext(ctx).Model(&userRow{})
	if q.Type != "" {
		tx = tx.Where("type = ?", q.Type)
	}
	if q.Country != "" {
		tx = tx.Where("country = ?", q.Country)
	}
	return tx
}
