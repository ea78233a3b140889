// Package gormstore provides a ban store for MySQL and PostgreSQL through GORM.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mcoot/teamenforcer/internal/model"
	"github.com/mcoot/teamenforcer/internal/storage"
)

// Supported drivers
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config holds database connection settings
type Config struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Configured reports whether enough credentials are present to connect
func (c Config) Configured() bool {
	return c.Host != "" && c.User != "" && c.Name != ""
}

// DSN builds the driver-specific connection string
func (c Config) DSN() (string, error) {
	switch c.Driver {
	case DriverMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC&charset=utf8mb4",
			c.User, c.Password, c.Host, c.Port, c.Name), nil
	case DriverPostgres:
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			c.Host, c.Port, c.User, c.Password, c.Name, sslMode), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

// Store persists bans in a relational database.
type Store struct {
	db *gorm.DB
}

// Open connects using the given configuration
func Open(cfg Config) (*Store, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	return OpenDSN(cfg.Driver, dsn)
}

// OpenDSN connects with a raw driver name and DSN
func OpenDSN(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}
	return &Store{db: db}, nil
}

var _ storage.BanStore = (*Store)(nil)

// Close closes the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateSchema creates the ctbans and ctunbans tables if needed
func (s *Store) CreateSchema(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&banRow{}, &unbanRow{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (s *Store) InsertBan(ctx context.Context, ban *model.BanRecord) error {
	row := banFromModel(ban)
	row.ID = 0
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("insert ban: %w", err)
	}
	ban.ID = model.BanID(row.ID)
	return nil
}

func (s *Store) GetBan(ctx context.Context, id model.BanID) (*model.BanRecord, error) {
	var row banRow
	err := s.db.WithContext(ctx).First(&row, int64(id)).Error
	if err != nil {
		return nil, notFound(err, model.ErrBanNotFound)
	}
	return row.toModel(), nil
}

func (s *Store) GetActiveBan(ctx context.Context, identity model.Identity) (*model.BanRecord, error) {
	var row banRow
	err := s.db.WithContext(ctx).
		Where("player_steamid = ? AND active = ?", string(identity), true).
		Order("id DESC").
		First(&row).Error
	if err != nil {
		return nil, notFound(err, model.ErrBanNotFound)
	}
	return row.toModel(), nil
}

func (s *Store) ListBans(ctx context.Context, identity model.Identity) ([]*model.BanRecord, error) {
	var rows []banRow
	err := s.db.WithContext(ctx).
		Where("player_steamid = ?", string(identity)).
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list bans: %w", err)
	}
	bans := make([]*model.BanRecord, 0, len(rows))
	for i := range rows {
		bans = append(bans, rows[i].toModel())
	}
	return bans, nil
}

func (s *Store) DeactivateBan(ctx context.Context, id model.BanID) error {
	if _, err := s.GetBan(ctx, id); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Model(&banRow{}).
		Where("id = ?", int64(id)).
		Update("active", false).Error
	if err != nil {
		return fmt.Errorf("deactivate ban: %w", err)
	}
	return nil
}

func (s *Store) DeleteBan(ctx context.Context, id model.BanID) error {
	res := s.db.WithContext(ctx).Delete(&banRow{}, int64(id))
	if res.Error != nil {
		return fmt.Errorf("delete ban: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrBanNotFound
	}
	return nil
}

func (s *Store) Unban(ctx context.Context, unban *model.UnbanRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&banRow{}).
			Where("id = ? AND active = ?", int64(unban.BanID), true).
			Update("active", false)
		if res.Error != nil {
			return fmt.Errorf("deactivate ban: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return model.ErrBanNotFound
		}

		row := &unbanRow{
			BanID:        int64(unban.BanID),
			StaffSteamID: string(unban.StaffIdentity),
			UnbanReason:  unban.Reason,
			UnbanDate:    unban.UnbannedAt.UTC(),
		}
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("insert unban: %w", err)
		}
		unban.ID = row.ID
		return nil
	})
}

func (s *Store) GetUnban(ctx context.Context, banID model.BanID) (*model.UnbanRecord, error) {
	var row unbanRow
	err := s.db.WithContext(ctx).Where("ban_id = ?", int64(banID)).First(&row).Error
	if err != nil {
		return nil, notFound(err, model.ErrUnbanNotFound)
	}
	return row.toModel(), nil
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
