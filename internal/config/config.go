// Package config loads daemon settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Ban storage backends
const (
	StorageMySQL    = "mysql"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageRedis    = "redis"
	StorageMemory   = "memory"
	StorageNone     = "none"
)

var storageTypes = []string{StorageMySQL, StoragePostgres, StorageSQLite, StorageRedis, StorageMemory, StorageNone}

// Config holds every daemon setting
type Config struct {
	HTTPHost   string `env:"TE_HTTP_HOST"   envDefault:"0.0.0.0"`
	HTTPPort   int    `env:"TE_HTTP_PORT"   envDefault:"8080"`
	LogLevel   string `env:"TE_LOG_LEVEL"   envDefault:"info"`
	ChatPrefix string `env:"TE_CHAT_PREFIX" envDefault:"[TeamEnforcer]"`
	Language   string `env:"TE_LANGUAGE"    envDefault:"en"`

	GuardRatio              float64       `env:"TE_GUARD_RATIO"                envDefault:"0.25"`
	RoundsToLowPriority     int           `env:"TE_ROUNDS_TO_LOW_PRIORITY"     envDefault:"2"`
	DefaultKickRounds       int           `env:"TE_DEFAULT_KICK_ROUNDS"        envDefault:"5"`
	IllegitimateDemotionCap int           `env:"TE_ILLEGITIMATE_DEMOTION_CAP"  envDefault:"0"`
	RandomDrawAttempts      int           `env:"TE_RANDOM_DRAW_ATTEMPTS"       envDefault:"50"`
	JoinNoticeCooldown      time.Duration `env:"TE_JOIN_NOTICE_COOLDOWN"       envDefault:"3s"`

	BanStorage     string   `env:"TE_BAN_STORAGE"      envDefault:"mysql"`
	DB             DBConfig `envPrefix:"TE_DB_"`
	SQLitePath     string   `env:"TE_SQLITE_PATH"      envDefault:"teamenforcer.db"`
	RedisURL       string   `env:"TE_REDIS_URL"        envDefault:"redis://localhost:6379/0"`
	RedisKeyPrefix string   `env:"TE_REDIS_KEY_PREFIX" envDefault:"teamenforcer"`

	OperatorTokenHashes []string `env:"TE_OPERATOR_TOKEN_HASHES" envSeparator:","`
	TLSCertFile         string   `env:"TE_TLS_CERT_FILE"`
	TLSKeyFile          string   `env:"TE_TLS_KEY_FILE"`
	OTelEndpoint        string   `env:"TE_OTEL_ENDPOINT"`
	MetricsEnabled      bool     `env:"TE_METRICS_ENABLED" envDefault:"true"`
}

// DBConfig holds relational database credentials
type DBConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT"     envDefault:"3306"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME"`
	SSLMode  string `env:"SSLMODE"  envDefault:"disable"`
}

// Configured reports whether enough credentials are present to connect
func (c DBConfig) Configured() bool {
	return c.Host != "" && c.User != "" && c.Name != ""
}

// Addr returns the HTTP listen address
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}

// SlogLevel converts LogLevel to a slog level
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the given dotenv files (".env" when none are given), then the
// environment. Missing dotenv files are ignored; real environment variables win.
func Load(dotenvFiles ...string) (Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, file := range dotenvFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations
func (c Config) Validate() error {
	var errs []error
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("TE_HTTP_PORT out of range: %d", c.HTTPPort))
	}
	if c.GuardRatio <= 0 || c.GuardRatio > 1 {
		errs = append(errs, fmt.Errorf("TE_GUARD_RATIO must be in (0, 1]: %v", c.GuardRatio))
	}
	if c.RoundsToLowPriority < 1 {
		errs = append(errs, fmt.Errorf("TE_ROUNDS_TO_LOW_PRIORITY must be positive: %d", c.RoundsToLowPriority))
	}
	if c.DefaultKickRounds < 1 {
		errs = append(errs, fmt.Errorf("TE_DEFAULT_KICK_ROUNDS must be positive: %d", c.DefaultKickRounds))
	}
	if c.IllegitimateDemotionCap < 0 {
		errs = append(errs, fmt.Errorf("TE_ILLEGITIMATE_DEMOTION_CAP must not be negative: %d", c.IllegitimateDemotionCap))
	}
	if c.RandomDrawAttempts < 1 {
		errs = append(errs, fmt.Errorf("TE_RANDOM_DRAW_ATTEMPTS must be positive: %d", c.RandomDrawAttempts))
	}
	if c.JoinNoticeCooldown < 0 {
		errs = append(errs, fmt.Errorf("TE_JOIN_NOTICE_COOLDOWN must not be negative: %s", c.JoinNoticeCooldown))
	}
	storage := strings.ToLower(c.BanStorage)
	if !slices.Contains(storageTypes, storage) {
		errs = append(errs, fmt.Errorf("TE_BAN_STORAGE must be one of %s: %q", strings.Join(storageTypes, ", "), c.BanStorage))
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		errs = append(errs, errors.New("TE_TLS_CERT_FILE and TE_TLS_KEY_FILE must be set together"))
	}
	if storage == StorageSQLite && c.SQLitePath == "" {
		errs = append(errs, errors.New("TE_SQLITE_PATH is required for sqlite storage"))
	}
	return errors.Join(errs...)
}
