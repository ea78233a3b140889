package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/text/message"

	"github.com/mcoot/teamenforcer/internal/dependencies/clock"
	"github.com/mcoot/teamenforcer/internal/dependencies/random"
	"github.com/mcoot/teamenforcer/internal/frame"
	"github.com/mcoot/teamenforcer/internal/host"
	"github.com/mcoot/teamenforcer/internal/i18n"
	"github.com/mcoot/teamenforcer/internal/notify"
	"github.com/mcoot/teamenforcer/internal/services/balance"
	"github.com/mcoot/teamenforcer/internal/services/ban"
	"github.com/mcoot/teamenforcer/internal/services/enforcer"
	"github.com/mcoot/teamenforcer/internal/services/queue"
	"github.com/mcoot/teamenforcer/internal/storage"
	"github.com/mcoot/teamenforcer/internal/storage/gormstore"
	"github.com/mcoot/teamenforcer/internal/storage/memory"
	redisstorage "github.com/mcoot/teamenforcer/internal/storage/redis"
	"github.com/mcoot/teamenforcer/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMySQL    = "mysql"
	StorageTypePostgres = "postgres"
	StorageTypeSQLite   = "sqlite"
	StorageTypeRedis    = "redis"
	StorageTypeMemory   = "memory"
	StorageTypeNone     = "none"
)

// App contains all wired application components
type App struct {
	// Storage is nil when bans are disabled
	Storage storage.BanStore

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Runtime
	Loop     *frame.Loop
	Hub      *notify.Hub
	Notifier *notify.Notifier
	Registry *host.Registry
	Printer  *message.Printer

	// Services
	QueueManager *queue.Manager
	BanService   *ban.Service
	Balance      *balance.Controller
	Enforcer     *enforcer.Enforcer

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the ban storage backend
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
	// Database holds MySQL/PostgreSQL credentials. Missing credentials disable bans.
	Database gormstore.Config
	// ChatPrefix is prepended to chat notices
	ChatPrefix string
	// Language selects the message catalog, defaults to English
	Language string
	// Balance tunes the controller (optional)
	// If zero value, defaults to balance.DefaultConfig()
	Balance balance.Config
	// JoinNoticeCooldown throttles the direct guard join notice
	JoinNoticeCooldown time.Duration
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := openStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	return newWithDependencies(store, clock.New(), random.New(), cfg, logger), nil
}

// openStorage returns nil, nil when the ban subsystem is disabled
func openStorage(cfg Config, logger *slog.Logger) (storage.BanStore, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		return sqlite.Open(cfg.SQLitePath)
	case StorageTypeMySQL, StorageTypePostgres:
		dbCfg := cfg.Database
		dbCfg.Driver = storageType
		if !dbCfg.Configured() {
			logger.Error("database credentials missing, guard bans are disabled",
				slog.String("storage", storageType))
			return nil, nil
		}
		store, err := gormstore.Open(dbCfg)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", storageType, err)
		}
		return store, nil
	case StorageTypeNone:
		logger.Warn("ban storage disabled, guard bans are unavailable")
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid StorageType %q", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.BanStore, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	balanceCfg := cfg.Balance
	if balanceCfg.GuardRatio == 0 {
		balanceCfg = balance.DefaultConfig()
	}
	cooldown := cfg.JoinNoticeCooldown
	if cooldown == 0 {
		cooldown = 3 * time.Second
	}
	printer := i18n.Printer(cfg.Language)

	loop := frame.New(logger)
	hub := notify.NewHub(logger)
	notifier := notify.NewNotifier(hub, cfg.ChatPrefix, clk, logger)
	registry := host.NewRegistry(notifier, logger)
	queueManager := queue.NewManager()

	bans := ban.New(store, clk, logger)
	controller := balance.NewController(registry, notifier, queueManager, bans, rnd, printer, balanceCfg, logger)
	enf := enforcer.New(loop, registry, notifier, queueManager, controller, bans, clk, printer,
		enforcer.Config{
			DefaultKickRounds:  balanceCfg.DefaultKickRounds,
			JoinNoticeCooldown: cooldown,
		}, logger)

	return &App{
		Storage:      store,
		Clock:        clk,
		Random:       rnd,
		Loop:         loop,
		Hub:          hub,
		Notifier:     notifier,
		Registry:     registry,
		Printer:      printer,
		QueueManager: queueManager,
		BanService:   bans,
		Balance:      controller,
		Enforcer:     enf,
		logger:       logger,
	}
}

// Start prepares the ban schema and runs the frame loop and notification hub
// in the background
func (a *App) Start(ctx context.Context) error {
	if a.BanService.Enabled() {
		if err := a.BanService.CreateSchema(ctx); err != nil {
			return fmt.Errorf("create ban schema: %w", err)
		}
	}
	go a.Loop.Run()
	go a.Hub.Run()
	return nil
}

// Close stops background goroutines and releases storage
func (a *App) Close() error {
	a.Loop.Close()
	a.Hub.Close()
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
