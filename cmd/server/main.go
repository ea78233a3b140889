package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mcoot/teamenforcer/internal/api"
	"github.com/mcoot/teamenforcer/internal/config"
	"github.com/mcoot/teamenforcer/internal/factory"
	"github.com/mcoot/teamenforcer/internal/services/balance"
	"github.com/mcoot/teamenforcer/internal/storage/gormstore"
	redisstorage "github.com/mcoot/teamenforcer/internal/storage/redis"
	"github.com/mcoot/teamenforcer/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, "teamenforcer", cfg.OTelEndpoint)
	if err != nil {
		logger.Error("failed to set up tracing", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	app, err := factory.New(factoryConfig(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = app.Close() }()

	if err := app.Start(ctx); err != nil {
		// Schema failures leave the daemon running without bans
		logger.Error("failed to start application", slog.Any("error", err))
		os.Exit(1)
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Enforcer:    app.Enforcer,
		Hub:         app.Hub,
		TokenHashes: cfg.OperatorTokenHashes,
		Metrics:     cfg.MetricsEnabled,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.HTTPHost
	serverConfig.Port = cfg.HTTPPort
	serverConfig.TLSCertFile = cfg.TLSCertFile
	serverConfig.TLSKeyFile = cfg.TLSKeyFile
	server := api.NewServer(router, serverConfig, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("ban_storage", cfg.BanStorage),
		slog.Bool("bans_available", app.BanService.Enabled()))

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		// Closing the hub ends open event streams so shutdown can drain
		app.Hub.Close()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

func factoryConfig(cfg config.Config, logger *slog.Logger) factory.Config {
	storage := strings.ToLower(cfg.BanStorage)
	fc := factory.Config{
		Logger:      logger,
		StorageType: storage,
		SQLitePath:  cfg.SQLitePath,
		Database: gormstore.Config{
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			User:     cfg.DB.User,
			Password: cfg.DB.Password,
			Name:     cfg.DB.Name,
			SSLMode:  cfg.DB.SSLMode,
		},
		ChatPrefix: cfg.ChatPrefix,
		Language:   cfg.Language,
		Balance: balance.Config{
			GuardRatio:              cfg.GuardRatio,
			RoundsToLowPriority:     cfg.RoundsToLowPriority,
			DefaultKickRounds:       cfg.DefaultKickRounds,
			IllegitimateDemotionCap: cfg.IllegitimateDemotionCap,
			RandomDrawAttempts:      cfg.RandomDrawAttempts,
		},
		JoinNoticeCooldown: cfg.JoinNoticeCooldown,
	}
	if storage == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.KeyPrefix = cfg.RedisKeyPrefix
		fc.RedisConfig = &redisCfg
	}
	return fc
}
