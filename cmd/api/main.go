package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/jobportal/profile-sync/internal/api/http"
	"github.com/jobportal/profile-sync/internal/api/http/handlers"
	"github.com/jobportal/profile-sync/internal/config"
	"github.com/jobportal/profile-sync/internal/observability"
	"github.com/jobportal/profile-sync/internal/persistence"
	"github.com/jobportal/profile-sync/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		pg       *persistence.Postgres
		profiles repository.ProfileRepository
	)
	if cfg.Postgres.DSN != "" {
		pg, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		profiles = repository.NewPostgresProfileRepository(pg.PoolHandle())
	} else {
		logger.Warn("POSTGRES_DSN not provided; profiles are kept in memory")
		profiles = repository.NewMemoryProfileRepository()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	server := httptransport.NewServer(httptransport.ServerDependencies{
		Config:     *cfg,
		Logger:     logger,
		Metrics:    metrics,
		Profiles:   profiles,
		StatsCache: repository.NewRedisStatsCache(redis.Client),
		Health: map[string]handlers.Dependency{
			"postgres": pg,
			"redis":    redis,
		},
	})

	if err := server.Auth.EnsureBootstrapAdmin(ctx, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminPassword); err != nil {
		logger.Fatal("failed to create bootstrap admin", zap.Error(err))
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("base_path", cfg.App.BasePath))
		if err := server.App.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := server.App.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
