// Package main - entry point for the Blen Progress Hub background worker.
//
// The worker runs the periodic maintenance jobs:
// - Sweeping ended challenges out of active lists
// - Rolling over expired daily/weekly/monthly goals
// - Rebuilding the Redis challenge leaderboards
//
// It shares the persistence layer with the API server and coordinates
// through Redis locks so multiple instances never run the same job.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/blen-hub/blen-progress-hub/config"

	// Domain layer
	"github.com/blen-hub/blen-progress-hub/internal/domain/progress"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"

	// Infrastructure layer
	"github.com/blen-hub/blen-progress-hub/internal/infrastructure/messaging"
	"github.com/blen-hub/blen-progress-hub/internal/infrastructure/persistence/postgres"
	"github.com/blen-hub/blen-progress-hub/internal/infrastructure/persistence/redis"
	"github.com/blen-hub/blen-progress-hub/internal/infrastructure/scheduler"
	"github.com/blen-hub/blen-progress-hub/internal/infrastructure/scheduler/jobs"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Blen Progress Hub worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	if !cfg.Scheduler.Enabled {
		log.Warn("scheduler disabled by configuration, nothing to do")
		return nil
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (aggregate store, leaderboards, job locks)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to Redis...")
	cache, err := redis.NewCache(redisConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer func() {
		log.Info("closing Redis connection...")
		_ = cache.Close()
	}()
	log.Info("Redis connection established")

	progressStore := redis.NewProgressStore(cache)
	leaderboardCache := redis.NewLeaderboardCache(cache)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. POSTGRESQL (durable snapshots; the worker sweeps the same store
	//    the API writes to)
	// ─────────────────────────────────────────────────────────────────────────
	var progressRepo progress.Repository = progressStore

	if !cfg.Database.Disabled {
		log.Info("connecting to database...")
		var dbConn *postgres.Connection
		if cfg.Database.URL != "" {
			dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		} else {
			dbConn, err = postgres.NewConnection(ctx, postgresConfig(cfg))
		}
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			dbConn.Close()
		}()

		log.Info("checking database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")

		progressRepo = postgres.NewSnapshotStore(dbConn)
	} else {
		log.Warn("database disabled, sweeping the Redis document store")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	localBusConfig := messaging.DefaultInMemoryEventBusConfig()
	localBusConfig.Logger = log

	var publisher shared.EventPublisher
	eventBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
		Client:         cache.Client(),
		LocalBusConfig: localBusConfig,
		Logger:         log,
	})
	if err != nil {
		log.Warn("failed to create Redis event bus, using in-memory bus", "error", err)
		localBus := messaging.NewInMemoryEventBus(localBusConfig)
		defer func() { _ = localBus.Close() }()
		publisher = localBus
	} else {
		defer func() {
			log.Info("closing event bus...")
			_ = eventBus.Close()
		}()
		publisher = eventBus
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. SCHEDULER + JOBS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing scheduler...")
	sched := scheduler.New(scheduler.Config{
		Logger:   log,
		Timezone: cfg.App.Location,
	})

	if cfg.Features.IsEnabled(config.FeatureChallengesAutoExpire, nil) {
		expireJob := jobs.NewExpireChallengesJob(
			progressRepo, publisher, cache, redis.LockKey("expire_challenges"), log)
		if err := sched.Register(expireJob, scheduler.NewIntervalSchedule(cfg.Scheduler.ExpireChallengesInterval)); err != nil {
			return fmt.Errorf("failed to register expire job: %w", err)
		}
	}

	rolloverJob := jobs.NewRolloverGoalsJob(
		progressRepo, publisher, cache, redis.LockKey("rollover_goals"), log)
	if err := sched.Register(rolloverJob, scheduler.NewDailySchedule(cfg.Scheduler.RolloverHour, cfg.Scheduler.RolloverMinute)); err != nil {
		return fmt.Errorf("failed to register rollover job: %w", err)
	}

	if cfg.Features.IsEnabled(config.FeatureLeaderboardRealtime, nil) {
		rebuildJob := jobs.NewRebuildLeaderboardJob(
			progressRepo, leaderboardCache, cache, redis.LockKey("rebuild_leaderboard"), log)
		if err := sched.Register(rebuildJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildLeaderboardInterval)); err != nil {
			return fmt.Errorf("failed to register rebuild job: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. START + GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	log.Info("Blen Progress Hub worker is running",
		"expire_interval", cfg.Scheduler.ExpireChallengesInterval.String(),
		"rebuild_interval", cfg.Scheduler.RebuildLeaderboardInterval.String(),
		"rollover_at", fmt.Sprintf("%02d:%02d", cfg.Scheduler.RolloverHour, cfg.Scheduler.RolloverMinute),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	log.Info("stopping scheduler, waiting for running jobs...")
	if err := sched.Stop(); err != nil {
		log.Error("failed to stop scheduler gracefully", "error", err)
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger configures structured logging.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Observability.LogLevel),
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// redisConfig maps the application config onto the Redis client config.
func redisConfig(cfg *config.Config) redis.Config {
	rc := redis.DefaultConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.PoolSize = cfg.Redis.PoolSize
	rc.MinIdleConns = cfg.Redis.MinIdleConns
	rc.DialTimeout = cfg.Redis.DialTimeout
	rc.ReadTimeout = cfg.Redis.ReadTimeout
	rc.WriteTimeout = cfg.Redis.WriteTimeout

	if cfg.Redis.URL != "" {
		if host, port, ok := splitHostPort(cfg.Redis.URL); ok {
			rc.Host = host
			rc.Port = port
		}
	}
	return rc
}

// splitHostPort parses "host:port" (with an optional redis:// prefix).
func splitHostPort(addr string) (string, int, bool) {
	addr = strings.TrimPrefix(addr, "redis://")
	host, portStr, ok := strings.Cut(addr, ":")
	if !ok || host == "" {
		return "", 0, false
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return "", 0, false
	}
	return host, port, true
}

// postgresConfig maps the application config onto the Postgres pool config.
func postgresConfig(cfg *config.Config) postgres.Config {
	pc := postgres.DefaultConfig()
	pc.Host = cfg.Database.Host
	pc.Port = cfg.Database.Port
	pc.Database = cfg.Database.Name
	pc.User = cfg.Database.User
	pc.Password = cfg.Database.Password
	pc.SSLMode = cfg.Database.SSLMode
	pc.MaxConns = int32(cfg.Database.MaxConns)
	pc.MinConns = int32(cfg.Database.MinConns)
	pc.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	pc.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
	pc.ConnectTimeout = cfg.Database.ConnectTimeout
	return pc
}
