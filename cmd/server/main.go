// Package main - entry point for the Blen Progress Hub API server.
//
// The server exposes the REST API for recording outdoor activities,
// tracking adventures and academy lessons, joining challenges, and
// taking safety quizzes.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: pure business logic without external dependencies
// - Application: use case orchestration (Commands/Queries)
// - Infrastructure: repositories, caches, external APIs
// - Interface: HTTP handlers and middleware
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

	// Application layer
	"github.com/blen-hub/blen-progress-hub/internal/application/command"
	"github.com/blen-hub/blen-progress-hub/internal/application/query"

	// Domain layer
	"github.com/blen-hub/blen-progress-hub/internal/domain/progress"
	"github.com/blen-hub/blen-progress-hub/internal/domain/quiz"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"

	// Infrastructure layer
	"github.com/blen-hub/blen-progress-hub/internal/infrastructure/external/catalog"
	"github.com/blen-hub/blen-progress-hub/internal/infrastructure/messaging"
	"github.com/blen-hub/blen-progress-hub/internal/infrastructure/persistence/postgres"
	"github.com/blen-hub/blen-progress-hub/internal/infrastructure/persistence/redis"

	// Interface layer
	httpserver "github.com/blen-hub/blen-progress-hub/internal/interface/http"
	"github.com/blen-hub/blen-progress-hub/internal/interface/http/handlers"

	// Packages
	"github.com/blen-hub/blen-progress-hub/pkg/logger"
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
	log.Info("starting Blen Progress Hub API server",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (primary aggregate store + caches)
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
	pendingQuizzes := redis.NewPendingQuizStore(cache)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. POSTGRESQL (durable snapshots, challenge directory, certificates)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		dbConn        *postgres.Connection
		snapshotStore *postgres.SnapshotStore
		challengeDir  *postgres.ChallengeDirectory
	)

	if !cfg.Database.Disabled {
		log.Info("connecting to database...")
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
		log.Info("database connection established")

		log.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")

		snapshotStore = postgres.NewSnapshotStore(dbConn)
		challengeDir = postgres.NewChallengeDirectory(dbConn)
	} else {
		log.Warn("database disabled, running on Redis alone")
	}

	// The durable snapshot store is preferred when available; the Redis
	// document store carries the aggregate otherwise.
	var progressRepo progress.Repository = progressStore
	if snapshotStore != nil {
		progressRepo = snapshotStore
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
	// 6. QUESTION CATALOG
	// ─────────────────────────────────────────────────────────────────────────
	var (
		quizSource    quiz.Source
		catalogClient *catalog.Client
	)

	if cfg.Catalog.BaseURL != "" {
		log.Info("initializing catalog client", "base_url", cfg.Catalog.BaseURL)
		catalogConfig := catalog.DefaultClientConfig(cfg.Catalog.BaseURL)
		catalogConfig.APIKey = cfg.Catalog.APIKey
		catalogConfig.Timeout = cfg.Catalog.RequestTimeout
		catalogConfig.Logger = log
		catalogConfig.Debug = cfg.App.Debug
		catalogClient = catalog.NewClient(catalogConfig)
		quizSource = catalog.NewCachingSource(catalogClient, cache, log)
	} else {
		log.Info("catalog not configured, quiz generation uses the built-in bank")
	}

	quizGenerator := quiz.NewGenerator(quizSource)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. APPLICATION LAYER (Commands and Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	// The archiver is nil without Postgres; certificate archival is
	// then skipped and certificates live on the aggregate only.
	var archiver command.CertificateArchiver
	if snapshotStore != nil {
		archiver = snapshotStore
	}

	recordActivityCmd := command.NewRecordActivityHandler(progressRepo, publisher, log)
	completeAdventureCmd := command.NewCompleteAdventureHandler(progressRepo, publisher, log)
	toggleFavoriteCmd := command.NewToggleFavoriteHandler(progressRepo, publisher, log)
	completeLessonCmd := command.NewCompleteLessonHandler(progressRepo, archiver, publisher, log)
	addGoalCmd := command.NewAddGoalHandler(progressRepo, log)
	updateGoalCmd := command.NewUpdateGoalProgressHandler(progressRepo, publisher, log)
	submitQuizCmd := command.NewSubmitQuizHandler(progressRepo, archiver, publisher, log)

	var joinChallengeCmd *command.JoinChallengeHandler
	if challengeDir != nil {
		joinChallengeCmd = command.NewJoinChallengeHandler(progressRepo, challengeDir, publisher, log)
	}

	progressQuery := query.NewGetProgressHandler(progressRepo)
	statsQuery := query.NewGetStatsHandler(progressRepo)
	leaderboardQuery := query.NewGetLeaderboardHandler(progressRepo, leaderboardCache)
	generateQuizQuery := query.NewGenerateQuizHandler(quizGenerator)

	var globalLeaderboardQuery *query.GetGlobalLeaderboardHandler
	if snapshotStore != nil && cfg.Features.IsEnabled(config.FeatureLeaderboardGlobal, nil) {
		globalLeaderboardQuery = query.NewGetGlobalLeaderboardHandler(snapshotStore)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("redis", handlers.NewPingCheck(cache))
	if dbConn != nil {
		healthChecker.AddCheck("postgres", handlers.NewPingCheck(dbConn))
	}
	if catalogClient != nil {
		healthChecker.AddCheck("catalog", handlers.NewReporterCheck("catalog", catalogClient))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.Server.Host
	httpConfig.Port = cfg.Server.Port
	httpConfig.ReadTimeout = cfg.Server.ReadTimeout
	httpConfig.WriteTimeout = cfg.Server.WriteTimeout
	httpConfig.IdleTimeout = cfg.Server.IdleTimeout
	httpConfig.EnableCORS = cfg.Server.EnableCORS
	httpConfig.AllowedOrigins = cfg.Server.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.Server.RateLimitPerMinute
	httpConfig.APIKeyHashes = cfg.Server.APIKeyHashes
	httpConfig.UserIDHeader = cfg.Server.UserIDHeader

	httpDeps := httpserver.Dependencies{
		RecordActivityHandler:     recordActivityCmd,
		CompleteAdventureHandler:  completeAdventureCmd,
		ToggleFavoriteHandler:     toggleFavoriteCmd,
		CompleteLessonHandler:     completeLessonCmd,
		JoinChallengeHandler:      joinChallengeCmd,
		AddGoalHandler:            addGoalCmd,
		UpdateGoalProgressHandler: updateGoalCmd,
		SubmitQuizHandler:         submitQuizCmd,

		GetProgressHandler:          progressQuery,
		GetStatsHandler:             statsQuery,
		GetLeaderboardHandler:       leaderboardQuery,
		GetGlobalLeaderboardHandler: globalLeaderboardQuery,
		GenerateQuizHandler:         generateQuizQuery,

		PendingQuizzes: pendingQuizzes,
		Logger:         logger.Default(),
		HealthChecker:  healthChecker,
	}
	if challengeDir != nil {
		httpDeps.Challenges = challengeDir
	}

	server := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. START + GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := server.StartAsync()

	log.Info("Blen Progress Hub API server is running",
		"address", server.Address(),
		"auth_enabled", len(cfg.Server.APIKeyHashes) > 0,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			log.Error("server error", "error", err)
			return err
		}
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
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

	// REDIS_URL takes precedence over host/port when set.
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
