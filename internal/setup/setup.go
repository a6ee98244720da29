package setup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/biasnet/influence/internal/database"
	"github.com/biasnet/influence/internal/database/migrations"
	"github.com/biasnet/influence/internal/database/service"
	"github.com/biasnet/influence/internal/redis"
	"github.com/biasnet/influence/internal/setup/config"
	"github.com/biasnet/influence/internal/setup/telemetry"
	"github.com/biasnet/influence/internal/viewcache"
	"github.com/biasnet/influence/pkg/utils"
	"github.com/uptrace/bun/migrate"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.uber.org/zap"
)

// ErrMigrationsPending is returned when the schema is behind and the caller
// declined to migrate.
var ErrMigrationsPending = errors.New("database migrations are pending")

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config     // Application configuration
	ConfigDir    string             // Directory the config was loaded from
	Logger       *zap.Logger        // Main application logger
	DBLogger     *zap.Logger        // Database-specific logger
	DB           database.Client    // Database connection pool
	RedisManager *redis.Manager     // Redis connection manager
	LogManager   *telemetry.Manager // Log management system
	tracing      bool               // Whether uptrace was configured
}

// Options controls optional startup behavior.
type Options struct {
	// AutoMigrate applies pending migrations without asking.
	AutoMigrate bool
	// SkipMigrationCheck connects without inspecting the migration state.
	// Used by the migration tool itself.
	SkipMigrationCheck bool
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context, serviceType telemetry.ServiceType, logDir string, opts Options) (*App, error) {
	// Load app configuration
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Tracing is configured before anything creates spans
	telemetryCfg := cfg.Common.Telemetry
	tracing := telemetryCfg.UptraceDSN != ""
	if tracing {
		uptrace.ConfigureOpentelemetry(
			uptrace.WithDSN(telemetryCfg.UptraceDSN),
			uptrace.WithServiceName(telemetryCfg.ServiceName+"-"+serviceType.String()),
			uptrace.WithServiceVersion(telemetryCfg.ServiceVersion),
		)
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(serviceType, logDir, &cfg.Common.Debug, tracing)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	// Redis manager provides connection pools for various subsystems
	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	cache, err := newPopoverCache(cfg, redisManager, logger)
	if err != nil {
		redisManager.Close()
		return nil, err
	}

	// Initialize database with migration check
	db, err := connectDatabase(ctx, &cfg.Common, cache, dbLogger.Named("database"), opts)
	if err != nil {
		redisManager.Close()
		return nil, err
	}

	logger.Info("Application initialized",
		zap.String("config_dir", configDir),
		zap.Bool("cache_enabled", cache != nil),
		zap.Bool("tracing_enabled", tracing))

	// Bundle all initialized components
	return &App{
		Config:       cfg,
		ConfigDir:    configDir,
		Logger:       logger,
		DBLogger:     dbLogger.Named("database"),
		DB:           db,
		RedisManager: redisManager,
		LogManager:   logManager,
		tracing:      tracing,
	}, nil
}

// Ping reports whether the backing stores are reachable.
func (s *App) Ping(ctx context.Context) error {
	if err := s.DB.DB().PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if s.Config.Common.Cache.Enabled {
		if err := s.RedisManager.Ping(ctx, redis.CacheDBIndex); err != nil {
			return err
		}
	}

	return nil
}

// Cleanup ensures graceful shutdown of all components in reverse initialization order.
// Logs but does not fail on cleanup errors to ensure all components get cleanup attempts.
func (s *App) Cleanup(ctx context.Context) {
	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	// Close database connections
	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	// Close Redis connections last as other components might need it during cleanup
	s.RedisManager.Close()

	// Flush pending spans
	if s.tracing {
		if err := uptrace.Shutdown(ctx); err != nil {
			log.Printf("Failed to shutdown tracing: %v", err)
		}
	}
}

// newPopoverCache returns the Redis popover cache, or nil when caching is off.
func newPopoverCache(cfg *config.Config, redisManager *redis.Manager, logger *zap.Logger) (service.PopoverCache, error) {
	if !cfg.Common.Cache.Enabled {
		return nil, nil //nolint:nilnil // a nil cache disables caching
	}

	client, err := redisManager.GetClient(redis.CacheDBIndex)
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(cfg.Common.Cache.PopoverTTL) * time.Second
	return viewcache.New(client, ttl, logger), nil
}

// connectDatabase opens the database, retrying while it is unreachable, and
// checks whether migrations are pending.
func connectDatabase(
	ctx context.Context, cfg *config.CommonConfig, cache service.PopoverCache, dbLogger *zap.Logger, opts Options,
) (database.Client, error) {
	retryOpts := utils.GetStartupRetryOptions(cfg.Retry.MaxRetries, cfg.Retry.Delay, cfg.Retry.MaxDelay)

	db, err := utils.WithRetry(ctx, func() (database.Client, error) {
		db, err := database.NewConnection(ctx, cfg, cache, dbLogger, false)
		if err != nil {
			return nil, err
		}

		if err := db.DB().PingContext(ctx); err != nil {
			_ = db.Close()
			dbLogger.Warn("Database not reachable yet", zap.Error(err))
			return nil, err
		}

		return db, nil
	}, retryOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if opts.SkipMigrationCheck {
		return db, nil
	}

	migrator := migrate.NewMigrator(db.DB(), migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}

	unapplied := ms.Unapplied()
	if len(unapplied) == 0 {
		return db, nil
	}

	if !opts.AutoMigrate {
		log.Printf("Database migrations are pending (%d). Would you like to run them now? (y/N)", len(unapplied))

		var response string

		_, _ = fmt.Scanln(&response)

		if response != "y" && response != "Y" {
			_ = db.Close()
			return nil, ErrMigrationsPending
		}
	}

	if err := database.Migrate(ctx, db.DB(), dbLogger); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
