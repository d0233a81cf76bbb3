// Package cli provides common CLI initialization utilities shared by
// cmd/healthdash, cmd/healthdash-worker and cmd/healthctl.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"healthdash/internal/backend"
	"healthdash/internal/cache"
	"healthdash/internal/config"
	"healthdash/internal/core"
	"healthdash/internal/engine"
	applog "healthdash/internal/log"
	"healthdash/internal/services"
	"healthdash/internal/sheets"
	gsheet "healthdash/internal/sheets/google"
	memsheet "healthdash/internal/sheets/memory"
)

// lruSize bounds the in-process caches used when Redis is not configured.
const lruSize = 1000

// SetupLogger initializes structured logging from the configuration and sets
// it as the default logger.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	logCfg := applog.DefaultConfig()
	logCfg.Component = component
	logCfg.Level = applog.ParseLevel(cfg.LogLevel)
	logCfg.Format = cfg.LogFormat
	logCfg.File = applog.FileConfig{Path: cfg.LogFile, Compress: true}

	logger := applog.New(logCfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// DefaultGoals returns the configured goals for users without saved goals.
func DefaultGoals(cfg *config.Config) core.Goals {
	return core.Goals{
		WaterGlasses:    cfg.DefaultWaterGlasses,
		Calories:        cfg.DefaultCalories,
		ExerciseMinutes: cfg.DefaultExerciseMinutes,
	}
}

// InitBackend creates the configured storage backend, with an AMQP publisher
// attached when AMQP_URL is set.
func InitBackend(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger).CreateBackend(ctx, bcfg)
}

// Caches groups the dashboard caches and the function that releases them.
type Caches struct {
	Days  cache.Cache[services.DayView]
	Weeks cache.Cache[engine.WeeklyReport]
	Close func()
}

// InitCaches returns Redis-backed caches when REDIS_URL is set and reachable,
// and in-process LRU caches otherwise.
func InitCaches(ctx context.Context, logger *slog.Logger, cfg *config.Config) Caches {
	if cfg.RedisURL != "" {
		c, err := redisCaches(ctx, logger, cfg)
		if err == nil {
			logger.InfoContext(ctx, "Using Redis summary cache", "ttl", cfg.CacheTTL)
			return c
		}
		logger.WarnContext(ctx, "Redis unavailable, falling back to in-process cache", "error", err)
	}

	days := cache.NewLRUCache[services.DayView](lruSize, cfg.CacheTTL)
	weeks := cache.NewLRUCache[engine.WeeklyReport](lruSize, cfg.CacheTTL)
	manager := cache.NewManager(logger)
	manager.Register("days", days)
	manager.Register("weeks", weeks)
	manager.StartCleanup(cfg.CacheTTL)
	logger.InfoContext(ctx, "Using in-process summary cache", "ttl", cfg.CacheTTL, "max_entries", lruSize)
	return Caches{Days: days, Weeks: weeks, Close: manager.Stop}
}

// InitSharedCaches returns the Redis caches other processes read from, and
// false when REDIS_URL is unset or unreachable. Tools that write entries use
// them to invalidate what the web server has cached.
func InitSharedCaches(ctx context.Context, logger *slog.Logger, cfg *config.Config) (Caches, bool) {
	if cfg.RedisURL == "" {
		return Caches{}, false
	}
	c, err := redisCaches(ctx, logger, cfg)
	if err != nil {
		logger.WarnContext(ctx, "Redis unavailable, cached summaries will expire on their own", "error", err)
		return Caches{}, false
	}
	return c, true
}

func redisCaches(ctx context.Context, logger *slog.Logger, cfg *config.Config) (Caches, error) {
	client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return Caches{}, err
	}
	return Caches{
		Days:  cache.NewRedisCache[services.DayView](client, "healthdash:day", cfg.CacheTTL, logger),
		Weeks: cache.NewRedisCache[engine.WeeklyReport](client, "healthdash:week", cfg.CacheTTL, logger),
		Close: func() { _ = client.Close() },
	}, nil
}

// InitExporter returns the Google Sheets writer when a spreadsheet is
// configured. The second result is false when exports stay in memory.
func InitExporter(ctx context.Context, cfg *config.Config) (sheets.SummaryWriter, bool, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return memsheet.New(), false, nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, false, fmt.Errorf("initialize google sheets: %w", err)
	}
	return client, true, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		cancel()

		logger.Info("Shutdown complete")
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
