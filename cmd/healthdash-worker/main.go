package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"healthdash/internal/cli"
	"healthdash/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()

	logger := cli.SetupLogger(cfg, "healthdash-worker").Logger
	logger.Info("Starting healthdash-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", "error", err, "timezone", cfg.Timezone)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result, err := cli.InitBackend(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	}()
	if result.Publisher == nil {
		logger.Error("AMQP broker unreachable", "url_set", true)
		os.Exit(1)
	}

	exporter, remote, err := cli.InitExporter(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize summary exporter", "error", err)
		os.Exit(1)
	}
	if remote {
		logger.Info("Google Sheets export enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		logger.Warn("Google Sheets disabled, summaries are kept in memory only")
	}

	// No caches: every export reads the database.
	goals := services.NewGoalService(result.Backend, cli.DefaultGoals(cfg))
	dashboard := services.NewDashboardService(result.Backend, goals, nil, nil)

	processor := services.NewSnapshotProcessor(dashboard, exporter, services.SnapshotProcessorConfig{
		ReconcileInterval: cfg.ReconcileInterval,
		Location:          loc,
	})
	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start snapshot processor", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := result.Publisher.ConsumeEntryLogged(ctx, processor.HandleEntryLogged); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("Shutting down worker...")
	cancel()

	if err := processor.Stop(shutdownCtx); err != nil {
		logger.Warn("Shutdown timeout reached", "error", err)
		return
	}
	if processor.Pending() > 0 {
		processor.Reconcile(shutdownCtx)
	}
	logger.Info("Worker shutdown complete", "pending_users", processor.Pending())
}
