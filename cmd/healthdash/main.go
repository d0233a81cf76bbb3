package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"healthdash/internal/auth"
	"healthdash/internal/cli"
	apphttp "healthdash/internal/http"
	"healthdash/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()

	logger := cli.SetupLogger(cfg, "healthdash")
	slogger := logger.Logger

	loc, err := cfg.Location()
	if err != nil {
		slogger.Error("Invalid timezone", "error", err, "timezone", cfg.Timezone)
		os.Exit(1)
	}

	ctx := context.Background()
	result, err := cli.InitBackend(ctx, slogger, cfg)
	if err != nil {
		slogger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	caches := cli.InitCaches(ctx, slogger, cfg)

	goals := services.NewGoalService(result.Backend, cli.DefaultGoals(cfg))
	dashboard := services.NewDashboardService(result.Backend, goals, caches.Days, caches.Weeks)
	goals.SetInvalidator(dashboard)

	// A typed nil *amqp.Client would defeat the service's nil check.
	var publisher services.EntryPublisher
	if result.Publisher != nil {
		publisher = result.Publisher
	} else {
		slogger.Info("AMQP not configured, entries will not be exported")
	}
	entries := services.NewEntryService(result.Backend, publisher, dashboard)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	authService := auth.NewService(result.Backend, tokens)
	sessions := auth.NewMiddleware(tokens, loc, cfg.SecureCookies)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Entries:            entries,
		Dashboard:          dashboard,
		Goals:              goals,
		Auth:               authService,
		Sessions:           sessions,
		Pinger:             result.Backend,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	shutdownCtx, done := cli.GracefulShutdown(slogger, 30*time.Second, func(ctx context.Context) {
		slogger.Info("Shutting down HTTP server")
		if err := srv.Shutdown(ctx); err != nil {
			slogger.Error("HTTP server shutdown error", "error", err)
		}
		caches.Close()
		if err := result.Close(); err != nil {
			slogger.Error("Backend cleanup error", "error", err)
		}
	})

	go func() {
		slogger.Info("Starting healthdash server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(shutdownCtx, done)
}
