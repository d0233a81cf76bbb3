package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"healthdash/internal/auth"
	"healthdash/internal/cli"
	"healthdash/internal/config"
	"healthdash/internal/core"
	applog "healthdash/internal/log"
	"healthdash/internal/services"
	"healthdash/internal/store"
)

var (
	envFile   string
	userEmail string
)

var rootCmd = &cobra.Command{
	Use:           "healthctl",
	Short:         "healthctl reads and logs health dashboard data",
	Long:          "healthctl shows daily and weekly summaries, logs meals, workouts and water, and manages goals and users directly against the configured backend.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVarP(&userEmail, "user", "u", os.Getenv("HEALTHDASH_USER"), "Email of the account to operate on (default $HEALTHDASH_USER)")
}

// app is the wiring shared by every command.
type app struct {
	cfg       *config.Config
	backend   store.Backend
	goals     *services.GoalService
	dashboard *services.DashboardService
	entries   *services.EntryService
	auth      *auth.Service
}

// withApp wires services against the configured backend and releases them
// after run returns. No caches are read so every read hits the database.
func withApp(cmd *cobra.Command, run func(ctx context.Context, a *app) error) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Only warnings reach stderr so command output stays readable.
	logger := applog.New(applog.Config{
		Component: "healthctl",
		Handler:   slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}),
	})
	applog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := cli.InitBackend(ctx, logger.Logger, cfg)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.DataBackend, err)
	}
	defer result.Close()

	var publisher services.EntryPublisher
	if result.Publisher != nil {
		publisher = result.Publisher
	}

	goals := services.NewGoalService(result.Backend, cli.DefaultGoals(cfg))
	dashboard := services.NewDashboardService(result.Backend, goals, nil, nil)

	// Reads bypass the cache, but writes still drop what the web server
	// cached in Redis.
	var invalidator services.DayInvalidator
	if shared, ok := cli.InitSharedCaches(ctx, logger.Logger, cfg); ok {
		defer shared.Close()
		cached := services.NewDashboardService(result.Backend, goals, shared.Days, shared.Weeks)
		goals.SetInvalidator(cached)
		invalidator = cached
	}

	a := &app{
		cfg:       cfg,
		backend:   result.Backend,
		goals:     goals,
		dashboard: dashboard,
		entries:   services.NewEntryService(result.Backend, publisher, invalidator),
		auth:      auth.NewService(result.Backend, auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)),
	}
	return run(ctx, a)
}

// user resolves the --user flag to a caller context in the configured
// timezone.
func (a *app) user(ctx context.Context) (core.UserContext, error) {
	email := strings.ToLower(strings.TrimSpace(userEmail))
	if email == "" {
		return core.UserContext{}, errors.New("--user is required (or set HEALTHDASH_USER)")
	}
	u, err := a.backend.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return core.UserContext{}, fmt.Errorf("no account for %s", email)
	}
	if err != nil {
		return core.UserContext{}, err
	}
	loc, err := a.cfg.Location()
	if err != nil {
		return core.UserContext{}, err
	}
	return core.UserContext{UserID: u.ID, Email: u.Email, Location: loc}, nil
}
