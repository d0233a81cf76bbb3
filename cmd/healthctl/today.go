package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"healthdash/internal/core"
)

var (
	todayDate string
	weekEnd   string
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show the day's score, progress and tips",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			uc, err := a.user(ctx)
			if err != nil {
				return err
			}
			day, err := parseDayFlag("--date", todayDate, uc.Loc())
			if err != nil {
				return err
			}
			view, err := a.dashboard.Day(ctx, uc, day)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDay(view, uc.Loc()))
			return nil
		})
	},
}

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show the seven days ending on a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			uc, err := a.user(ctx)
			if err != nil {
				return err
			}
			end, err := parseDayFlag("--end", weekEnd, uc.Loc())
			if err != nil {
				return err
			}
			report, err := a.dashboard.Week(ctx, uc, end)
			if err != nil {
				return err
			}
			goals, _, err := a.goals.Get(ctx, uc.UserID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderWeek(report, goals, uc.Loc()))
			return nil
		})
	},
}

// parseDayFlag reads a YYYY-MM-DD flag, defaulting to today.
func parseDayFlag(name, value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Now().In(loc), nil
	}
	day, err := core.ParseDay(value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q (expected YYYY-MM-DD)", name, value)
	}
	return day, nil
}

func init() {
	rootCmd.AddCommand(todayCmd, weekCmd)
	todayCmd.Flags().StringVar(&todayDate, "date", "", "Date YYYY-MM-DD (default today)")
	weekCmd.Flags().StringVar(&weekEnd, "end", "", "Last day of the week YYYY-MM-DD (default today)")
}
