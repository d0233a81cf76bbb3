package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"healthdash/internal/core"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Log meals, workouts and water",
}

var (
	mealName     string
	mealCategory string
	mealCalories int
	mealAt       string
)

var logMealCmd = &cobra.Command{
	Use:   "meal",
	Short: "Log a meal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			uc, err := a.user(ctx)
			if err != nil {
				return err
			}
			at, err := parseAtFlag(mealAt, uc.Loc())
			if err != nil {
				return err
			}
			meal, err := a.entries.LogMeal(ctx, uc, core.MealEntry{
				Name:     mealName,
				Category: core.MealCategory(strings.ToLower(strings.TrimSpace(mealCategory))),
				Calories: mealCalories,
				LoggedAt: at,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %s %q (%d kcal) at %s\n",
				meal.Category, meal.Name, meal.Calories, meal.LoggedAt.In(uc.Loc()).Format("2006-01-02 15:04"))
			return nil
		})
	},
}

var (
	workoutName      string
	workoutCategory  string
	workoutMinutes   int
	workoutBurned    int
	workoutIntensity string
	workoutAt        string
)

var logWorkoutCmd = &cobra.Command{
	Use:   "workout",
	Short: "Log a workout",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			uc, err := a.user(ctx)
			if err != nil {
				return err
			}
			at, err := parseAtFlag(workoutAt, uc.Loc())
			if err != nil {
				return err
			}
			w, err := a.entries.LogWorkout(ctx, uc, core.WorkoutEntry{
				Name:            workoutName,
				Category:        core.WorkoutCategory(strings.ToLower(strings.TrimSpace(workoutCategory))),
				DurationMinutes: workoutMinutes,
				CaloriesBurned:  workoutBurned,
				Intensity:       core.Intensity(strings.ToLower(strings.TrimSpace(workoutIntensity))),
				LoggedAt:        at,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %s %q (%d min, %s) at %s\n",
				w.Category, w.Name, w.DurationMinutes, w.Intensity, w.LoggedAt.In(uc.Loc()).Format("2006-01-02 15:04"))
			return nil
		})
	},
}

var (
	waterGlasses float64
	waterMl      float64
	waterAt      string
)

var logWaterCmd = &cobra.Command{
	Use:   "water",
	Short: "Log water intake in glasses or millilitres",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			uc, err := a.user(ctx)
			if err != nil {
				return err
			}
			at, err := parseAtFlag(waterAt, uc.Loc())
			if err != nil {
				return err
			}
			volume := core.GlassesToMl(waterGlasses)
			if cmd.Flags().Changed("ml") {
				volume = waterMl
			}
			event, err := a.entries.LogWater(ctx, uc, volume, at)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %.0f ml (%s glasses) at %s\n",
				event.VolumeMl, glasses(event.Glasses()), event.LoggedAt.In(uc.Loc()).Format("2006-01-02 15:04"))
			return nil
		})
	},
}

// parseAtFlag reads "YYYY-MM-DD HH:MM" in loc. Empty means now.
func parseAtFlag(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --at %q (expected YYYY-MM-DD HH:MM)", value)
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logMealCmd, logWorkoutCmd, logWaterCmd)

	logMealCmd.Flags().StringVar(&mealName, "name", "", "Meal name")
	logMealCmd.Flags().StringVar(&mealCategory, "category", string(core.Snack), "breakfast, lunch, dinner or snack")
	logMealCmd.Flags().IntVar(&mealCalories, "calories", 0, "Calories")
	logMealCmd.Flags().StringVar(&mealAt, "at", "", "Time YYYY-MM-DD HH:MM (default now)")
	_ = logMealCmd.MarkFlagRequired("name")

	logWorkoutCmd.Flags().StringVar(&workoutName, "name", "", "Workout name")
	logWorkoutCmd.Flags().StringVar(&workoutCategory, "category", string(core.OtherSport), "cardio, strength, flexibility, sports or other")
	logWorkoutCmd.Flags().IntVar(&workoutMinutes, "minutes", 0, "Duration in minutes")
	logWorkoutCmd.Flags().IntVar(&workoutBurned, "burned", 0, "Calories burned, if known")
	logWorkoutCmd.Flags().StringVar(&workoutIntensity, "intensity", string(core.IntensityMedium), "low, medium or high")
	logWorkoutCmd.Flags().StringVar(&workoutAt, "at", "", "Time YYYY-MM-DD HH:MM (default now)")
	_ = logWorkoutCmd.MarkFlagRequired("name")

	logWaterCmd.Flags().Float64Var(&waterGlasses, "glasses", 1, "Glasses of 250 ml")
	logWaterCmd.Flags().Float64Var(&waterMl, "ml", 0, "Volume in millilitres, overrides --glasses")
	logWaterCmd.Flags().StringVar(&waterAt, "at", "", "Time YYYY-MM-DD HH:MM (default now)")
}
