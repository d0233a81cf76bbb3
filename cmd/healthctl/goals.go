package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Show or change daily goals",
}

var goalsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the goals in effect",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			uc, err := a.user(ctx)
			if err != nil {
				return err
			}
			goals, custom, err := a.goals.Get(ctx, uc.UserID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderGoals(goals, custom))
			return nil
		})
	},
}

var (
	goalWater    int
	goalCalories int
	goalExercise int
)

// goalsSetCmd changes only the goals whose flags are given.
var goalsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save new goals",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if !flags.Changed("water") && !flags.Changed("calories") && !flags.Changed("exercise") {
			return fmt.Errorf("nothing to set: pass --water, --calories or --exercise")
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			uc, err := a.user(ctx)
			if err != nil {
				return err
			}
			goals, _, err := a.goals.Get(ctx, uc.UserID)
			if err != nil {
				return err
			}
			if flags.Changed("water") {
				goals.WaterGlasses = goalWater
			}
			if flags.Changed("calories") {
				goals.Calories = goalCalories
			}
			if flags.Changed("exercise") {
				goals.ExerciseMinutes = goalExercise
			}
			if err := a.goals.Update(ctx, uc, goals); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderGoals(goals, true))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(goalsCmd)
	goalsCmd.AddCommand(goalsShowCmd, goalsSetCmd)
	goalsSetCmd.Flags().IntVar(&goalWater, "water", 0, "Glasses of water per day")
	goalsSetCmd.Flags().IntVar(&goalCalories, "calories", 0, "Calories per day")
	goalsSetCmd.Flags().IntVar(&goalExercise, "exercise", 0, "Exercise minutes per day")
}
