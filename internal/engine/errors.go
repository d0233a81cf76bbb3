package engine

import (
	"errors"
	"fmt"
	"math"

	"healthdash/internal/core"
)

// ErrInvalidEntry matches every *InvalidEntryError via errors.Is.
var ErrInvalidEntry = errors.New("invalid entry")

type (
	// GoalMetric names the goal a percentage is computed against.
	GoalMetric string

	// EntryKind names the kind of logged entry.
	EntryKind string
)

const (
	MetricWater    GoalMetric = "water"
	MetricCalories GoalMetric = "calories"
	MetricExercise GoalMetric = "exercise"
)

const (
	KindMeal    EntryKind = "meal"
	KindWorkout EntryKind = "workout"
	KindWater   EntryKind = "water"
)

// InvalidGoalError is returned when a goal denominator is zero or negative.
type InvalidGoalError struct {
	Metric GoalMetric
	Value  int
}

func (e *InvalidGoalError) Error() string {
	return fmt.Sprintf("invalid %s goal %d: must be positive", e.Metric, e.Value)
}

func (e *InvalidGoalError) Unwrap() error {
	return core.ErrInvalidGoal
}

// InvalidEntryError reports a single entry that was skipped.
type InvalidEntryError struct {
	Kind  EntryKind `json:"kind"`
	ID    string    `json:"id"`
	Field string    `json:"field"`
	Err   error     `json:"-"`
}

func (e *InvalidEntryError) Error() string {
	return fmt.Sprintf("invalid %s entry %q: %s: %v", e.Kind, e.ID, e.Field, e.Err)
}

func (e *InvalidEntryError) Unwrap() []error {
	return []error{ErrInvalidEntry, e.Err}
}

func checkGoals(g core.Goals) error {
	switch {
	case g.WaterGlasses <= 0:
		return &InvalidGoalError{Metric: MetricWater, Value: g.WaterGlasses}
	case g.Calories <= 0:
		return &InvalidGoalError{Metric: MetricCalories, Value: g.Calories}
	case g.ExerciseMinutes <= 0:
		return &InvalidGoalError{Metric: MetricExercise, Value: g.ExerciseMinutes}
	}
	return nil
}

func checkMeal(m core.MealEntry) *InvalidEntryError {
	if m.Calories < 0 {
		return &InvalidEntryError{Kind: KindMeal, ID: m.ID, Field: "calories", Err: core.ErrInvalidCalories}
	}
	if m.Calories > core.MaxEntryCalories {
		return &InvalidEntryError{Kind: KindMeal, ID: m.ID, Field: "calories", Err: core.ErrTooManyCalories}
	}
	if !m.Category.Valid() {
		return &InvalidEntryError{Kind: KindMeal, ID: m.ID, Field: "category", Err: core.ErrInvalidMealCategory}
	}
	return nil
}

func checkWorkout(w core.WorkoutEntry) *InvalidEntryError {
	if w.DurationMinutes < 0 {
		return &InvalidEntryError{Kind: KindWorkout, ID: w.ID, Field: "duration", Err: core.ErrInvalidDuration}
	}
	if w.DurationMinutes > core.MaxEntryMinutes {
		return &InvalidEntryError{Kind: KindWorkout, ID: w.ID, Field: "duration", Err: core.ErrDurationTooLong}
	}
	if w.CaloriesBurned < 0 {
		return &InvalidEntryError{Kind: KindWorkout, ID: w.ID, Field: "calories_burned", Err: core.ErrInvalidCalories}
	}
	if w.CaloriesBurned > core.MaxEntryCalories {
		return &InvalidEntryError{Kind: KindWorkout, ID: w.ID, Field: "calories_burned", Err: core.ErrTooManyCalories}
	}
	return nil
}

func checkWater(w core.WaterEvent) *InvalidEntryError {
	if w.VolumeMl < 0 || math.IsNaN(w.VolumeMl) || math.IsInf(w.VolumeMl, 0) {
		return &InvalidEntryError{Kind: KindWater, ID: w.ID, Field: "volume", Err: core.ErrInvalidVolume}
	}
	if w.VolumeMl > core.MaxEntryVolumeMl {
		return &InvalidEntryError{Kind: KindWater, ID: w.ID, Field: "volume", Err: core.ErrVolumeTooLarge}
	}
	return nil
}
