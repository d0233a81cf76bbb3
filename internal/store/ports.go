// Package store defines the persistence ports used by the services.
package store

import (
	"context"
	"errors"

	"healthdash/internal/core"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Ports for outbound adapters.
type (
	EntryWriter interface {
		AddMeal(ctx context.Context, m core.MealEntry) error
		AddWorkout(ctx context.Context, w core.WorkoutEntry) error
		AddWater(ctx context.Context, w core.WaterEvent) error
	}

	// EntryReader lists a user's entries logged within a range, newest first.
	EntryReader interface {
		ListMeals(ctx context.Context, userID string, r core.TimeRange) ([]core.MealEntry, error)
		ListWorkouts(ctx context.Context, userID string, r core.TimeRange) ([]core.WorkoutEntry, error)
		ListWater(ctx context.Context, userID string, r core.TimeRange) ([]core.WaterEvent, error)
	}

	// GoalStore reports found=false when the user never saved goals.
	GoalStore interface {
		GetGoals(ctx context.Context, userID string) (g core.Goals, found bool, err error)
		SaveGoals(ctx context.Context, userID string, g core.Goals) error
	}

	// UserStore returns ErrConflict for a duplicate email and ErrNotFound for
	// unknown users.
	UserStore interface {
		CreateUser(ctx context.Context, u core.User) error
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		GetUserByID(ctx context.Context, id string) (core.User, error)
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}

	// Backend is everything a data backend provides.
	Backend interface {
		EntryWriter
		EntryReader
		GoalStore
		UserStore
		Pinger
	}
)
