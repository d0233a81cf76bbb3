package services

import (
	"context"
	"fmt"
	"log/slog"

	"healthdash/internal/core"
	applog "healthdash/internal/log"
	"healthdash/internal/store"
)

// GoalService reads and updates per-user goals. Users who never saved goals
// get the configured defaults.
type GoalService struct {
	store       store.GoalStore
	defaults    core.Goals
	invalidator UserInvalidator
}

func NewGoalService(s store.GoalStore, defaults core.Goals) *GoalService {
	return &GoalService{store: s, defaults: defaults}
}

// SetInvalidator registers the cache that must forget the user's views after
// an update.
func (s *GoalService) SetInvalidator(inv UserInvalidator) {
	s.invalidator = inv
}

// Defaults returns the goals used for users without saved goals.
func (s *GoalService) Defaults() core.Goals { return s.defaults }

// Get returns the user's goals and whether they were saved by the user.
func (s *GoalService) Get(ctx context.Context, userID string) (core.Goals, bool, error) {
	g, found, err := s.store.GetGoals(ctx, userID)
	if err != nil {
		return core.Goals{}, false, fmt.Errorf("get goals: %w", err)
	}
	if !found {
		return s.defaults, false, nil
	}
	return g, true, nil
}

// Update validates and saves new goals.
func (s *GoalService) Update(ctx context.Context, uc core.UserContext, g core.Goals) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if err := s.store.SaveGoals(ctx, uc.UserID, g); err != nil {
		return fmt.Errorf("save goals: %w", err)
	}

	slog.InfoContext(ctx, "Goals updated",
		applog.FieldUserID, uc.UserID,
		applog.FieldOperation, applog.OpUpdate,
		"water_glasses", g.WaterGlasses,
		"calories", g.Calories,
		"exercise_minutes", g.ExerciseMinutes)

	if s.invalidator != nil {
		s.invalidator.InvalidateUser(ctx, uc.UserID)
	}
	return nil
}
