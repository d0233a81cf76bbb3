// Package memory is an in-process store used for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"healthdash/internal/core"
	"healthdash/internal/store"
)

type Store struct {
	mu       sync.RWMutex
	meals    []core.MealEntry
	workouts []core.WorkoutEntry
	water    []core.WaterEvent
	goals    map[string]core.Goals
	users    map[string]core.User
}

var _ store.Backend = (*Store)(nil)

func New() *Store {
	return &Store{
		goals: map[string]core.Goals{},
		users: map[string]core.User{},
	}
}

func (s *Store) AddMeal(_ context.Context, m core.MealEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meals = append(s.meals, m)
	return nil
}

func (s *Store) AddWorkout(_ context.Context, w core.WorkoutEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workouts = append(s.workouts, w)
	return nil
}

func (s *Store) AddWater(_ context.Context, w core.WaterEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.water = append(s.water, w)
	return nil
}

func (s *Store) ListMeals(_ context.Context, userID string, r core.TimeRange) ([]core.MealEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterNewestFirst(s.meals, userID, r, func(m core.MealEntry) (string, time.Time) {
		return m.UserID, m.LoggedAt
	}), nil
}

func (s *Store) ListWorkouts(_ context.Context, userID string, r core.TimeRange) ([]core.WorkoutEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterNewestFirst(s.workouts, userID, r, func(w core.WorkoutEntry) (string, time.Time) {
		return w.UserID, w.LoggedAt
	}), nil
}

func (s *Store) ListWater(_ context.Context, userID string, r core.TimeRange) ([]core.WaterEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterNewestFirst(s.water, userID, r, func(w core.WaterEvent) (string, time.Time) {
		return w.UserID, w.LoggedAt
	}), nil
}

func (s *Store) GetGoals(_ context.Context, userID string) (core.Goals, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[userID]
	return g, ok, nil
}

func (s *Store) SaveGoals(_ context.Context, userID string, g core.Goals) error {
	if err := g.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[userID] = g
	return nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return store.ErrConflict
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return store.ErrConflict
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, store.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, id string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func filterNewestFirst[T any](items []T, userID string, r core.TimeRange, key func(T) (string, time.Time)) []T {
	out := make([]T, 0)
	for _, it := range items {
		uid, at := key(it)
		if uid == userID && r.Contains(at) {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		_, a := key(out[i])
		_, b := key(out[j])
		return a.After(b)
	})
	return out
}
