package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"healthdash/internal/core"
	"healthdash/internal/store"
)

func TestStoreListsNewestFirstWithinRange(t *testing.T) {
	ctx := context.Background()
	s := New()
	day := core.DayRange(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), time.UTC)

	at := func(h int) time.Time { return day.Start.Add(time.Duration(h) * time.Hour) }
	for _, m := range []core.MealEntry{
		{ID: "m1", UserID: "u1", Name: "Oats", Category: core.Breakfast, Calories: 300, LoggedAt: at(8)},
		{ID: "m2", UserID: "u1", Name: "Pasta", Category: core.Dinner, Calories: 700, LoggedAt: at(20)},
		{ID: "m3", UserID: "u1", Name: "Salad", Category: core.Lunch, Calories: 400, LoggedAt: at(13)},
		{ID: "m4", UserID: "u2", Name: "Other user", Category: core.Lunch, Calories: 400, LoggedAt: at(13)},
		{ID: "m5", UserID: "u1", Name: "Tomorrow", Category: core.Snack, Calories: 100, LoggedAt: at(25)},
	} {
		if err := s.AddMeal(ctx, m); err != nil {
			t.Fatalf("AddMeal: %v", err)
		}
	}

	got, err := s.ListMeals(ctx, "u1", day)
	if err != nil {
		t.Fatalf("ListMeals: %v", err)
	}
	want := []string{"m2", "m3", "m1"}
	if len(got) != len(want) {
		t.Fatalf("got %d meals, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("meal[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestStoreWorkoutsAndWater(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	day := core.DayRange(now, time.UTC)

	_ = s.AddWorkout(ctx, core.WorkoutEntry{ID: "w1", UserID: "u1", Name: "Run", Category: core.Cardio, DurationMinutes: 30, LoggedAt: now})
	_ = s.AddWater(ctx, core.WaterEvent{ID: "h1", UserID: "u1", VolumeMl: 250, LoggedAt: now})
	_ = s.AddWater(ctx, core.WaterEvent{ID: "h2", UserID: "u1", VolumeMl: 500, LoggedAt: now.Add(time.Hour)})

	workouts, _ := s.ListWorkouts(ctx, "u1", day)
	if len(workouts) != 1 || workouts[0].ID != "w1" {
		t.Errorf("unexpected workouts: %+v", workouts)
	}
	water, _ := s.ListWater(ctx, "u1", day)
	if len(water) != 2 || water[0].ID != "h2" {
		t.Errorf("unexpected water: %+v", water)
	}

	empty, _ := s.ListWater(ctx, "nobody", day)
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestStoreGoals(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, found, err := s.GetGoals(ctx, "u1"); err != nil || found {
		t.Fatalf("GetGoals on empty store: found=%v err=%v", found, err)
	}

	g := core.Goals{WaterGlasses: 10, Calories: 1800, ExerciseMinutes: 45}
	if err := s.SaveGoals(ctx, "u1", g); err != nil {
		t.Fatalf("SaveGoals: %v", err)
	}
	got, found, err := s.GetGoals(ctx, "u1")
	if err != nil || !found || got != g {
		t.Errorf("GetGoals = %+v found=%v err=%v", got, found, err)
	}

	if err := s.SaveGoals(ctx, "u1", core.Goals{}); !errors.Is(err, core.ErrInvalidGoal) {
		t.Errorf("SaveGoals with zero goals = %v, want ErrInvalidGoal", err)
	}
}

func TestStoreUsers(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := core.User{ID: "u1", Email: "ana@example.com", PasswordHash: "x"}

	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := s.CreateUser(ctx, core.User{ID: "u2", Email: "ANA@example.com"}); !errors.Is(err, store.ErrConflict) {
		t.Errorf("duplicate email = %v, want ErrConflict", err)
	}

	got, err := s.GetUserByEmail(ctx, "Ana@Example.com")
	if err != nil || got.ID != "u1" {
		t.Errorf("GetUserByEmail = %+v, %v", got, err)
	}
	if _, err := s.GetUserByID(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetUserByID(missing) = %v, want ErrNotFound", err)
	}
}
