package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"healthdash/internal/cache"
	"healthdash/internal/core"
	"healthdash/internal/engine"
	"healthdash/internal/store/memory"
)

var testDefaults = core.Goals{WaterGlasses: 8, Calories: 2000, ExerciseMinutes: 30}

func seed(t *testing.T, st *memory.Store, day time.Time) {
	t.Helper()
	ctx := context.Background()
	meals := []core.MealEntry{
		{ID: "m1", UserID: "u1", Name: "Eggs", Category: core.Breakfast, Calories: 400, LoggedAt: day.Add(8 * time.Hour)},
		{ID: "m2", UserID: "u1", Name: "Pasta", Category: core.Lunch, Calories: 700, LoggedAt: day.Add(13 * time.Hour)},
		{ID: "m3", UserID: "u2", Name: "Other user", Category: core.Lunch, Calories: 900, LoggedAt: day.Add(13 * time.Hour)},
	}
	for _, m := range meals {
		if err := st.AddMeal(ctx, m); err != nil {
			t.Fatalf("AddMeal: %v", err)
		}
	}
	if err := st.AddWorkout(ctx, core.WorkoutEntry{ID: "w1", UserID: "u1", Name: "Run", Category: core.Cardio, DurationMinutes: 30, Intensity: core.IntensityHigh, LoggedAt: day.Add(18 * time.Hour)}); err != nil {
		t.Fatalf("AddWorkout: %v", err)
	}
	for i, at := range []time.Duration{9 * time.Hour, 12 * time.Hour} {
		w := core.WaterEvent{ID: "water" + string(rune('a'+i)), UserID: "u1", VolumeMl: 500, LoggedAt: day.Add(at)}
		if err := st.AddWater(ctx, w); err != nil {
			t.Fatalf("AddWater: %v", err)
		}
	}
}

func TestDashboardService_Day(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	seed(t, st, day)

	s := NewDashboardService(st, NewGoalService(st, testDefaults), nil, nil)
	v, err := s.Day(ctx, testUser, day.Add(15*time.Hour))
	if err != nil {
		t.Fatalf("Day: %v", err)
	}

	if !v.Day.Equal(day) {
		t.Errorf("Day = %v, want %v", v.Day, day)
	}
	if v.CustomGoals {
		t.Error("expected default goals")
	}
	if v.Goals != testDefaults {
		t.Errorf("Goals = %+v, want %+v", v.Goals, testDefaults)
	}
	if len(v.Meals) != 2 || len(v.Workouts) != 1 || len(v.Water) != 2 {
		t.Fatalf("entries = %d meals, %d workouts, %d water", len(v.Meals), len(v.Workouts), len(v.Water))
	}
	if v.Meals[0].ID != "m2" {
		t.Errorf("meals should be newest first, got %s", v.Meals[0].ID)
	}

	p := v.Summary.Progress
	if p.Totals.CaloriesConsumed != 1100 {
		t.Errorf("CaloriesConsumed = %d, want 1100", p.Totals.CaloriesConsumed)
	}
	if p.WaterPct != 50 {
		t.Errorf("WaterPct = %d, want 50", p.WaterPct)
	}
	if p.ExercisePct != 100 {
		t.Errorf("ExercisePct = %d, want 100", p.ExercisePct)
	}
	if p.CaloriePct != 55 {
		t.Errorf("CaloriePct = %d, want 55", p.CaloriePct)
	}
}

func TestDashboardService_DayUsesSavedGoals(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	custom := core.Goals{WaterGlasses: 4, Calories: 1100, ExerciseMinutes: 60}
	if err := st.SaveGoals(ctx, "u1", custom); err != nil {
		t.Fatalf("SaveGoals: %v", err)
	}
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	seed(t, st, day)

	s := NewDashboardService(st, NewGoalService(st, testDefaults), nil, nil)
	v, err := s.Day(ctx, testUser, day)
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if !v.CustomGoals || v.Goals != custom {
		t.Errorf("goals = %+v (custom %v), want %+v", v.Goals, v.CustomGoals, custom)
	}
	if v.Summary.Progress.WaterPct != 100 || v.Summary.Progress.CaloriePct != 100 {
		t.Errorf("progress = %+v", v.Summary.Progress)
	}
}

func TestDashboardService_CachesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	reader := &countingReader{inner: st}
	s := NewDashboardService(reader, NewGoalService(st, testDefaults),
		cache.NewLRUCache[DayView](10, time.Minute),
		cache.NewLRUCache[engine.WeeklyReport](10, time.Minute))

	day := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if _, err := s.Day(ctx, testUser, day); err != nil {
		t.Fatalf("Day: %v", err)
	}
	if _, err := s.Day(ctx, testUser, day.Add(time.Hour)); err != nil {
		t.Fatalf("Day: %v", err)
	}
	if reader.meals != 1 {
		t.Fatalf("second read of the same day should hit the cache, got %d reads", reader.meals)
	}

	entries := NewEntryService(st, nil, s)
	if _, err := entries.LogMeal(ctx, testUser, core.MealEntry{Name: "Toast", Category: core.Breakfast, Calories: 200, LoggedAt: day}); err != nil {
		t.Fatalf("LogMeal: %v", err)
	}

	v, err := s.Day(ctx, testUser, day)
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if reader.meals != 2 {
		t.Errorf("logging an entry should invalidate the day, got %d reads", reader.meals)
	}
	if v.Summary.Progress.Totals.CaloriesConsumed != 200 {
		t.Errorf("CaloriesConsumed = %d, want 200", v.Summary.Progress.Totals.CaloriesConsumed)
	}
}

func TestDashboardService_InvalidateDayDropsCoveringWeeks(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	reader := &countingReader{inner: st}
	s := NewDashboardService(reader, NewGoalService(st, testDefaults), nil,
		cache.NewLRUCache[engine.WeeklyReport](10, time.Minute))

	end := time.Date(2024, 5, 7, 12, 0, 0, 0, time.UTC)
	if _, err := s.Week(ctx, testUser, end); err != nil {
		t.Fatalf("Week: %v", err)
	}

	// A day outside the week leaves it cached.
	s.InvalidateDay(ctx, "u1", end.AddDate(0, 0, 1), time.UTC)
	if _, err := s.Week(ctx, testUser, end); err != nil {
		t.Fatalf("Week: %v", err)
	}
	if reader.meals != 1 {
		t.Fatalf("week should still be cached, got %d reads", reader.meals)
	}

	s.InvalidateDay(ctx, "u1", end.AddDate(0, 0, -6), time.UTC)
	if _, err := s.Week(ctx, testUser, end); err != nil {
		t.Fatalf("Week: %v", err)
	}
	if reader.meals != 2 {
		t.Errorf("first day of the week should invalidate it, got %d reads", reader.meals)
	}
}

func TestDashboardService_InvalidateUser(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	reader := &countingReader{inner: st}
	s := NewDashboardService(reader, NewGoalService(st, testDefaults),
		cache.NewLRUCache[DayView](10, time.Minute),
		cache.NewLRUCache[engine.WeeklyReport](10, time.Minute))

	other := core.UserContext{UserID: "u2", Location: time.UTC}
	day := time.Date(2024, 5, 7, 12, 0, 0, 0, time.UTC)
	load := func() {
		t.Helper()
		for _, uc := range []core.UserContext{testUser, other} {
			for _, d := range []time.Time{day, day.AddDate(0, 0, -1)} {
				if _, err := s.Day(ctx, uc, d); err != nil {
					t.Fatalf("Day: %v", err)
				}
			}
		}
	}

	load()
	if reader.meals != 4 {
		t.Fatalf("reads = %d, want 4", reader.meals)
	}

	s.InvalidateUser(ctx, "u1")
	load()
	if reader.meals != 6 {
		t.Errorf("only u1's two days should be recomputed, reads = %d, want 6", reader.meals)
	}
}

func TestDashboardService_InvalidationDuringReadIsNotCached(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	reader := &countingReader{inner: st}
	days := cache.NewLRUCache[DayView](10, time.Minute)
	weeks := cache.NewLRUCache[engine.WeeklyReport](10, time.Minute)
	s := NewDashboardService(reader, NewGoalService(st, testDefaults), days, weeks)

	day := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	reader.onMeals = func() { s.InvalidateDay(ctx, "u1", day, time.UTC) }

	if _, err := s.Day(ctx, testUser, day); err != nil {
		t.Fatalf("Day: %v", err)
	}
	if _, err := s.Week(ctx, testUser, day); err != nil {
		t.Fatalf("Week: %v", err)
	}
	if days.Size() != 0 || weeks.Size() != 0 {
		t.Fatalf("views read across an invalidation were cached: days=%d weeks=%d", days.Size(), weeks.Size())
	}

	reader.onMeals = nil
	if _, err := s.Day(ctx, testUser, day); err != nil {
		t.Fatalf("Day: %v", err)
	}
	if days.Size() != 1 {
		t.Errorf("an undisturbed read should be cached, size = %d", days.Size())
	}
}

func TestDashboardService_Week(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	first := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	seed(t, st, first)
	seed(t, st, first.AddDate(0, 0, 6))
	// Outside the week.
	if err := st.AddMeal(ctx, core.MealEntry{ID: "old", UserID: "u1", Name: "Old", Category: core.Dinner, Calories: 5000, LoggedAt: first.Add(-time.Hour)}); err != nil {
		t.Fatalf("AddMeal: %v", err)
	}

	s := NewDashboardService(st, NewGoalService(st, testDefaults), nil, nil)
	r, err := s.Week(ctx, testUser, first.AddDate(0, 0, 6).Add(20*time.Hour))
	if err != nil {
		t.Fatalf("Week: %v", err)
	}

	if len(r.Days) != WeekDays {
		t.Fatalf("len(Days) = %d, want %d", len(r.Days), WeekDays)
	}
	if !r.Days[0].Day.Equal(first) {
		t.Errorf("first day = %v, want %v", r.Days[0].Day, first)
	}
	if r.TotalCalories != 2200 {
		t.Errorf("TotalCalories = %d, want 2200", r.TotalCalories)
	}
	if r.ExerciseGoalDays != 2 {
		t.Errorf("ExerciseGoalDays = %d, want 2", r.ExerciseGoalDays)
	}
	if cardio, _ := r.Workouts.Get(core.Cardio); cardio.Count != 2 {
		t.Errorf("cardio workouts = %d, want 2", cardio.Count)
	}
}

func TestDashboardService_ReaderError(t *testing.T) {
	st := memory.New()
	s := NewDashboardService(failingReader{}, NewGoalService(st, testDefaults), nil, nil)

	if _, err := s.Today(context.Background(), testUser); !errors.Is(err, errStore) {
		t.Errorf("Today error = %v, want %v", err, errStore)
	}
	if _, err := s.Week(context.Background(), testUser, time.Now()); !errors.Is(err, errStore) {
		t.Errorf("Week error = %v, want %v", err, errStore)
	}
}

func TestGoalService_Update(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	inv := &fakeInvalidator{}
	s := NewGoalService(st, testDefaults)
	s.SetInvalidator(inv)

	if err := s.Update(ctx, testUser, core.Goals{WaterGlasses: 0, Calories: 2000, ExerciseMinutes: 30}); !errors.Is(err, core.ErrInvalidGoal) {
		t.Errorf("error = %v, want %v", err, core.ErrInvalidGoal)
	}
	if len(inv.calls) != 0 {
		t.Error("rejected goals must not invalidate")
	}

	want := core.Goals{WaterGlasses: 10, Calories: 1800, ExerciseMinutes: 45}
	if err := s.Update(ctx, testUser, want); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, custom, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !custom || got != want {
		t.Errorf("Get = %+v (custom %v), want %+v", got, custom, want)
	}
	if len(inv.calls) != 1 {
		t.Errorf("invalidations = %d, want 1", len(inv.calls))
	}

	other, custom, _ := s.Get(ctx, "u2")
	if custom || other != testDefaults {
		t.Errorf("user without goals got %+v (custom %v)", other, custom)
	}
}
