package engine

import "healthdash/internal/core"

// MealTypeStat aggregates the meals of one category.
type MealTypeStat struct {
	Category      core.MealCategory `json:"category"`
	Count         int               `json:"count"`
	TotalCalories int               `json:"total_calories"`
}

// MealTypeBreakdown is ordered breakfast, lunch, dinner, snack and never
// contains an empty category.
type MealTypeBreakdown []MealTypeStat

// Get returns the stat for c, if any meals were logged in it.
func (b MealTypeBreakdown) Get(c core.MealCategory) (MealTypeStat, bool) {
	for _, s := range b {
		if s.Category == c {
			return s, true
		}
	}
	return MealTypeStat{}, false
}

// TotalCalories sums calories across categories.
func (b MealTypeBreakdown) TotalCalories() int {
	total := 0
	for _, s := range b {
		total += s.TotalCalories
	}
	return total
}

// WorkoutTypeStat aggregates the workouts of one category.
type WorkoutTypeStat struct {
	Category       core.WorkoutCategory `json:"category"`
	Count          int                  `json:"count"`
	TotalMinutes   int                  `json:"total_minutes"`
	CaloriesBurned int                  `json:"calories_burned"`
}

// WorkoutTypeBreakdown is ordered cardio, strength, flexibility, sports,
// other and never contains an empty category.
type WorkoutTypeBreakdown []WorkoutTypeStat

// Get returns the stat for c, if any workouts were logged in it.
func (b WorkoutTypeBreakdown) Get(c core.WorkoutCategory) (WorkoutTypeStat, bool) {
	for _, s := range b {
		if s.Category == c {
			return s, true
		}
	}
	return WorkoutTypeStat{}, false
}

// TotalMinutes sums minutes across categories.
func (b WorkoutTypeBreakdown) TotalMinutes() int {
	total := 0
	for _, s := range b {
		total += s.TotalMinutes
	}
	return total
}

// ComputeMealTypeBreakdown groups valid meals by category.
func ComputeMealTypeBreakdown(meals []core.MealEntry) MealTypeBreakdown {
	stats := make(map[core.MealCategory]*MealTypeStat, len(core.MealCategories))
	for _, m := range meals {
		if checkMeal(m) != nil {
			continue
		}
		s, ok := stats[m.Category]
		if !ok {
			s = &MealTypeStat{Category: m.Category}
			stats[m.Category] = s
		}
		s.Count++
		s.TotalCalories += m.Calories
	}

	out := make(MealTypeBreakdown, 0, len(stats))
	for _, c := range core.MealCategories {
		if s, ok := stats[c]; ok {
			out = append(out, *s)
		}
	}
	return out
}

// ComputeWorkoutTypeBreakdown groups valid workouts by category. Workouts
// with an unrecognized category are counted under "other".
func ComputeWorkoutTypeBreakdown(workouts []core.WorkoutEntry) WorkoutTypeBreakdown {
	stats := make(map[core.WorkoutCategory]*WorkoutTypeStat, len(core.WorkoutCategories))
	for _, w := range workouts {
		if checkWorkout(w) != nil {
			continue
		}
		c := w.Category
		if !c.Known() {
			c = core.OtherSport
		}
		s, ok := stats[c]
		if !ok {
			s = &WorkoutTypeStat{Category: c}
			stats[c] = s
		}
		s.Count++
		s.TotalMinutes += w.DurationMinutes
		s.CaloriesBurned += w.CaloriesBurned
	}

	out := make(WorkoutTypeBreakdown, 0, len(stats))
	for _, c := range core.WorkoutCategories {
		if s, ok := stats[c]; ok {
			out = append(out, *s)
		}
	}
	return out
}
