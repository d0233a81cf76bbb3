// Package engine computes daily progress, scores, tips and breakdowns from
// logged entries and goals.
//
// Every function is pure: no I/O, no shared state. Callers fetch entries for
// the window they care about and pass them in together with the user's goals.
package engine

import (
	"math"

	"healthdash/internal/core"
)

// Entries is the set of logged records for one computation window.
type Entries struct {
	Meals    []core.MealEntry
	Workouts []core.WorkoutEntry
	Water    []core.WaterEvent
}

// Totals are the sums over the valid entries of a window.
type Totals struct {
	Meals            int     `json:"meals"`
	Workouts         int     `json:"workouts"`
	WaterEvents      int     `json:"water_events"`
	CaloriesConsumed int     `json:"calories_consumed"`
	CaloriesBurned   int     `json:"calories_burned"`
	ExerciseMinutes  int     `json:"exercise_minutes"`
	WaterMl          float64 `json:"water_ml"`
}

// Glasses returns the water total in glasses, fraction included.
func (t Totals) Glasses() float64 {
	return t.WaterMl / core.GlassVolumeMl
}

// WholeGlasses returns the water total in full glasses.
func (t Totals) WholeGlasses() int {
	return core.WholeGlasses(t.WaterMl)
}

// ProgressSnapshot holds per-metric progress against goals.
//
// CaloriePct is not capped so callers can show over-goal intake; use
// ScoringCaloriePct when averaging.
type ProgressSnapshot struct {
	WaterPct     int                  `json:"water_pct"`
	CaloriePct   int                  `json:"calorie_pct"`
	ExercisePct  int                  `json:"exercise_pct"`
	CalorieRatio float64              `json:"calorie_ratio"`
	Totals       Totals               `json:"totals"`
	Goals        core.Goals           `json:"goals"`
	Skipped      []*InvalidEntryError `json:"skipped,omitempty"`
}

// ScoringCaloriePct is the calorie percentage capped at 100.
func (p ProgressSnapshot) ScoringCaloriePct() int {
	return min(p.CaloriePct, 100)
}

// AboveCalorieGoal reports whether intake exceeds the calorie goal.
func (p ProgressSnapshot) AboveCalorieGoal() bool {
	return p.CalorieRatio > 1
}

// BarPct clamps a percentage to [0, 100] for progress bars.
func BarPct(pct int) int {
	return max(0, min(pct, 100))
}

// Aggregate sums the entries, skipping and reporting invalid ones.
func Aggregate(e Entries) (Totals, []*InvalidEntryError) {
	var (
		t       Totals
		skipped []*InvalidEntryError
	)
	for _, m := range e.Meals {
		if bad := checkMeal(m); bad != nil {
			skipped = append(skipped, bad)
			continue
		}
		t.Meals++
		t.CaloriesConsumed += m.Calories
	}
	for _, w := range e.Workouts {
		if bad := checkWorkout(w); bad != nil {
			skipped = append(skipped, bad)
			continue
		}
		t.Workouts++
		t.ExerciseMinutes += w.DurationMinutes
		t.CaloriesBurned += w.CaloriesBurned
	}
	for _, w := range e.Water {
		if bad := checkWater(w); bad != nil {
			skipped = append(skipped, bad)
			continue
		}
		t.WaterEvents++
		t.WaterMl += w.VolumeMl
	}
	return t, skipped
}

// ComputeProgress returns progress percentages for the entries against g.
// A goal that is zero or negative yields *InvalidGoalError.
func ComputeProgress(e Entries, g core.Goals) (ProgressSnapshot, error) {
	if err := checkGoals(g); err != nil {
		return ProgressSnapshot{}, err
	}
	totals, skipped := Aggregate(e)
	p := progressFromTotals(totals, g)
	p.Skipped = skipped
	return p, nil
}

// progressFromTotals assumes g has already been checked.
func progressFromTotals(t Totals, g core.Goals) ProgressSnapshot {
	ratio := float64(t.CaloriesConsumed) / float64(g.Calories)
	return ProgressSnapshot{
		WaterPct:     percent(t.Glasses(), float64(g.WaterGlasses)),
		CaloriePct:   percent(float64(t.CaloriesConsumed), float64(g.Calories)),
		ExercisePct:  percent(float64(t.ExerciseMinutes), float64(g.ExerciseMinutes)),
		CalorieRatio: ratio,
		Totals:       t,
		Goals:        g,
	}
}

// maxPct caps percentages before the int conversion. Any total that far over
// its goal renders the same.
const maxPct = 1_000_000

// percent rounds value/goal to a whole percentage in [0, maxPct].
func percent(value, goal float64) int {
	pct := math.Round(value / goal * 100)
	switch {
	case math.IsNaN(pct) || pct <= 0:
		return 0
	case pct >= maxPct:
		return maxPct
	}
	return int(pct)
}
