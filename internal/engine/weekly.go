package engine

import (
	"time"

	"healthdash/internal/core"
)

// DayStats are the totals and score of a single day in a report.
type DayStats struct {
	Day             time.Time `json:"day"`
	Calories        int       `json:"calories"`
	ExerciseMinutes int       `json:"exercise_minutes"`
	Glasses         float64   `json:"glasses"`
	Score           int       `json:"score"`
	WaterGoalMet    bool      `json:"water_goal_met"`
	ExerciseGoalMet bool      `json:"exercise_goal_met"`
	CaloriesInRange bool      `json:"calories_in_range"`
}

// WeeklyReport summarizes a run of consecutive days.
type WeeklyReport struct {
	Days                 []DayStats           `json:"days"`
	TotalCalories        int                  `json:"total_calories"`
	TotalExerciseMinutes int                  `json:"total_exercise_minutes"`
	TotalGlasses         float64              `json:"total_glasses"`
	AvgCalories          float64              `json:"avg_calories"`
	AvgExerciseMinutes   float64              `json:"avg_exercise_minutes"`
	AvgGlasses           float64              `json:"avg_glasses"`
	AvgScore             float64              `json:"avg_score"`
	WaterGoalDays        int                  `json:"water_goal_days"`
	ExerciseGoalDays     int                  `json:"exercise_goal_days"`
	CalorieRangeDays     int                  `json:"calorie_range_days"`
	Workouts             WorkoutTypeBreakdown `json:"workouts"`
	Skipped              []*InvalidEntryError `json:"skipped,omitempty"`
}

// ComputeWeek splits entries into the given days and computes per-day stats
// and averages over all days, including days with no entries. Entries outside
// every day are ignored.
func ComputeWeek(e Entries, g core.Goals, days []core.TimeRange) (WeeklyReport, error) {
	if err := checkGoals(g); err != nil {
		return WeeklyReport{}, err
	}

	buckets := make([]Entries, len(days))
	var inRange []core.WorkoutEntry
	for _, m := range e.Meals {
		if i := dayIndex(days, m.LoggedAt); i >= 0 {
			buckets[i].Meals = append(buckets[i].Meals, m)
		}
	}
	for _, w := range e.Workouts {
		if i := dayIndex(days, w.LoggedAt); i >= 0 {
			buckets[i].Workouts = append(buckets[i].Workouts, w)
			inRange = append(inRange, w)
		}
	}
	for _, w := range e.Water {
		if i := dayIndex(days, w.LoggedAt); i >= 0 {
			buckets[i].Water = append(buckets[i].Water, w)
		}
	}

	report := WeeklyReport{
		Days:     make([]DayStats, 0, len(days)),
		Workouts: ComputeWorkoutTypeBreakdown(inRange),
	}
	totalScore := 0
	for i, day := range days {
		totals, skipped := Aggregate(buckets[i])
		report.Skipped = append(report.Skipped, skipped...)

		p := progressFromTotals(totals, g)
		score := ComputeScore(p)
		status := ComputeCalorieStatus(p)

		stats := DayStats{
			Day:             day.Start,
			Calories:        totals.CaloriesConsumed,
			ExerciseMinutes: totals.ExerciseMinutes,
			Glasses:         totals.Glasses(),
			Score:           score.Score,
			WaterGoalMet:    p.WaterPct >= 100,
			ExerciseGoalMet: p.ExercisePct >= 100,
			CaloriesInRange: status.InRange,
		}
		report.Days = append(report.Days, stats)

		report.TotalCalories += stats.Calories
		report.TotalExerciseMinutes += stats.ExerciseMinutes
		report.TotalGlasses += stats.Glasses
		totalScore += stats.Score
		if stats.WaterGoalMet {
			report.WaterGoalDays++
		}
		if stats.ExerciseGoalMet {
			report.ExerciseGoalDays++
		}
		if stats.CaloriesInRange {
			report.CalorieRangeDays++
		}
	}

	if n := float64(len(days)); n > 0 {
		report.AvgCalories = float64(report.TotalCalories) / n
		report.AvgExerciseMinutes = float64(report.TotalExerciseMinutes) / n
		report.AvgGlasses = report.TotalGlasses / n
		report.AvgScore = float64(totalScore) / n
	}
	return report, nil
}

func dayIndex(days []core.TimeRange, t time.Time) int {
	for i, d := range days {
		if d.Contains(t) {
			return i
		}
	}
	return -1
}
