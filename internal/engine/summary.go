package engine

import "healthdash/internal/core"

// DailySummary bundles everything the dashboard shows for one day.
type DailySummary struct {
	Progress          ProgressSnapshot     `json:"progress"`
	Score             ScoreResult          `json:"score"`
	Tips              []Tip                `json:"tips"`
	Meals             MealTypeBreakdown    `json:"meals"`
	Workouts          WorkoutTypeBreakdown `json:"workouts"`
	Calorie           CalorieStatus        `json:"calorie"`
	WaterMessage      string               `json:"water_message"`
	WaterRemaining    string               `json:"water_remaining"`
	ExerciseRemaining string               `json:"exercise_remaining"`
}

// Summarize runs every daily computation over the same entries.
func Summarize(e Entries, g core.Goals) (DailySummary, error) {
	p, err := ComputeProgress(e, g)
	if err != nil {
		return DailySummary{}, err
	}
	return DailySummary{
		Progress:          p,
		Score:             ComputeScore(p),
		Tips:              ComputeTips(p, e.Meals),
		Meals:             ComputeMealTypeBreakdown(e.Meals),
		Workouts:          ComputeWorkoutTypeBreakdown(e.Workouts),
		Calorie:           ComputeCalorieStatus(p),
		WaterMessage:      WaterMessage(p.WaterPct),
		WaterRemaining:    WaterRemaining(p),
		ExerciseRemaining: ExerciseRemaining(p),
	}, nil
}
