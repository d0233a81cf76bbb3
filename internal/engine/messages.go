package engine

import "fmt"

const goalAchieved = "Goal achieved! ✅"

var waterBands = []struct {
	min     int
	message string
}{
	{100, "Excellent! You've reached your goal! 🎉"},
	{75, "Almost there! Keep it up! 💪"},
	{50, "Great progress! You're halfway there! 🌊"},
	{25, "Good start! Keep drinking! 💧"},
}

// WaterMessage returns the hydration encouragement for a water percentage.
func WaterMessage(waterPct int) string {
	for _, b := range waterBands {
		if waterPct >= b.min {
			return b.message
		}
	}
	return "Let's start hydrating! Your body will thank you! 🚰"
}

// CalorieStatus describes intake relative to the calorie goal.
type CalorieStatus struct {
	InRange bool   `json:"in_range"`
	Text    string `json:"text"`
}

// ComputeCalorieStatus treats 80 to 120 percent of the goal as the target
// range.
func ComputeCalorieStatus(p ProgressSnapshot) CalorieStatus {
	switch {
	case p.CaloriePct >= 80 && p.CaloriePct <= 120:
		return CalorieStatus{InRange: true, Text: "Perfect range! ✅"}
	case p.CaloriePct < 80:
		below := p.Goals.Calories - p.Totals.CaloriesConsumed
		return CalorieStatus{Text: fmt.Sprintf("%d calories below goal", below)}
	default:
		return CalorieStatus{Text: "Above daily goal"}
	}
}

// WaterRemaining returns how many glasses are left before the water goal.
func WaterRemaining(p ProgressSnapshot) string {
	if p.WaterPct >= 100 {
		return goalAchieved
	}
	left := max(p.Goals.WaterGlasses-p.Totals.WholeGlasses(), 1)
	return fmt.Sprintf("%d %s to go", left, plural(left, "glass", "glasses"))
}

// ExerciseRemaining returns how many minutes are left before the exercise goal.
func ExerciseRemaining(p ProgressSnapshot) string {
	if p.ExercisePct >= 100 {
		return goalAchieved
	}
	left := max(p.Goals.ExerciseMinutes-p.Totals.ExerciseMinutes, 1)
	return fmt.Sprintf("%d %s to go", left, plural(left, "minute", "minutes"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
