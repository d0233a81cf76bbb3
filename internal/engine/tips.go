package engine

import "healthdash/internal/core"

// TipCategory groups tips by the metric they address.
type TipCategory string

const (
	TipHydration TipCategory = "Hydration"
	TipExercise  TipCategory = "Exercise"
	TipNutrition TipCategory = "Nutrition"
)

// Tip is a short suggestion triggered by an under-goal condition.
type Tip struct {
	Category TipCategory `json:"category"`
	Message  string      `json:"message"`
}

// tipRule pairs a tip with the condition that triggers it. Rules do not
// depend on each other.
type tipRule struct {
	tip     Tip
	applies func(p ProgressSnapshot, meals []core.MealEntry) bool
}

var tipRules = []tipRule{
	{
		tip: Tip{Category: TipHydration, Message: "Try to drink more water throughout the day"},
		applies: func(p ProgressSnapshot, _ []core.MealEntry) bool {
			return p.WaterPct < 75
		},
	},
	{
		tip: Tip{Category: TipExercise, Message: "Consider adding a short walk or stretching session"},
		applies: func(p ProgressSnapshot, _ []core.MealEntry) bool {
			return p.ExercisePct < 50
		},
	},
	{
		tip: Tip{Category: TipNutrition, Message: "Don't forget to log your meals to track your nutrition"},
		applies: func(_ ProgressSnapshot, meals []core.MealEntry) bool {
			return len(meals) == 0
		},
	},
}

// ComputeTips evaluates every rule in order and returns the tips that apply.
func ComputeTips(p ProgressSnapshot, meals []core.MealEntry) []Tip {
	tips := make([]Tip, 0, len(tipRules))
	for _, r := range tipRules {
		if r.applies(p, meals) {
			tips = append(tips, r.tip)
		}
	}
	return tips
}
