package sheets

import (
	"context"
	"fmt"
	"time"

	"healthdash/internal/engine"
)

// Ports for outbound adapters.
type (
	// SummaryWriter stores one row per user and day, replacing any earlier
	// row for the same pair.
	SummaryWriter interface {
		ExportDay(ctx context.Context, userID string, day time.Time, s engine.DailySummary) (rowRef string, err error)
	}
)

// Header is the first row of every summary sheet.
var Header = []any{
	"Key", "Date", "User", "Score", "Tone",
	"Calories", "Calorie goal", "Calorie %",
	"Glasses", "Water goal", "Exercise min", "Exercise goal",
	"Meals", "Workouts", "Updated",
}

// RowKey identifies a user's day in column A.
func RowKey(userID string, day time.Time) string {
	return fmt.Sprintf("%s|%s", userID, day.Format("2006-01-02"))
}

// BuildRow flattens a summary into sheet cells in Header order.
func BuildRow(userID string, day time.Time, s engine.DailySummary, updated time.Time) []any {
	p := s.Progress
	return []any{
		RowKey(userID, day),
		day.Format("2006-01-02"),
		userID,
		s.Score.Score,
		string(s.Score.Tone),
		p.Totals.CaloriesConsumed,
		p.Goals.Calories,
		p.CaloriePct,
		fmt.Sprintf("%.2f", p.Totals.Glasses()),
		p.Goals.WaterGlasses,
		p.Totals.ExerciseMinutes,
		p.Goals.ExerciseMinutes,
		p.Totals.Meals,
		p.Totals.Workouts,
		updated.UTC().Format(time.RFC3339),
	}
}
