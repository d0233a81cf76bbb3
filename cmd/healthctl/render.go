package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"healthdash/internal/core"
	"healthdash/internal/engine"
	"healthdash/internal/services"
)

const barWidth = 20

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(10)

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	toneColors = map[engine.Tone]lipgloss.Color{
		engine.ToneExcellent:   lipgloss.Color("42"),
		engine.ToneGreat:       lipgloss.Color("34"),
		engine.ToneGood:        lipgloss.Color("214"),
		engine.ToneEncouraging: lipgloss.Color("203"),
	}
)

// bar draws a fixed-width progress bar for a percentage clamped to [0, 100].
func bar(pct int) string {
	filled := engine.BarPct(pct) * barWidth / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func metricLine(label string, pct int, detail string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render(label),
		bar(pct),
		fmt.Sprintf(" %3d%%  ", pct),
		mutedStyle.Render(detail),
	)
}

func scoreLine(s engine.ScoreResult) string {
	style := lipgloss.NewStyle().Bold(true).Foreground(toneColors[s.Tone])
	return style.Render(fmt.Sprintf("Score %d", s.Score)) + "  " + s.Message
}

func glasses(g float64) string {
	return fmt.Sprintf("%.1f", g)
}

// renderDay formats a day view for the terminal.
func renderDay(v services.DayView, loc *time.Location) string {
	s := v.Summary
	p := s.Progress
	t := p.Totals

	lines := []string{
		titleStyle.Render(v.Day.In(loc).Format("Monday, 2 January 2006")),
		scoreLine(s.Score),
		"",
		metricLine("Water", p.WaterPct, fmt.Sprintf("%s / %d glasses", glasses(t.Glasses()), v.Goals.WaterGlasses)),
		metricLine("Calories", p.CaloriePct, fmt.Sprintf("%d / %d kcal, %s", t.CaloriesConsumed, v.Goals.Calories, s.Calorie.Text)),
		metricLine("Exercise", p.ExercisePct, fmt.Sprintf("%d / %d min", t.ExerciseMinutes, v.Goals.ExerciseMinutes)),
		"",
		mutedStyle.Render(s.WaterMessage),
	}
	if s.WaterRemaining != "" {
		lines = append(lines, mutedStyle.Render(s.WaterRemaining))
	}
	if s.ExerciseRemaining != "" {
		lines = append(lines, mutedStyle.Render(s.ExerciseRemaining))
	}

	if len(s.Tips) > 0 {
		lines = append(lines, "", titleStyle.Render("Tips"))
		for _, tip := range s.Tips {
			lines = append(lines, fmt.Sprintf("• %s: %s", tip.Category, tip.Message))
		}
	}

	if len(s.Meals) > 0 {
		lines = append(lines, "", titleStyle.Render("Meals"))
		for _, m := range s.Meals {
			lines = append(lines, fmt.Sprintf("%-10s %d × %d kcal", m.Category, m.Count, m.TotalCalories))
		}
	}
	if len(s.Workouts) > 0 {
		lines = append(lines, "", titleStyle.Render("Workouts"))
		for _, w := range s.Workouts {
			lines = append(lines, fmt.Sprintf("%-12s %d × %d min", w.Category, w.Count, w.TotalMinutes))
		}
	}

	if !v.CustomGoals {
		lines = append(lines, "", mutedStyle.Render("Using default goals. Set your own with: healthctl goals set"))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// renderWeek formats a weekly report as one row per day plus averages.
func renderWeek(r engine.WeeklyReport, goals core.Goals, loc *time.Location) string {
	header := fmt.Sprintf("%-10s %6s %8s %8s %8s", "Day", "Score", "Glasses", "Kcal", "Minutes")
	lines := []string{titleStyle.Render("Last 7 days"), mutedStyle.Render(header)}
	for _, d := range r.Days {
		lines = append(lines, fmt.Sprintf("%-10s %6d %8s %8d %8d",
			d.Day.In(loc).Format("Mon 2"), d.Score, glasses(d.Glasses), d.Calories, d.ExerciseMinutes))
	}
	n := len(r.Days)
	lines = append(lines,
		"",
		fmt.Sprintf("Average score %.1f, %.1f glasses, %.0f kcal, %.0f min",
			r.AvgScore, r.AvgGlasses, r.AvgCalories, r.AvgExerciseMinutes),
		fmt.Sprintf("Water goal (%d glasses) met on %d/%d days", goals.WaterGlasses, r.WaterGoalDays, n),
		fmt.Sprintf("Exercise goal (%d min) met on %d/%d days", goals.ExerciseMinutes, r.ExerciseGoalDays, n),
		fmt.Sprintf("Calories within range of %d kcal on %d/%d days", goals.Calories, r.CalorieRangeDays, n),
	)
	if len(r.Skipped) > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("%d invalid entries skipped", len(r.Skipped))))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// renderGoals prints the effective goals and where they come from.
func renderGoals(g core.Goals, custom bool) string {
	source := "defaults"
	if custom {
		source = "saved"
	}
	return strings.Join([]string{
		titleStyle.Render("Goals") + " " + mutedStyle.Render("("+source+")"),
		labelStyle.Render("Water") + fmt.Sprintf("%d glasses (%d ml)", g.WaterGlasses, g.WaterGlasses*core.GlassVolumeMl),
		labelStyle.Render("Calories") + fmt.Sprintf("%d kcal", g.Calories),
		labelStyle.Render("Exercise") + fmt.Sprintf("%d min", g.ExerciseMinutes),
	}, "\n")
}
