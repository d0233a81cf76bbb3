package engine

import "math"

// Tone is the qualitative band of an overall score.
type Tone string

const (
	ToneExcellent   Tone = "excellent"
	ToneGreat       Tone = "great"
	ToneGood        Tone = "good"
	ToneEncouraging Tone = "encouraging"
)

// ScoreResult is the overall wellness score for a day.
type ScoreResult struct {
	Score   int    `json:"score"`
	Tone    Tone   `json:"tone"`
	Message string `json:"message"`
}

// toneBands are evaluated top-down; the first inclusive lower bound that the
// score reaches wins.
var toneBands = []struct {
	min  int
	tone Tone
}{
	{90, ToneExcellent},
	{75, ToneGreat},
	{50, ToneGood},
	{math.MinInt, ToneEncouraging},
}

var toneMessages = map[Tone]string{
	ToneExcellent:   "Excellent day! You're crushing your goals! 🌟",
	ToneGreat:       "Great job! You're doing really well today! 👍",
	ToneGood:        "Good progress! Keep pushing forward! 💪",
	ToneEncouraging: "Every step counts! Let's make progress! 🚀",
}

// Message returns the fixed message for the tone.
func (t Tone) Message() string {
	return toneMessages[t]
}

// ToneFor maps a score to its tone.
func ToneFor(score int) Tone {
	for _, b := range toneBands {
		if score >= b.min {
			return b.tone
		}
	}
	return ToneEncouraging
}

// ComputeScore averages water, exercise and capped calorie progress into a
// score in [0, 100].
func ComputeScore(p ProgressSnapshot) ScoreResult {
	total := float64(p.WaterPct + p.ExercisePct + p.ScoringCaloriePct())
	score := int(math.Round(total / 3))
	score = max(0, min(score, 100))

	tone := ToneFor(score)
	return ScoreResult{Score: score, Tone: tone, Message: tone.Message()}
}
