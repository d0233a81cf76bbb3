package memory

import (
	"context"
	"testing"
	"time"

	"healthdash/internal/core"
	"healthdash/internal/engine"
)

func TestStoreExportDayUpserts(t *testing.T) {
	s := New()
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	sum := engine.DailySummary{Score: engine.ScoreResult{Score: 40}}

	ref, err := s.ExportDay(context.Background(), "u1", day, sum)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected export: ref=%q err=%v", ref, err)
	}
	ref, _ = s.ExportDay(context.Background(), "u2", day, sum)
	if ref != "mem:2" {
		t.Fatalf("second user should get a new row, got %q", ref)
	}

	sum.Score.Score = 90
	sum.Progress.Goals = core.Goals{WaterGlasses: 8, Calories: 2000, ExerciseMinutes: 30}
	ref, err = s.ExportDay(context.Background(), "u1", day, sum)
	if err != nil || ref != "mem:1" {
		t.Fatalf("re-export should replace row 1: ref=%q err=%v", ref, err)
	}

	rows := s.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "u1|2024-05-01" || rows[0][3] != 90 {
		t.Errorf("unexpected row: %v", rows[0])
	}
}

func TestStoreExportDayRequiresUser(t *testing.T) {
	if _, err := New().ExportDay(context.Background(), "", time.Now(), engine.DailySummary{}); err == nil {
		t.Fatal("expected error for missing user")
	}
}
