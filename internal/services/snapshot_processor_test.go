package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/googleapi"

	"healthdash/internal/amqp"
	"healthdash/internal/core"
	"healthdash/internal/store/memory"
)

func newTestProcessor(t *testing.T, exporter SummaryExporter) (*SnapshotProcessor, *memory.Store) {
	t.Helper()
	st := memory.New()
	dashboard := NewDashboardService(st, NewGoalService(st, testDefaults), nil, nil)
	p := NewSnapshotProcessor(dashboard, exporter, SnapshotProcessorConfig{
		ReconcileInterval: time.Hour,
		Location:          time.UTC,
	})
	return p, st
}

func TestDefaultSnapshotProcessorConfig(t *testing.T) {
	config := DefaultSnapshotProcessorConfig()
	if config.ReconcileInterval != 15*time.Minute {
		t.Errorf("expected ReconcileInterval 15m, got %v", config.ReconcileInterval)
	}
	if config.Location != time.Local {
		t.Errorf("expected local location, got %v", config.Location)
	}

	p := NewSnapshotProcessor(nil, nil, SnapshotProcessorConfig{})
	if p.config.ReconcileInterval != 15*time.Minute || p.config.Location == nil {
		t.Errorf("zero config should fall back to defaults, got %+v", p.config)
	}
}

func TestSnapshotProcessor_HandleEntryLogged(t *testing.T) {
	ctx := context.Background()
	exporter := &fakeExporter{}
	p, st := newTestProcessor(t, exporter)

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if err := st.AddMeal(ctx, core.MealEntry{ID: "m1", UserID: "u1", Name: "Soup", Category: core.Dinner, Calories: 500, LoggedAt: day.Add(19 * time.Hour)}); err != nil {
		t.Fatalf("AddMeal: %v", err)
	}

	msg := amqp.NewEntryLoggedMessage("u1", "meal", "m1", "2024-05-01")
	if err := p.HandleEntryLogged(ctx, msg); err != nil {
		t.Fatalf("HandleEntryLogged: %v", err)
	}

	if exporter.count() != 1 {
		t.Fatalf("exports = %d, want 1", exporter.count())
	}
	call := exporter.calls[0]
	if call.userID != "u1" || !call.day.Equal(day) {
		t.Errorf("exported %s for %v", call.userID, call.day)
	}
	if call.summary.Progress.Totals.CaloriesConsumed != 500 {
		t.Errorf("CaloriesConsumed = %d, want 500", call.summary.Progress.Totals.CaloriesConsumed)
	}
	if p.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", p.Pending())
	}
}

func TestSnapshotProcessor_MalformedDayIsAcked(t *testing.T) {
	exporter := &fakeExporter{}
	p, _ := newTestProcessor(t, exporter)

	msg := amqp.NewEntryLoggedMessage("u1", "meal", "m1", "May 1st")
	if err := p.HandleEntryLogged(context.Background(), msg); err != nil {
		t.Errorf("malformed day should not requeue, got %v", err)
	}
	if exporter.count() != 0 || p.Pending() != 0 {
		t.Errorf("malformed message should be dropped, exports=%d pending=%d", exporter.count(), p.Pending())
	}
}

func TestSnapshotProcessor_ExportErrorRequeues(t *testing.T) {
	p, _ := newTestProcessor(t, &fakeExporter{err: errors.New("quota exceeded")})

	msg := amqp.NewEntryLoggedMessage("u1", "water", "w1", "2024-05-01")
	if err := p.HandleEntryLogged(context.Background(), msg); err == nil {
		t.Error("expected error so the message is requeued")
	}
	if p.Pending() != 0 {
		t.Errorf("failed export should not mark the user, Pending = %d", p.Pending())
	}
}

func TestSnapshotProcessor_PermanentExportErrorIsAcked(t *testing.T) {
	forbidden := &googleapi.Error{Code: http.StatusForbidden, Message: "The caller does not have permission"}
	exporter := &fakeExporter{err: forbidden}
	p, _ := newTestProcessor(t, exporter)

	msg := amqp.NewEntryLoggedMessage("u1", "water", "w1", "2024-05-01")
	if err := p.HandleEntryLogged(context.Background(), msg); err != nil {
		t.Errorf("a rejected export should be acknowledged, got %v", err)
	}
	if p.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", p.Pending())
	}

	exporter.err = &googleapi.Error{Code: http.StatusServiceUnavailable}
	if err := p.HandleEntryLogged(context.Background(), msg); err == nil {
		t.Error("a 503 should requeue the message")
	}
}

func TestSnapshotProcessor_ReconcileDropsRejectedUsers(t *testing.T) {
	exporter := &fakeExporter{err: &googleapi.Error{Code: http.StatusNotFound}}
	p, _ := newTestProcessor(t, exporter)
	p.markDirty("u1")

	if n := p.Reconcile(context.Background()); n != 0 {
		t.Errorf("Reconcile exported %d, want 0", n)
	}
	if p.Pending() != 0 {
		t.Errorf("rejected user should not stay pending, Pending = %d", p.Pending())
	}
}

func TestSnapshotProcessor_Reconcile(t *testing.T) {
	ctx := context.Background()
	exporter := &fakeExporter{}
	p, _ := newTestProcessor(t, exporter)
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	p.markDirty("u1")
	p.markDirty("u2")

	if n := p.Reconcile(ctx); n != 2 {
		t.Errorf("Reconcile exported %d, want 2", n)
	}
	if p.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", p.Pending())
	}
	for _, c := range exporter.calls {
		if !c.day.Equal(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("reconcile should export today, got %v", c.day)
		}
	}

	if n := p.Reconcile(ctx); n != 0 {
		t.Errorf("second pass exported %d, want 0", n)
	}
}

func TestSnapshotProcessor_ReconcileKeepsFailedUsers(t *testing.T) {
	exporter := &fakeExporter{err: errors.New("sheets unavailable")}
	p, _ := newTestProcessor(t, exporter)
	p.markDirty("u1")

	if n := p.Reconcile(context.Background()); n != 0 {
		t.Errorf("Reconcile exported %d, want 0", n)
	}
	if p.Pending() != 1 {
		t.Errorf("failed user should stay pending, Pending = %d", p.Pending())
	}
}

func TestSnapshotProcessor_StartStop(t *testing.T) {
	p, _ := newTestProcessor(t, &fakeExporter{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if p.IsRunning() {
		t.Error("processor should not be running initially")
	}
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Error("expected error when starting already running processor")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if p.IsRunning() {
		t.Error("processor should not be running after Stop")
	}
	if err := p.Stop(stopCtx); err != nil {
		t.Errorf("stopping a stopped processor should be a no-op, got %v", err)
	}
}

func TestSnapshotProcessor_StopTwiceAfterTimeout(t *testing.T) {
	p, _ := newTestProcessor(t, &fakeExporter{})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	expired, cancel := context.WithCancel(context.Background())
	cancel()
	// The loop may or may not have exited yet; either result is fine.
	_ = p.Stop(expired)
	if p.IsRunning() {
		t.Error("processor should not report running after Stop")
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("second Stop = %v, want nil", err)
	}
}

func TestSnapshotProcessor_ConcurrentStop(t *testing.T) {
	p, _ := newTestProcessor(t, &fakeExporter{})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Stop(ctx); err != nil {
				t.Errorf("Stop: %v", err)
			}
		}()
	}
	wg.Wait()

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := p.Stop(ctx); err != nil {
		t.Errorf("Stop after restart: %v", err)
	}
}
