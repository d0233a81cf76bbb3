package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"healthdash/internal/amqp"
	"healthdash/internal/core"
	"healthdash/internal/engine"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.EntryLoggedMessage
	err  error
}

func (f *fakePublisher) PublishEntryLogged(_ context.Context, msg *amqp.EntryLoggedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

type exportCall struct {
	userID  string
	day     time.Time
	summary engine.DailySummary
}

type fakeExporter struct {
	mu    sync.Mutex
	calls []exportCall
	err   error
}

func (f *fakeExporter) ExportDay(_ context.Context, userID string, day time.Time, s engine.DailySummary) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, exportCall{userID: userID, day: day, summary: s})
	return "Daily!A2", nil
}

func (f *fakeExporter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type invalidation struct {
	userID string
	day    time.Time
}

type fakeInvalidator struct {
	calls []invalidation
}

func (f *fakeInvalidator) InvalidateUser(_ context.Context, userID string) {
	f.calls = append(f.calls, invalidation{userID: userID})
}

func (f *fakeInvalidator) InvalidateDay(_ context.Context, userID string, day time.Time, _ *time.Location) {
	f.calls = append(f.calls, invalidation{userID: userID, day: day})
}

var errStore = errors.New("store unavailable")

// failingReader fails every list call.
type failingReader struct{}

func (failingReader) ListMeals(context.Context, string, core.TimeRange) ([]core.MealEntry, error) {
	return nil, errStore
}

func (failingReader) ListWorkouts(context.Context, string, core.TimeRange) ([]core.WorkoutEntry, error) {
	return nil, errStore
}

func (failingReader) ListWater(context.Context, string, core.TimeRange) ([]core.WaterEvent, error) {
	return nil, errStore
}

// countingReader wraps a reader and counts meal list calls. onMeals, when
// set, runs inside each meal list call.
type countingReader struct {
	inner interface {
		ListMeals(context.Context, string, core.TimeRange) ([]core.MealEntry, error)
		ListWorkouts(context.Context, string, core.TimeRange) ([]core.WorkoutEntry, error)
		ListWater(context.Context, string, core.TimeRange) ([]core.WaterEvent, error)
	}
	mu      sync.Mutex
	meals   int
	onMeals func()
}

func (c *countingReader) ListMeals(ctx context.Context, u string, r core.TimeRange) ([]core.MealEntry, error) {
	c.mu.Lock()
	c.meals++
	hook := c.onMeals
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
	return c.inner.ListMeals(ctx, u, r)
}

func (c *countingReader) ListWorkouts(ctx context.Context, u string, r core.TimeRange) ([]core.WorkoutEntry, error) {
	return c.inner.ListWorkouts(ctx, u, r)
}

func (c *countingReader) ListWater(ctx context.Context, u string, r core.TimeRange) ([]core.WaterEvent, error) {
	return c.inner.ListWater(ctx, u, r)
}
