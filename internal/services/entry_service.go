package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"healthdash/internal/amqp"
	"healthdash/internal/core"
	"healthdash/internal/engine"
	applog "healthdash/internal/log"
	"healthdash/internal/store"
)

// EntryService validates, stores and announces logged entries.
type EntryService struct {
	writer      store.EntryWriter
	publisher   EntryPublisher
	invalidator DayInvalidator
	now         func() time.Time
}

// NewEntryService accepts a nil publisher or invalidator.
func NewEntryService(writer store.EntryWriter, publisher EntryPublisher, invalidator DayInvalidator) *EntryService {
	return &EntryService{
		writer:      writer,
		publisher:   publisher,
		invalidator: invalidator,
		now:         time.Now,
	}
}

// LogMeal stores a meal for the caller. A zero LoggedAt means now.
func (s *EntryService) LogMeal(ctx context.Context, uc core.UserContext, m core.MealEntry) (core.MealEntry, error) {
	m.ID = uuid.NewString()
	m.UserID = uc.UserID
	m.Name = strings.TrimSpace(m.Name)
	m.LoggedAt = s.stamp(m.LoggedAt)
	if err := m.Validate(); err != nil {
		return core.MealEntry{}, err
	}

	if err := s.writer.AddMeal(ctx, m); err != nil {
		return core.MealEntry{}, fmt.Errorf("save meal: %w", err)
	}
	s.logged(ctx, uc, engine.KindMeal, m.ID, string(m.Category), m.LoggedAt)
	return m, nil
}

// LogWorkout stores a workout for the caller. Intensity defaults to medium.
func (s *EntryService) LogWorkout(ctx context.Context, uc core.UserContext, w core.WorkoutEntry) (core.WorkoutEntry, error) {
	w.ID = uuid.NewString()
	w.UserID = uc.UserID
	w.Name = strings.TrimSpace(w.Name)
	w.Intensity = w.Intensity.OrDefault()
	w.LoggedAt = s.stamp(w.LoggedAt)
	if w.Category == "" {
		w.Category = core.OtherSport
	}
	if err := w.Validate(); err != nil {
		return core.WorkoutEntry{}, err
	}

	if err := s.writer.AddWorkout(ctx, w); err != nil {
		return core.WorkoutEntry{}, fmt.Errorf("save workout: %w", err)
	}
	s.logged(ctx, uc, engine.KindWorkout, w.ID, string(w.Category), w.LoggedAt)
	return w, nil
}

// LogWater stores a water intake event for the caller.
func (s *EntryService) LogWater(ctx context.Context, uc core.UserContext, volumeMl float64, at time.Time) (core.WaterEvent, error) {
	w := core.WaterEvent{
		ID:       uuid.NewString(),
		UserID:   uc.UserID,
		VolumeMl: volumeMl,
		LoggedAt: s.stamp(at),
	}
	if err := w.Validate(); err != nil {
		return core.WaterEvent{}, err
	}

	if err := s.writer.AddWater(ctx, w); err != nil {
		return core.WaterEvent{}, fmt.Errorf("save water: %w", err)
	}
	s.logged(ctx, uc, engine.KindWater, w.ID, "", w.LoggedAt)
	return w, nil
}

func (s *EntryService) stamp(at time.Time) time.Time {
	if at.IsZero() {
		return s.now()
	}
	return at
}

// logged runs after a successful write. Publishing failures are logged but
// never fail the request since the entry is already stored.
func (s *EntryService) logged(ctx context.Context, uc core.UserContext, kind engine.EntryKind, id, category string, at time.Time) {
	slog.InfoContext(ctx, "Entry logged", applog.NewFields().
		WithComponent(applog.ComponentEntry).
		WithUser(uc.UserID).
		WithEntry(string(kind), id, category).
		ToSlice()...)

	if s.invalidator != nil {
		s.invalidator.InvalidateDay(ctx, uc.UserID, at, uc.Loc())
	}

	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping entry message")
		return
	}
	msg := amqp.NewEntryLoggedMessage(uc.UserID, string(kind), id, core.DayKey(at, uc.Loc()))
	if err := s.publisher.PublishEntryLogged(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish entry message", applog.NewFields().
			WithComponent(applog.ComponentAMQP).
			WithEntry(string(kind), id, "").
			WithError(err).
			ToSlice()...)
	}
}
