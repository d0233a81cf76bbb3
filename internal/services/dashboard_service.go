package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"healthdash/internal/cache"
	"healthdash/internal/core"
	"healthdash/internal/engine"
	applog "healthdash/internal/log"
	"healthdash/internal/store"
)

// WeekDays is the length of the weekly report.
const WeekDays = 7

// DayView is everything the dashboard renders for one day.
type DayView struct {
	Day         time.Time           `json:"day"`
	Goals       core.Goals          `json:"goals"`
	CustomGoals bool                `json:"custom_goals"`
	Summary     engine.DailySummary `json:"summary"`
	Meals       []core.MealEntry    `json:"meals"`
	Workouts    []core.WorkoutEntry `json:"workouts"`
	Water       []core.WaterEvent   `json:"water"`
	ComputedAt  time.Time           `json:"computed_at"`
}

// DashboardService assembles day and week views. The caches are optional.
//
// Every invalidation bumps gen. A view is only cached when gen did not move
// while it was computed, so a read racing an invalidation cannot store data
// loaded before the change.
type DashboardService struct {
	reader store.EntryReader
	goals  *GoalService
	days   cache.Cache[DayView]
	weeks  cache.Cache[engine.WeeklyReport]
	now    func() time.Time

	genMu sync.RWMutex
	gen   uint64
}

func NewDashboardService(
	reader store.EntryReader,
	goals *GoalService,
	days cache.Cache[DayView],
	weeks cache.Cache[engine.WeeklyReport],
) *DashboardService {
	return &DashboardService{
		reader: reader,
		goals:  goals,
		days:   days,
		weeks:  weeks,
		now:    time.Now,
	}
}

// Today returns the view of the current day in the user's timezone.
func (s *DashboardService) Today(ctx context.Context, uc core.UserContext) (DayView, error) {
	return s.Day(ctx, uc, s.now())
}

// Day returns the view of the calendar day containing day.
func (s *DashboardService) Day(ctx context.Context, uc core.UserContext, day time.Time) (DayView, error) {
	loc := uc.Loc()
	r := core.DayRange(day, loc)
	key := dayCacheKey(uc.UserID, core.DayKey(r.Start, loc))

	if s.days != nil {
		if v, ok := s.days.Get(ctx, key); ok {
			return v, nil
		}
	}
	gen := s.generation()

	goals, custom, err := s.goals.Get(ctx, uc.UserID)
	if err != nil {
		return DayView{}, err
	}

	entries, err := s.fetch(ctx, uc.UserID, r)
	if err != nil {
		return DayView{}, err
	}

	summary, err := engine.Summarize(entries, goals)
	if err != nil {
		return DayView{}, fmt.Errorf("summarize day: %w", err)
	}
	logSkipped(ctx, uc.UserID, summary.Progress.Skipped)

	v := DayView{
		Day:         r.Start,
		Goals:       goals,
		CustomGoals: custom,
		Summary:     summary,
		Meals:       entries.Meals,
		Workouts:    entries.Workouts,
		Water:       entries.Water,
		ComputedAt:  s.now(),
	}
	if s.days != nil {
		s.storeIfCurrent(gen, func() { s.days.Set(ctx, key, v) })
	}
	return v, nil
}

// Week returns the report for the WeekDays days ending with the day
// containing end.
func (s *DashboardService) Week(ctx context.Context, uc core.UserContext, end time.Time) (engine.WeeklyReport, error) {
	loc := uc.Loc()
	days := core.LastDays(end, WeekDays, loc)
	key := weekCacheKey(uc.UserID, core.DayKey(days[len(days)-1].Start, loc))

	if s.weeks != nil {
		if v, ok := s.weeks.Get(ctx, key); ok {
			return v, nil
		}
	}
	gen := s.generation()

	goals, _, err := s.goals.Get(ctx, uc.UserID)
	if err != nil {
		return engine.WeeklyReport{}, err
	}

	entries, err := s.fetch(ctx, uc.UserID, core.Span(days))
	if err != nil {
		return engine.WeeklyReport{}, err
	}

	report, err := engine.ComputeWeek(entries, goals, days)
	if err != nil {
		return engine.WeeklyReport{}, fmt.Errorf("compute week: %w", err)
	}
	logSkipped(ctx, uc.UserID, report.Skipped)

	if s.weeks != nil {
		s.storeIfCurrent(gen, func() { s.weeks.Set(ctx, key, report) })
	}
	return report, nil
}

// InvalidateDay implements DayInvalidator. Weekly reports ending on any of
// the following WeekDays-1 days include day, so they are dropped too.
func (s *DashboardService) InvalidateDay(ctx context.Context, userID string, day time.Time, loc *time.Location) {
	start := core.DayRange(day, loc).Start
	s.bump()
	if s.days != nil {
		s.days.Delete(ctx, dayCacheKey(userID, core.DayKey(start, loc)))
	}
	if s.weeks != nil {
		keys := make([]string, 0, WeekDays)
		for i := 0; i < WeekDays; i++ {
			keys = append(keys, weekCacheKey(userID, core.DayKey(start.AddDate(0, 0, i), loc)))
		}
		s.weeks.Delete(ctx, keys...)
	}
}

// InvalidateUser implements UserInvalidator. Goal changes affect every
// cached day and week of the user.
func (s *DashboardService) InvalidateUser(ctx context.Context, userID string) {
	s.bump()
	dropped := 0
	if s.days != nil {
		dropped += s.days.DeletePrefix(ctx, dayCacheKey(userID, ""))
	}
	if s.weeks != nil {
		dropped += s.weeks.DeletePrefix(ctx, weekCacheKey(userID, ""))
	}
	slog.DebugContext(ctx, "Dropped cached views", "user_id", userID, "count", dropped)
}

func (s *DashboardService) generation() uint64 {
	s.genMu.RLock()
	defer s.genMu.RUnlock()
	return s.gen
}

func (s *DashboardService) bump() {
	s.genMu.Lock()
	s.gen++
	s.genMu.Unlock()
}

// storeIfCurrent runs set unless an invalidation happened after gen was read.
// An invalidation that starts after the check deletes what set stored.
func (s *DashboardService) storeIfCurrent(gen uint64, set func()) {
	s.genMu.RLock()
	defer s.genMu.RUnlock()
	if s.gen == gen {
		set()
	}
}

// fetch loads the three entry kinds concurrently.
func (s *DashboardService) fetch(ctx context.Context, userID string, r core.TimeRange) (engine.Entries, error) {
	var e engine.Entries
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		e.Meals, err = s.reader.ListMeals(gctx, userID, r)
		return err
	})
	g.Go(func() error {
		var err error
		e.Workouts, err = s.reader.ListWorkouts(gctx, userID, r)
		return err
	})
	g.Go(func() error {
		var err error
		e.Water, err = s.reader.ListWater(gctx, userID, r)
		return err
	})
	if err := g.Wait(); err != nil {
		return engine.Entries{}, fmt.Errorf("fetch entries: %w", err)
	}
	return e, nil
}

func logSkipped(ctx context.Context, userID string, skipped []*engine.InvalidEntryError) {
	for _, bad := range skipped {
		slog.WarnContext(ctx, "Skipped invalid entry", append(applog.NewFields().
			WithComponent(applog.ComponentEngine).
			WithUser(userID).
			WithEntry(string(bad.Kind), bad.ID, "").
			ToSlice(), "field", bad.Field)...)
	}
}

func dayCacheKey(userID, day string) string  { return "day:" + userID + ":" + day }
func weekCacheKey(userID, end string) string { return "week:" + userID + ":" + end }
