package http

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"healthdash/internal/core"
	"healthdash/internal/engine"
	applog "healthdash/internal/log"
	"healthdash/internal/services"
)

// entryRow is one line of the day's activity list.
type entryRow struct {
	Kind   engine.EntryKind
	Name   string
	Detail string
	At     time.Time
}

// entryRows merges the day's entries newest first, with times in loc.
func entryRows(v services.DayView, loc *time.Location) []entryRow {
	rows := make([]entryRow, 0, len(v.Meals)+len(v.Workouts)+len(v.Water))
	for _, m := range v.Meals {
		rows = append(rows, entryRow{
			Kind:   engine.KindMeal,
			Name:   m.Name,
			Detail: fmt.Sprintf("%s · %d kcal", titleCase(string(m.Category)), m.Calories),
			At:     m.LoggedAt.In(loc),
		})
	}
	for _, w := range v.Workouts {
		detail := fmt.Sprintf("%s · %d min · %s", titleCase(string(w.Category)), w.DurationMinutes, w.Intensity)
		if w.CaloriesBurned > 0 {
			detail += fmt.Sprintf(" · %d kcal burned", w.CaloriesBurned)
		}
		rows = append(rows, entryRow{
			Kind:   engine.KindWorkout,
			Name:   w.Name,
			Detail: detail,
			At:     w.LoggedAt.In(loc),
		})
	}
	for _, w := range v.Water {
		rows = append(rows, entryRow{
			Kind:   engine.KindWater,
			Name:   "Water",
			Detail: fmt.Sprintf("%s glasses · %.0f ml", formatGlasses(w.Glasses()), w.VolumeMl),
			At:     w.LoggedAt.In(loc),
		})
	}
	slices.SortStableFunc(rows, func(a, b entryRow) int { return b.At.Compare(a.At) })
	return rows
}

// loadDay resolves the requested day and its view, writing an error response
// and returning false on failure.
func (s *Server) loadDay(w http.ResponseWriter, r *http.Request) (services.DayView, bool) {
	uc := currentUser(r)
	day, err := ParseDay(r.URL.Query(), uc.Loc(), s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return services.DayView{}, false
	}
	view, err := s.dashboard.Day(r.Context(), uc, day)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Day summary error",
			applog.FieldError, err,
			applog.FieldDay, core.DayKey(day, uc.Loc()),
			applog.FieldComponent, applog.ComponentDashboard)
		InternalServerError("Error loading summary").Write(w)
		return services.DayView{}, false
	}
	return view, true
}

// handleSummaryPartial renders the score, progress bars and tips.
func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	view, ok := s.loadDay(w, r)
	if !ok {
		return
	}
	s.renderPartial(w, r, NewHTMXResponse(), "summary.html", newSummaryView(view))
}

// handleEntriesPartial renders the day's activity list.
func (s *Server) handleEntriesPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	view, ok := s.loadDay(w, r)
	if !ok {
		return
	}
	s.renderPartial(w, r, NewHTMXResponse(), "entries.html", struct {
		Day     time.Time
		Entries []entryRow
	}{view.Day, entryRows(view, currentUser(r).Loc())})
}

// weeklyView is the data of the weekly partial.
type weeklyView struct {
	Report engine.WeeklyReport
	Goals  core.Goals
}

// handleWeeklyPartial renders the seven days ending with the requested day.
func (s *Server) handleWeeklyPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	uc := currentUser(r)
	end, err := ParseDay(r.URL.Query(), uc.Loc(), s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	report, err := s.dashboard.Week(r.Context(), uc, end)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Weekly report error",
			applog.FieldError, err,
			applog.FieldComponent, applog.ComponentDashboard)
		InternalServerError("Error loading weekly report").Write(w)
		return
	}
	goals, _, err := s.goals.Get(r.Context(), uc.UserID)
	if err != nil {
		goals = s.goals.Defaults()
	}
	s.renderPartial(w, r, NewHTMXResponse(), "weekly.html", weeklyView{Report: report, Goals: goals})
}

// handleUpdateGoals saves the caller's goals and refreshes the summary.
func (s *Server) handleUpdateGoals(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}

	uc := currentUser(r)
	goals, err := ParseGoals(p)
	if err == nil {
		err = s.goals.Update(r.Context(), uc, goals)
	}
	if err != nil {
		s.writeEntryError(w, r, "goals", err)
		return
	}
	atomic.AddInt64(&s.appMetrics.goalUpdates, 1)

	today := core.DayKey(s.now(), uc.Loc())
	SuccessResponse("Goals saved").
		TriggerGoalsUpdated().
		TriggerSummaryRefresh(today).
		Write(w)
}

// handleAPISummary returns the day view as JSON.
func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	uc := currentUser(r)
	day, err := ParseDay(r.URL.Query(), uc.Loc(), s.now())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := s.dashboard.Day(r.Context(), uc, day)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "API summary error", applog.FieldError, err)
		writeJSONError(w, http.StatusInternalServerError, "could not compute summary")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleAPIWeek returns the weekly report as JSON.
func (s *Server) handleAPIWeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	uc := currentUser(r)
	end, err := ParseDay(r.URL.Query(), uc.Loc(), s.now())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := s.dashboard.Week(r.Context(), uc, end)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "API week error", applog.FieldError, err)
		writeJSONError(w, http.StatusInternalServerError, "could not compute weekly report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// writeEntryError maps parse and validation failures to 422 and everything
// else to 500.
func (s *Server) writeEntryError(w http.ResponseWriter, r *http.Request, what string, err error) {
	if isClientError(err) {
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Rejected "+what,
			applog.FieldError, err,
			"error_type", applog.ErrorTypeValidation)
		UnprocessableEntityError("Invalid " + what + ": " + err.Error()).
			TriggerErrorNotification(err.Error()).
			Write(w)
		return
	}
	applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to save "+what,
		applog.FieldError, err,
		applog.FieldOperation, applog.OpCreate,
		"error_type", applog.ErrorTypeDatabase)
	InternalServerError("Error saving " + what).
		TriggerErrorNotification("Error saving " + what).
		Write(w)
}

var validationErrors = []error{
	core.ErrEmptyName,
	core.ErrNameTooLong,
	core.ErrInvalidCalories,
	core.ErrInvalidDuration,
	core.ErrInvalidVolume,
	core.ErrInvalidMealCategory,
	core.ErrInvalidIntensity,
	core.ErrInvalidGoal,
	core.ErrTooManyCalories,
	core.ErrDurationTooLong,
	core.ErrVolumeTooLarge,
	core.ErrGoalTooLarge,
}

// isClientError reports whether err came from the user's input.
func isClientError(err error) bool {
	var fe *FieldError
	if errors.As(err, &fe) {
		return true
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
