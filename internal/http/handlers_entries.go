package http

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"healthdash/internal/core"
	"healthdash/internal/engine"
)

func (s *Server) handleLogMeal(w http.ResponseWriter, r *http.Request) {
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
	meal, err := ParseMeal(p, uc.Loc())
	if err == nil {
		meal, err = s.entries.LogMeal(r.Context(), uc, meal)
	}
	if err != nil {
		s.writeEntryError(w, r, "meal", err)
		return
	}

	s.entryLogged(w, uc, engine.KindMeal, meal.LoggedAt,
		fmt.Sprintf("Meal logged: %s (%d kcal)", meal.Name, meal.Calories))
}

func (s *Server) handleLogWorkout(w http.ResponseWriter, r *http.Request) {
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
	workout, err := ParseWorkout(p, uc.Loc())
	if err == nil {
		workout, err = s.entries.LogWorkout(r.Context(), uc, workout)
	}
	if err != nil {
		s.writeEntryError(w, r, "workout", err)
		return
	}

	s.entryLogged(w, uc, engine.KindWorkout, workout.LoggedAt,
		fmt.Sprintf("Workout logged: %s (%d min)", workout.Name, workout.DurationMinutes))
}

func (s *Server) handleLogWater(w http.ResponseWriter, r *http.Request) {
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
	volume, at, err := ParseWater(p, uc.Loc())
	var event core.WaterEvent
	if err == nil {
		event, err = s.entries.LogWater(r.Context(), uc, volume, at)
	}
	if err != nil {
		s.writeEntryError(w, r, "water intake", err)
		return
	}

	s.entryLogged(w, uc, engine.KindWater, event.LoggedAt,
		fmt.Sprintf("Water logged: %s glasses", formatGlasses(event.Glasses())))
}

// entryLogged answers a successful log with the triggers that refresh the
// summary, the activity list and the form.
func (s *Server) entryLogged(w http.ResponseWriter, uc core.UserContext, kind engine.EntryKind, at time.Time, message string) {
	atomic.AddInt64(&s.appMetrics.entriesLogged, 1)

	day := core.DayKey(at, uc.Loc())
	SuccessResponse(message).
		TriggerEntryLogged(string(kind), day).
		TriggerSummaryRefresh(day).
		TriggerFormReset(string(kind) + "-form").
		Write(w)
}
