package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"healthdash/internal/core"
	"healthdash/internal/engine"
	applog "healthdash/internal/log"
	"healthdash/internal/services"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.pinger != nil {
		if err := s.pinger.Ping(ctx); err != nil {
			checks["backend"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["backend"] = "ok"
		}
	} else {
		checks["backend"] = "not_configured"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	response := map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	w.WriteHeader(http.StatusOK)

	// Prometheus text exposition format
	counters := []struct {
		name, help string
		value      int64
	}{
		{"http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests},
		{"http_server_errors_total", "Total number of 5xx responses", traceMetrics.ServerErrors},
		{"entries_logged_total", "Total number of meals, workouts and water events logged", atomic.LoadInt64(&s.appMetrics.entriesLogged)},
		{"goal_updates_total", "Total number of goal updates", atomic.LoadInt64(&s.appMetrics.goalUpdates)},
		{"sign_ups_total", "Total number of accounts created", atomic.LoadInt64(&s.appMetrics.signUps)},
		{"sign_ins_total", "Total number of successful sign-ins", atomic.LoadInt64(&s.appMetrics.signIns)},
		{"failed_logins_total", "Total number of rejected sign-ins", atomic.LoadInt64(&s.appMetrics.failedLogins)},
		{"rate_limit_hits_total", "Total rate limit hits", rateLimitMetrics.TotalHits},
		{"suspicious_requests_total", "Total suspicious requests detected", securityMetrics.SuspiciousRequests},
		{"blocked_requests_total", "Total suspicious requests rejected", securityMetrics.BlockedRequests},
	}
	for _, c := range counters {
		fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", c.name)
		fmt.Fprintf(w, "%s %d\n\n", c.name, c.value)
	}

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.appMetrics.uptime).Seconds())
}

var intensities = []core.Intensity{core.IntensityLow, core.IntensityMedium, core.IntensityHigh}

// dashboardPage is the data of index.html.
type dashboardPage struct {
	Email             string
	Day               time.Time
	Today             bool
	Summary           summaryView
	Entries           []entryRow
	Defaults          core.Goals
	MealCategories    []core.MealCategory
	WorkoutCategories []core.WorkoutCategory
	Intensities       []core.Intensity
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	uc := currentUser(r)
	now := s.now()
	day, err := ParseDay(r.URL.Query(), uc.Loc(), now)
	if err != nil {
		day = now
	}

	view, err := s.dashboard.Day(r.Context(), uc, day)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard load failed",
			applog.FieldError, err,
			applog.FieldComponent, applog.ComponentDashboard,
			applog.FieldOperation, applog.OpSummarize)
		http.Error(w, "error loading dashboard", http.StatusInternalServerError)
		return
	}

	s.render(w, r, http.StatusOK, "index.html", dashboardPage{
		Email:             uc.Email,
		Day:               view.Day,
		Today:             core.DayKey(view.Day, uc.Loc()) == core.DayKey(now, uc.Loc()),
		Summary:           newSummaryView(view),
		Entries:           entryRows(view, uc.Loc()),
		Defaults:          s.goals.Defaults(),
		MealCategories:    core.MealCategories,
		WorkoutCategories: core.WorkoutCategories,
		Intensities:       intensities,
	})
}

// summaryView is the data of the summary partial.
type summaryView struct {
	Day     time.Time
	Goals   core.Goals
	Custom  bool
	Summary engine.DailySummary
}

func newSummaryView(v services.DayView) summaryView {
	return summaryView{Day: v.Day, Goals: v.Goals, Custom: v.CustomGoals, Summary: v.Summary}
}
