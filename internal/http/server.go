// Package http serves the dashboard pages, HTMX partials and the JSON API.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"healthdash/internal/auth"
	applog "healthdash/internal/log"
	"healthdash/internal/middleware/ratelimit"
	"healthdash/internal/middleware/security"
	"healthdash/internal/middleware/trace"
	"healthdash/internal/services"
	"healthdash/internal/store"
	appweb "healthdash/web"
)

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Entries   *services.EntryService
	Dashboard *services.DashboardService
	Goals     *services.GoalService
	Auth      *auth.Service
	Sessions  *auth.Middleware
	// Pinger backs the readiness check. Optional.
	Pinger store.Pinger
	Logger *applog.Logger

	RateLimitPerMinute int
}

type Server struct {
	http.Server
	templates *template.Template
	logger    *applog.Logger

	entries   *services.EntryService
	dashboard *services.DashboardService
	goals     *services.GoalService
	auth      *auth.Service
	sessions  *auth.Middleware
	pinger    store.Pinger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	securityHeaders  *security.HeadersMiddleware
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	now          func() time.Time
	shutdownOnce sync.Once
}

// appMetrics holds application-level counters
type appMetrics struct {
	entriesLogged int64
	goalUpdates   int64
	signUps       int64
	signIns       int64
	failedLogins  int64
	uptime        time.Time
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	mux := http.NewServeMux()
	detector := security.NewDetector()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger:           logger,
		entries:          deps.Entries,
		dashboard:        deps.Dashboard,
		goals:            deps.Goals,
		auth:             deps.Auth,
		sessions:         deps.Sessions,
		pinger:           deps.Pinger,
		securityDetector: detector,
		securityHeaders:  security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RateLimitPerMinute,
		}),
		appMetrics: &appMetrics{uptime: time.Now()},
		now:        time.Now,
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates",
			applog.FieldError, err,
			applog.FieldComponent, applog.ComponentTemplate)
	} else {
		s.templates = t
	}

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(time.Hour)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	// Probes and metrics
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	// Sessions
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/signup", s.handleSignup)
	mux.HandleFunc("/logout", s.handleLogout)

	// Dashboard page
	mux.Handle("/", s.onlyRoot(s.sessions.RequireUser(http.HandlerFunc(s.handleIndex))))

	// UI partials
	mux.Handle("/ui/summary", s.sessions.RequireUser(http.HandlerFunc(s.handleSummaryPartial)))
	mux.Handle("/ui/entries", s.sessions.RequireUser(http.HandlerFunc(s.handleEntriesPartial)))
	mux.Handle("/ui/weekly", s.sessions.RequireUser(http.HandlerFunc(s.handleWeeklyPartial)))

	// Entry logging and goals
	mux.Handle("/meals", s.sessions.RequireUser(http.HandlerFunc(s.handleLogMeal)))
	mux.Handle("/workouts", s.sessions.RequireUser(http.HandlerFunc(s.handleLogWorkout)))
	mux.Handle("/water", s.sessions.RequireUser(http.HandlerFunc(s.handleLogWater)))
	mux.Handle("/goals", s.sessions.RequireUser(http.HandlerFunc(s.handleUpdateGoals)))

	// JSON API
	mux.Handle("/api/summary", s.sessions.RequireUser(http.HandlerFunc(s.handleAPISummary)))
	mux.Handle("/api/week", s.sessions.RequireUser(http.HandlerFunc(s.handleAPIWeek)))

	// Middleware chain, outermost first: tracing, security headers,
	// suspicious request detection, rate limiting on POST.
	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(detector.ExtractClientIP, isPost, s.onRateLimited)(handler)
	handler = detector.Middleware(handler)
	handler = s.securityHeaders.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	s.Handler = handler

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	// Ensure shutdown logic runs only once
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// onlyRoot answers 404 for paths the mux routes to "/" as a fallback.
func (s *Server) onlyRoot(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path,
		applog.FieldComponent, applog.ComponentRateLimit)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again later.").
		TriggerErrorNotification("Too many requests").
		Write(w)
}

func isPost(r *http.Request) bool { return r.Method == http.MethodPost }
