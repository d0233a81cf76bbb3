package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type ctxKey struct{}

// WithLogger returns a copy of ctx carrying logger. Request handlers pick it
// up through FromContext.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext extracts the request logger, falling back to the default one.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return logger
	}
	return bind(slog.Default(), "unknown")
}

// Outcome describes how a request finished.
type Outcome struct {
	Status   int
	Bytes    int64
	Duration time.Duration
}

// RequestLogger writes one record when a request starts and one when it
// completes. Probe paths such as /healthz are logged at debug level.
type RequestLogger struct {
	logger *Logger
	quiet  map[string]bool
}

func NewRequestLogger(logger *Logger, quietPaths ...string) *RequestLogger {
	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}
	return &RequestLogger{logger: logger, quiet: quiet}
}

// Started logs the beginning of r.
func (rl *RequestLogger) Started(ctx context.Context, r *http.Request, clientIP string) {
	level := slog.LevelInfo
	if rl.quiet[r.URL.Path] {
		level = slog.LevelDebug
	}
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP)
	if r.Header.Get("HX-Request") == "true" {
		fields["htmx"] = true
	}

	rl.logger.Logger.Log(ctx, level, "HTTP request started", fields.ToSlice()...)
}

// Completed logs the end of r at a level derived from the status code.
func (rl *RequestLogger) Completed(ctx context.Context, r *http.Request, o Outcome, clientIP string) {
	level := slog.LevelInfo
	switch {
	case o.Status >= 500:
		level = slog.LevelError
	case o.Status >= 400:
		level = slog.LevelWarn
	case rl.quiet[r.URL.Path]:
		level = slog.LevelDebug
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(o.Status, o.Duration.Milliseconds(), o.Status < 400).
		WithClientIP(clientIP)
	fields[FieldBytes] = o.Bytes
	fields[FieldDurationHuman] = o.Duration.String()

	rl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}
