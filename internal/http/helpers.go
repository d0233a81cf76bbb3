package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"healthdash/internal/auth"
	"healthdash/internal/core"
	"healthdash/internal/engine"
	applog "healthdash/internal/log"
)

// templateFuncs are available to every embedded template.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"bar":     engine.BarPct,
		"glasses": formatGlasses,
		"title":   titleCase,
		"clock":   func(t time.Time) string { return t.Format("15:04") },
		"weekday": func(t time.Time) string { return t.Format("Mon 2") },
		"dayKey":  func(t time.Time) string { return t.Format("2006-01-02") },
		"round":   func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) },
	}
}

// formatGlasses rounds to one decimal and drops it for whole counts
// (e.g. "3", "2.5").
func formatGlasses(g float64) string {
	return strconv.FormatFloat(math.Round(g*10)/10, 'f', -1, 64)
}

// titleCase upper-cases the first letter of a category or tone name.
func titleCase(v any) string {
	s := fmt.Sprint(v)
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// currentUser returns the caller placed in the context by RequireUser.
func currentUser(r *http.Request) core.UserContext {
	u, _ := auth.UserFromContext(r.Context())
	return u
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// render executes a template into a buffer first so a failing template never
// produces a half-written 200.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldPath, r.URL.Path,
			applog.FieldComponent, applog.ComponentTemplate,
			"error_type", applog.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.FieldError, err,
			"template", name,
			applog.FieldOperation, applog.OpRender)
		http.Error(w, "error rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderPartial renders a template into an HTMX response with the given
// triggers already applied.
func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	if s.templates == nil {
		InternalServerError("templates not loaded").Write(w)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.FieldError, err,
			"template", name,
			applog.FieldOperation, applog.OpRender)
		InternalServerError("Error rendering view").Write(w)
		return
	}
	b.BodyHTML(buf.String()).Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
