package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"healthdash/internal/auth"
	"healthdash/internal/core"
)

// maxBodyBytes bounds request bodies read by RequestBodyParser.
const maxBodyBytes = 64 << 10

// FieldError reports a request field that could not be parsed.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ParseDay reads the "day" parameter (YYYY-MM-DD) in loc. An empty value
// means the day containing now.
func ParseDay(values url.Values, loc *time.Location, now time.Time) (time.Time, error) {
	v := strings.TrimSpace(values.Get("day"))
	if v == "" {
		return now.In(loc), nil
	}
	d, err := core.ParseDay(v, loc)
	if err != nil {
		return time.Time{}, &FieldError{Field: "day", Message: "expected YYYY-MM-DD"}
	}
	return d, nil
}

// loggedAtLayouts are accepted for the optional logged_at field, most
// specific first. datetime-local inputs submit the second form.
var loggedAtLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04"}

// ParseLoggedAt parses an optional timestamp in loc. An empty value yields
// the zero time, which the entry service replaces with now.
func ParseLoggedAt(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range loggedAtLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &FieldError{Field: "logged_at", Message: "invalid date and time"}
}

func parseInt(p *RequestBodyParser, field string, required bool) (int, error) {
	v := p.Get(field)
	if v == "" {
		if required {
			return 0, &FieldError{Field: field, Message: "required"}
		}
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &FieldError{Field: field, Message: "must be a whole number"}
	}
	return n, nil
}

// ParseMeal builds a meal from the submitted fields. Range checks are left to
// the entry service.
func ParseMeal(p *RequestBodyParser, loc *time.Location) (core.MealEntry, error) {
	calories, err := parseInt(p, "calories", true)
	if err != nil {
		return core.MealEntry{}, err
	}
	at, err := ParseLoggedAt(p.Get("logged_at"), loc)
	if err != nil {
		return core.MealEntry{}, err
	}
	return core.MealEntry{
		Name:     p.Get("name"),
		Category: core.MealCategory(strings.ToLower(p.Get("category"))),
		Calories: calories,
		LoggedAt: at,
	}, nil
}

// ParseWorkout builds a workout from the submitted fields.
func ParseWorkout(p *RequestBodyParser, loc *time.Location) (core.WorkoutEntry, error) {
	minutes, err := parseInt(p, "duration_minutes", true)
	if err != nil {
		return core.WorkoutEntry{}, err
	}
	burned, err := parseInt(p, "calories_burned", false)
	if err != nil {
		return core.WorkoutEntry{}, err
	}
	at, err := ParseLoggedAt(p.Get("logged_at"), loc)
	if err != nil {
		return core.WorkoutEntry{}, err
	}
	return core.WorkoutEntry{
		Name:            p.Get("name"),
		Category:        core.WorkoutCategory(strings.ToLower(p.Get("category"))),
		DurationMinutes: minutes,
		CaloriesBurned:  burned,
		Intensity:       core.Intensity(strings.ToLower(p.Get("intensity"))),
		LoggedAt:        at,
	}, nil
}

// ParseWater returns the submitted volume. volume_ml wins over glasses; with
// neither field a single glass is logged.
func ParseWater(p *RequestBodyParser, loc *time.Location) (float64, time.Time, error) {
	at, err := ParseLoggedAt(p.Get("logged_at"), loc)
	if err != nil {
		return 0, time.Time{}, err
	}
	if v := p.Get("volume_ml"); v != "" {
		ml, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, time.Time{}, &FieldError{Field: "volume_ml", Message: "must be a number"}
		}
		return ml, at, nil
	}
	glasses := 1.0
	if v := p.Get("glasses"); v != "" {
		g, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, time.Time{}, &FieldError{Field: "glasses", Message: "must be a number"}
		}
		glasses = g
	}
	return core.GlassesToMl(glasses), at, nil
}

// ParseGoals reads all three goals; each one is required.
func ParseGoals(p *RequestBodyParser) (core.Goals, error) {
	var g core.Goals
	var err error
	if g.WaterGlasses, err = parseInt(p, "water_glasses", true); err != nil {
		return core.Goals{}, err
	}
	if g.Calories, err = parseInt(p, "calories", true); err != nil {
		return core.Goals{}, err
	}
	if g.ExerciseMinutes, err = parseInt(p, "exercise_minutes", true); err != nil {
		return core.Goals{}, err
	}
	return g, nil
}

// ParseCredentials reads the login and sign-up forms.
func ParseCredentials(p *RequestBodyParser) auth.Credentials {
	return auth.Credentials{
		Email:    p.Get("email"),
		Password: p.Get("password"),
	}
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errors.New("request body too large")
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	// Fall back to form parsing
	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireGET is a convenience function for read-only handlers.
func RequireGET(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}

// ParseBodyOrFail parses the request body and returns an error response on
// failure. Returns the parser and nil on success.
func ParseBodyOrFail(r *http.Request) (*RequestBodyParser, *HTMXResponseBuilder) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return nil, BadRequestError("Invalid request format")
	}
	return p, nil
}
