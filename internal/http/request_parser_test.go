package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"healthdash/internal/core"
)

func TestParseDay(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	now := time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		values  url.Values
		want    string
		wantErr bool
	}{
		{"empty uses now in loc", url.Values{}, "2024-05-02", false},
		{"explicit day", url.Values{"day": {"2024-04-15"}}, "2024-04-15", false},
		{"whitespace trimmed", url.Values{"day": {" 2024-04-15 "}}, "2024-04-15", false},
		{"invalid day", url.Values{"day": {"15/04/2024"}}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDay(tt.values, loc, now)
			if tt.wantErr {
				var fe *FieldError
				if !errors.As(err, &fe) || fe.Field != "day" {
					t.Fatalf("err = %v, want day FieldError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDay() error = %v", err)
			}
			if key := got.In(loc).Format("2006-01-02"); key != tt.want {
				t.Errorf("day = %s, want %s", key, tt.want)
			}
		})
	}
}

func TestParseLoggedAt(t *testing.T) {
	loc := time.FixedZone("CET", 3600)

	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"", time.Time{}, false},
		{"2024-05-01T08:30", time.Date(2024, 5, 1, 8, 30, 0, 0, loc), false},
		{"2024-05-01 08:30", time.Date(2024, 5, 1, 8, 30, 0, 0, loc), false},
		{"2024-05-01T08:30:00Z", time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC), false},
		{"tomorrow", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLoggedAt(tt.in, loc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseLoggedAt(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func parserFor(t *testing.T, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return p
}

func TestParseMeal(t *testing.T) {
	m, err := ParseMeal(parserFor(t, "name=Salad&category=LUNCH&calories=450"), time.UTC)
	if err != nil {
		t.Fatalf("ParseMeal() error = %v", err)
	}
	if m.Name != "Salad" || m.Category != core.Lunch || m.Calories != 450 || !m.LoggedAt.IsZero() {
		t.Errorf("meal = %+v", m)
	}

	m, err = ParseMeal(parserFor(t, `{"name":"Salad","category":"dinner","calories":300}`), time.UTC)
	if err != nil || m.Calories != 300 || m.Category != core.Dinner {
		t.Fatalf("json meal = %+v, err = %v", m, err)
	}

	_, err = ParseMeal(parserFor(t, "name=Salad&category=lunch&calories=lots"), time.UTC)
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "calories" {
		t.Fatalf("err = %v, want calories FieldError", err)
	}
}

func TestParseWorkout(t *testing.T) {
	w, err := ParseWorkout(parserFor(t, "name=Swim&category=cardio&duration_minutes=40&intensity=High"), time.UTC)
	if err != nil {
		t.Fatalf("ParseWorkout() error = %v", err)
	}
	if w.DurationMinutes != 40 || w.CaloriesBurned != 0 || w.Intensity != core.IntensityHigh || w.Category != core.Cardio {
		t.Errorf("workout = %+v", w)
	}

	if _, err := ParseWorkout(parserFor(t, "name=Swim&category=cardio"), time.UTC); err == nil {
		t.Error("expected error for missing duration")
	}
	if _, err := ParseWorkout(parserFor(t, "name=Swim&duration_minutes=10&calories_burned=x"), time.UTC); err == nil {
		t.Error("expected error for bad calories_burned")
	}
}

func TestParseWater(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMl  float64
		wantErr bool
	}{
		{"defaults to one glass", "", 250, false},
		{"glasses", "glasses=1.5", 375, false},
		{"volume wins", "glasses=3&volume_ml=100", 100, false},
		{"bad glasses", "glasses=two", 0, true},
		{"bad volume", "volume_ml=lots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ml, _, err := ParseWater(parserFor(t, tt.body), time.UTC)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if ml != tt.wantMl {
				t.Errorf("volume = %v, want %v", ml, tt.wantMl)
			}
		})
	}
}

func TestParseGoals(t *testing.T) {
	g, err := ParseGoals(parserFor(t, "water_glasses=10&calories=2200&exercise_minutes=45"))
	if err != nil {
		t.Fatalf("ParseGoals() error = %v", err)
	}
	if g != (core.Goals{WaterGlasses: 10, Calories: 2200, ExerciseMinutes: 45}) {
		t.Errorf("goals = %+v", g)
	}

	if _, err := ParseGoals(parserFor(t, "water_glasses=10&calories=2200")); err == nil {
		t.Error("expected error for missing exercise goal")
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": "123", "name": "test", "amount": 42.5}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}

	if id := parser.Get("id"); id != "123" {
		t.Errorf("Get('id') = %q, want '123'", id)
	}

	if name := parser.Get("name"); name != "test" {
		t.Errorf("Get('name') = %q, want 'test'", name)
	}

	if amount := parser.Get("amount"); amount != "42.5" {
		t.Errorf("Get('amount') = %q, want '42.5'", amount)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "id=456&name=form+test&value=100"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}

	if id := parser.Get("id"); id != "456" {
		t.Errorf("Get('id') = %q, want '456'", id)
	}

	if name := parser.Get("name"); name != "form test" {
		t.Errorf("Get('name') = %q, want 'form test'", name)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequireMethod(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		allowed []string
		wantErr bool
	}{
		{"POST allowed", http.MethodPost, []string{http.MethodPost}, false},
		{"DELETE allowed with multiple", http.MethodDelete, []string{http.MethodDelete, http.MethodPost}, false},
		{"GET not allowed", http.MethodGet, []string{http.MethodPost}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			result := RequireMethod(req, tt.allowed...)

			if tt.wantErr && result == nil {
				t.Error("Expected error response but got nil")
			}
			if !tt.wantErr && result != nil {
				t.Error("Expected nil but got error response")
			}
		})
	}
}

func TestRequirePOST(t *testing.T) {
	postReq := httptest.NewRequest(http.MethodPost, "/test", nil)
	if result := RequirePOST(postReq); result != nil {
		t.Error("RequirePOST should allow POST requests")
	}

	getReq := httptest.NewRequest(http.MethodGet, "/test", nil)
	if result := RequirePOST(getReq); result == nil {
		t.Error("RequirePOST should reject GET requests")
	}
}

func TestRequireGET(t *testing.T) {
	tests := []struct {
		method  string
		wantErr bool
	}{
		{http.MethodGet, false},
		{http.MethodHead, false},
		{http.MethodPost, true},
		{http.MethodPut, true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			result := RequireGET(req)

			if tt.wantErr && result == nil {
				t.Error("Expected error response but got nil")
			}
			if !tt.wantErr && result != nil {
				t.Error("Expected nil but got error response")
			}
		})
	}
}

func TestParseBodyOrFail(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("field=value"))
	p, resp := ParseBodyOrFail(req)
	if resp != nil {
		t.Fatal("Expected nil for valid form, got error response")
	}
	if p.Get("field") != "value" {
		t.Error("Form was not parsed correctly")
	}

	req = httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"broken":`))
	if _, resp := ParseBodyOrFail(req); resp == nil {
		t.Fatal("Expected error response for malformed JSON")
	}

	req = httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(strings.Repeat("a", maxBodyBytes+1)))
	if _, resp := ParseBodyOrFail(req); resp == nil {
		t.Fatal("Expected error response for oversized body")
	}
}

func TestRequestBodyParser_SanitizesControlCharacters(t *testing.T) {
	p := parserFor(t, "name=%20Oat%00meal%07%20")
	if got := p.Get("name"); got != "Oatmeal" {
		t.Errorf("Get('name') = %q, want 'Oatmeal'", got)
	}
}
