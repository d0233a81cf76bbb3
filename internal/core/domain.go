package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// GlassVolumeMl is the volume of one glass of water.
const GlassVolumeMl = 250

// Upper bounds for a single entry and for goals. They keep totals and
// percentages far from integer limits and fit a 32-bit database column.
const (
	MaxEntryCalories = 20000
	MaxEntryMinutes  = 24 * 60
	MaxEntryVolumeMl = 10000

	MaxGoalWaterGlasses = 100
	MaxGoalCalories     = 20000
	MaxGoalMinutes      = 24 * 60
)

const (
	Breakfast MealCategory = "breakfast"
	Lunch     MealCategory = "lunch"
	Dinner    MealCategory = "dinner"
	Snack     MealCategory = "snack"
)

const (
	Cardio      WorkoutCategory = "cardio"
	Strength    WorkoutCategory = "strength"
	Flexibility WorkoutCategory = "flexibility"
	Sports      WorkoutCategory = "sports"
	OtherSport  WorkoutCategory = "other"
)

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

type (
	MealCategory    string
	WorkoutCategory string
	Intensity       string

	MealEntry struct {
		ID       string       `json:"id"`
		UserID   string       `json:"user_id"`
		Name     string       `json:"name"`
		Category MealCategory `json:"category"`
		Calories int          `json:"calories"`
		LoggedAt time.Time    `json:"logged_at"`
	}

	WorkoutEntry struct {
		ID              string          `json:"id"`
		UserID          string          `json:"user_id"`
		Name            string          `json:"name"`
		Category        WorkoutCategory `json:"category"`
		DurationMinutes int             `json:"duration_minutes"`
		CaloriesBurned  int             `json:"calories_burned"` // 0 when not recorded
		Intensity       Intensity       `json:"intensity"`
		LoggedAt        time.Time       `json:"logged_at"`
	}

	WaterEvent struct {
		ID       string    `json:"id"`
		UserID   string    `json:"user_id"`
		VolumeMl float64   `json:"volume_ml"`
		LoggedAt time.Time `json:"logged_at"`
	}

	// Goals are the per-user daily targets.
	Goals struct {
		WaterGlasses    int `json:"water_glasses"`
		Calories        int `json:"calories"`
		ExerciseMinutes int `json:"exercise_minutes"`
	}

	User struct {
		ID           string    `json:"id"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"created_at"`
	}

	// UserContext identifies the caller of a service operation.
	UserContext struct {
		UserID   string
		Email    string
		Location *time.Location
	}
)

// MealCategories lists meal categories in display order.
var MealCategories = []MealCategory{Breakfast, Lunch, Dinner, Snack}

// WorkoutCategories lists workout categories in display order, "other" last.
var WorkoutCategories = []WorkoutCategory{Cardio, Strength, Flexibility, Sports, OtherSport}

var (
	ErrEmptyName           = errors.New("empty name")
	ErrNameTooLong         = errors.New("name too long (max 120 characters)")
	ErrInvalidCalories     = errors.New("calories cannot be negative")
	ErrInvalidDuration     = errors.New("duration cannot be negative")
	ErrInvalidVolume       = errors.New("volume must be a non-negative number")
	ErrInvalidMealCategory = errors.New("invalid meal category")
	ErrInvalidIntensity    = errors.New("invalid intensity")
	ErrInvalidGoal         = errors.New("goal must be positive")
	ErrTooManyCalories     = errors.New("calories too high (max 20000)")
	ErrDurationTooLong     = errors.New("duration too long (max 1440 minutes)")
	ErrVolumeTooLarge      = errors.New("volume too large (max 10000 ml)")
	ErrGoalTooLarge        = errors.New("goal too large")
	ErrMissingUser         = errors.New("missing user id")
)

// DefaultGoals returns the built-in targets used until a user saves their own.
func DefaultGoals() Goals {
	return Goals{WaterGlasses: 8, Calories: 2000, ExerciseMinutes: 30}
}

func (c MealCategory) Valid() bool {
	switch c {
	case Breakfast, Lunch, Dinner, Snack:
		return true
	}
	return false
}

func (c WorkoutCategory) Known() bool {
	switch c {
	case Cardio, Strength, Flexibility, Sports, OtherSport:
		return true
	}
	return false
}

func (i Intensity) Valid() bool {
	switch i {
	case IntensityLow, IntensityMedium, IntensityHigh:
		return true
	}
	return false
}

// OrDefault returns medium when no intensity was recorded.
func (i Intensity) OrDefault() Intensity {
	if i == "" {
		return IntensityMedium
	}
	return i
}

func (m MealEntry) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return ErrMissingUser
	}
	if err := validateName(m.Name); err != nil {
		return err
	}
	if !m.Category.Valid() {
		return ErrInvalidMealCategory
	}
	if m.Calories < 0 {
		return ErrInvalidCalories
	}
	if m.Calories > MaxEntryCalories {
		return ErrTooManyCalories
	}
	return nil
}

func (w WorkoutEntry) Validate() error {
	if strings.TrimSpace(w.UserID) == "" {
		return ErrMissingUser
	}
	if err := validateName(w.Name); err != nil {
		return err
	}
	if w.DurationMinutes < 0 {
		return ErrInvalidDuration
	}
	if w.DurationMinutes > MaxEntryMinutes {
		return ErrDurationTooLong
	}
	if w.CaloriesBurned < 0 {
		return ErrInvalidCalories
	}
	if w.CaloriesBurned > MaxEntryCalories {
		return ErrTooManyCalories
	}
	if w.Intensity != "" && !w.Intensity.Valid() {
		return ErrInvalidIntensity
	}
	return nil
}

func (w WaterEvent) Validate() error {
	if strings.TrimSpace(w.UserID) == "" {
		return ErrMissingUser
	}
	if w.VolumeMl < 0 || math.IsNaN(w.VolumeMl) || math.IsInf(w.VolumeMl, 0) {
		return ErrInvalidVolume
	}
	if w.VolumeMl > MaxEntryVolumeMl {
		return ErrVolumeTooLarge
	}
	return nil
}

// Glasses returns the event volume expressed in glasses, fraction included.
func (w WaterEvent) Glasses() float64 {
	return w.VolumeMl / GlassVolumeMl
}

// GlassesToMl converts a glass count to a volume.
func GlassesToMl(glasses float64) float64 {
	return glasses * GlassVolumeMl
}

// WholeGlasses converts a volume to the number of full glasses shown to users.
func WholeGlasses(volumeMl float64) int {
	if volumeMl <= 0 {
		return 0
	}
	return int(volumeMl) / GlassVolumeMl
}

func (g Goals) Validate() error {
	if g.WaterGlasses <= 0 || g.Calories <= 0 || g.ExerciseMinutes <= 0 {
		return ErrInvalidGoal
	}
	if g.WaterGlasses > MaxGoalWaterGlasses || g.Calories > MaxGoalCalories || g.ExerciseMinutes > MaxGoalMinutes {
		return ErrGoalTooLarge
	}
	return nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 120 {
		return ErrNameTooLong
	}
	return nil
}
