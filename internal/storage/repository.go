// Package storage implements the store ports on top of database/sql for
// SQLite and PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	"healthdash/internal/core"
	"healthdash/internal/store"
)

// Dialect selects the SQL flavour and driver.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	return string(d)
}

type Repository struct {
	db      *sql.DB
	dialect Dialect
}

var _ store.Backend = (*Repository)(nil)

// NewSQLiteRepository opens (creating if needed) a SQLite database file and
// applies migrations.
func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(SQLite, dbPath)
}

// NewPostgresRepository connects to PostgreSQL and applies migrations.
func NewPostgresRepository(dsn string) (*Repository, error) {
	return open(Postgres, dsn)
}

func open(dialect Dialect, dsn string) (*Repository, error) {
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	if dialect == SQLite {
		// SQLite serializes writers; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, dialect: dialect}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (r *Repository) rebind(query string) string {
	if r.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *Repository) exec(ctx context.Context, query string, args ...any) error {
	_, err := r.db.ExecContext(ctx, r.rebind(query), args...)
	return err
}

// AddMeal implements store.EntryWriter
func (r *Repository) AddMeal(ctx context.Context, m core.MealEntry) error {
	err := r.exec(ctx,
		`INSERT INTO meals (id, user_id, name, category, calories, logged_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Name, string(m.Category), m.Calories, m.LoggedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert meal: %w", r.translate(err))
	}
	slog.DebugContext(ctx, "Meal saved", "id", m.ID, "user_id", m.UserID, "calories", m.Calories)
	return nil
}

// AddWorkout implements store.EntryWriter
func (r *Repository) AddWorkout(ctx context.Context, w core.WorkoutEntry) error {
	err := r.exec(ctx,
		`INSERT INTO workouts (id, user_id, name, category, duration_minutes, calories_burned, intensity, logged_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.Name, string(w.Category), w.DurationMinutes, w.CaloriesBurned,
		string(w.Intensity.OrDefault()), w.LoggedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert workout: %w", r.translate(err))
	}
	slog.DebugContext(ctx, "Workout saved", "id", w.ID, "user_id", w.UserID, "minutes", w.DurationMinutes)
	return nil
}

// AddWater implements store.EntryWriter
func (r *Repository) AddWater(ctx context.Context, w core.WaterEvent) error {
	err := r.exec(ctx,
		`INSERT INTO water_intake (id, user_id, volume_ml, logged_at) VALUES (?, ?, ?, ?)`,
		w.ID, w.UserID, w.VolumeMl, w.LoggedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert water: %w", r.translate(err))
	}
	slog.DebugContext(ctx, "Water saved", "id", w.ID, "user_id", w.UserID, "volume_ml", w.VolumeMl)
	return nil
}

// ListMeals implements store.EntryReader
func (r *Repository) ListMeals(ctx context.Context, userID string, tr core.TimeRange) ([]core.MealEntry, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(
		`SELECT id, user_id, name, category, calories, logged_at FROM meals
		 WHERE user_id = ? AND logged_at >= ? AND logged_at < ?
		 ORDER BY logged_at DESC, id`),
		userID, tr.Start.UnixMilli(), tr.End.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	defer rows.Close()

	meals := make([]core.MealEntry, 0)
	for rows.Next() {
		var (
			m        core.MealEntry
			category string
			loggedAt int64
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &category, &m.Calories, &loggedAt); err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		m.Category = core.MealCategory(category)
		m.LoggedAt = time.UnixMilli(loggedAt)
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

// ListWorkouts implements store.EntryReader
func (r *Repository) ListWorkouts(ctx context.Context, userID string, tr core.TimeRange) ([]core.WorkoutEntry, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(
		`SELECT id, user_id, name, category, duration_minutes, calories_burned, intensity, logged_at FROM workouts
		 WHERE user_id = ? AND logged_at >= ? AND logged_at < ?
		 ORDER BY logged_at DESC, id`),
		userID, tr.Start.UnixMilli(), tr.End.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	defer rows.Close()

	workouts := make([]core.WorkoutEntry, 0)
	for rows.Next() {
		var (
			w                   core.WorkoutEntry
			category, intensity string
			loggedAt            int64
		)
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &category, &w.DurationMinutes,
			&w.CaloriesBurned, &intensity, &loggedAt); err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		w.Category = core.WorkoutCategory(category)
		w.Intensity = core.Intensity(intensity)
		w.LoggedAt = time.UnixMilli(loggedAt)
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

// ListWater implements store.EntryReader
func (r *Repository) ListWater(ctx context.Context, userID string, tr core.TimeRange) ([]core.WaterEvent, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(
		`SELECT id, user_id, volume_ml, logged_at FROM water_intake
		 WHERE user_id = ? AND logged_at >= ? AND logged_at < ?
		 ORDER BY logged_at DESC, id`),
		userID, tr.Start.UnixMilli(), tr.End.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list water: %w", err)
	}
	defer rows.Close()

	events := make([]core.WaterEvent, 0)
	for rows.Next() {
		var (
			w        core.WaterEvent
			loggedAt int64
		)
		if err := rows.Scan(&w.ID, &w.UserID, &w.VolumeMl, &loggedAt); err != nil {
			return nil, fmt.Errorf("scan water: %w", err)
		}
		w.LoggedAt = time.UnixMilli(loggedAt)
		events = append(events, w)
	}
	return events, rows.Err()
}

// GetGoals implements store.GoalStore
func (r *Repository) GetGoals(ctx context.Context, userID string) (core.Goals, bool, error) {
	var g core.Goals
	err := r.db.QueryRowContext(ctx, r.rebind(
		`SELECT water_glasses, calories, exercise_minutes FROM goals WHERE user_id = ?`), userID).
		Scan(&g.WaterGlasses, &g.Calories, &g.ExerciseMinutes)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goals{}, false, nil
	}
	if err != nil {
		return core.Goals{}, false, fmt.Errorf("get goals: %w", err)
	}
	return g, true, nil
}

// SaveGoals implements store.GoalStore
func (r *Repository) SaveGoals(ctx context.Context, userID string, g core.Goals) error {
	if err := g.Validate(); err != nil {
		return err
	}
	err := r.exec(ctx,
		`INSERT INTO goals (user_id, water_glasses, calories, exercise_minutes, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   water_glasses = excluded.water_glasses,
		   calories = excluded.calories,
		   exercise_minutes = excluded.exercise_minutes,
		   updated_at = excluded.updated_at`,
		userID, g.WaterGlasses, g.Calories, g.ExerciseMinutes, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save goals: %w", r.translate(err))
	}
	slog.InfoContext(ctx, "Goals saved", "user_id", userID)
	return nil
}

// CreateUser implements store.UserStore
func (r *Repository) CreateUser(ctx context.Context, u core.User) error {
	err := r.exec(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("create user: %w", r.translate(err))
	}
	return nil
}

// GetUserByEmail implements store.UserStore
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE lower(email) = lower(?)`, email)
}

// GetUserByID implements store.UserStore
func (r *Repository) GetUserByID(ctx context.Context, id string) (core.User, error) {
	return r.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (r *Repository) getUser(ctx context.Context, query string, arg string) (core.User, error) {
	var (
		u         core.User
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, r.rebind(query), arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, store.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = time.UnixMilli(createdAt)
	return u, nil
}

// translate maps unique violations to store.ErrConflict.
func (r *Repository) translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return store.ErrConflict
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrConflict
	}
	return err
}
