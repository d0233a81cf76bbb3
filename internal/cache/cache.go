// Package cache holds the summary caches used by the dashboard service.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Cache defines a generic cache interface. Misses and backend failures both
// report ok=false; callers recompute.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool)
	Set(ctx context.Context, key string, data T)
	Delete(ctx context.Context, keys ...string)
	// DeletePrefix drops every key starting with prefix and returns how many
	// were removed.
	DeletePrefix(ctx context.Context, prefix string) int
}

// Manager periodically drops expired entries from the in-process caches.
type Manager struct {
	caches      []managed
	logger      *slog.Logger
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	stopOnce    sync.Once
}

type managed struct {
	name string
	c    Cleaner
}

// Cleaner is implemented by caches that hold expired entries until swept.
type Cleaner interface {
	CleanExpired() int
}

type statser interface {
	Stats() Stats
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:      logger,
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache under name, which is used in log records.
func (m *Manager) Register(name string, c Cleaner) {
	m.caches = append(m.caches, managed{name: name, c: c})
}

// StartCleanup sweeps every interval until Stop.
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanNow()
		case <-m.stopCleanup:
			return
		}
	}
}

// CleanNow runs one sweep and returns the number of removed entries.
func (m *Manager) CleanNow() int {
	total := 0
	for _, mc := range m.caches {
		n := mc.c.CleanExpired()
		total += n
		if s, ok := mc.c.(statser); ok && n > 0 {
			st := s.Stats()
			m.logger.Debug("Cleaned expired cache entries",
				"cache", mc.name,
				"count", n,
				"hits", st.Hits,
				"misses", st.Misses,
				"evictions", st.Evictions)
		}
	}
	return total
}

// Stop ends the sweep goroutine. It must only be called after StartCleanup;
// repeated calls are no-ops.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCleanup) })
	<-m.cleanupDone
}
