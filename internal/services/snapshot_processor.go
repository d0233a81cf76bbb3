package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"healthdash/internal/amqp"
	"healthdash/internal/core"
	applog "healthdash/internal/log"
	"healthdash/internal/sheets"
)

// SnapshotProcessorConfig holds configuration for the snapshot processor
type SnapshotProcessorConfig struct {
	// ReconcileInterval is how often touched users get today re-exported (default: 15m)
	ReconcileInterval time.Duration

	// Location splits days for users; messages carry days in this zone.
	Location *time.Location
}

// DefaultSnapshotProcessorConfig returns sensible defaults
func DefaultSnapshotProcessorConfig() SnapshotProcessorConfig {
	return SnapshotProcessorConfig{
		ReconcileInterval: 15 * time.Minute,
		Location:          time.Local,
	}
}

// SnapshotProcessor recomputes day summaries after entries are logged and
// hands them to an exporter. The dashboard it uses should have no caches so
// every export reflects the database.
type SnapshotProcessor struct {
	dashboard *DashboardService
	exporter  SummaryExporter
	config    SnapshotProcessorConfig
	now       func() time.Time

	dirtyMu sync.Mutex
	dirty   map[string]struct{}

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSnapshotProcessor creates a new snapshot processor
func NewSnapshotProcessor(dashboard *DashboardService, exporter SummaryExporter, config SnapshotProcessorConfig) *SnapshotProcessor {
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.ReconcileInterval <= 0 {
		config.ReconcileInterval = DefaultSnapshotProcessorConfig().ReconcileInterval
	}
	return &SnapshotProcessor{
		dashboard: dashboard,
		exporter:  exporter,
		config:    config,
		now:       time.Now,
		dirty:     make(map[string]struct{}),
	}
}

// HandleEntryLogged is the AMQP handler. Returning an error requeues the
// message, so malformed days and exports the destination rejects for good
// are logged and acknowledged instead.
func (p *SnapshotProcessor) HandleEntryLogged(ctx context.Context, msg *amqp.EntryLoggedMessage) error {
	day, err := core.ParseDay(msg.Day, p.config.Location)
	if err != nil {
		slog.ErrorContext(ctx, "Dropping message with malformed day",
			"user_id", msg.UserID,
			"day", msg.Day,
			"error", err)
		return nil
	}

	if err := p.exportDay(ctx, msg.UserID, day); err != nil {
		if sheets.Permanent(err) {
			slog.ErrorContext(ctx, "Dropping message the exporter rejected",
				"user_id", msg.UserID,
				"day", msg.Day,
				"error", err)
			return nil
		}
		return err
	}

	p.dirtyMu.Lock()
	p.dirty[msg.UserID] = struct{}{}
	p.dirtyMu.Unlock()
	return nil
}

func (p *SnapshotProcessor) exportDay(ctx context.Context, userID string, day time.Time) error {
	uc := core.UserContext{UserID: userID, Location: p.config.Location}
	view, err := p.dashboard.Day(ctx, uc, day)
	if err != nil {
		return fmt.Errorf("compute day for %s: %w", userID, err)
	}

	ref, err := p.exporter.ExportDay(ctx, userID, view.Day, view.Summary)
	if err != nil {
		return fmt.Errorf("export day for %s: %w", userID, err)
	}

	fields := applog.NewFields().
		WithComponent(applog.ComponentWorker).
		WithUser(userID).
		WithScore(core.DayKey(view.Day, p.config.Location), view.Summary.Score.Score, string(view.Summary.Score.Tone))
	fields[applog.FieldSheetsRef] = ref
	slog.InfoContext(ctx, "Exported day summary", fields.ToSlice()...)
	return nil
}

// Start begins the reconcile loop. Returns an error if already running.
func (p *SnapshotProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("snapshot processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx, p.stopCh, p.doneCh)

	slog.InfoContext(ctx, "Snapshot processor started",
		"reconcile_interval", p.config.ReconcileInterval)
	return nil
}

// Stop signals the loop and waits for it until ctx ends. Only the first of
// concurrent calls closes the loop; later ones return nil.
func (p *SnapshotProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Snapshot processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Snapshot processor stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the processor is currently running
func (p *SnapshotProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SnapshotProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Reconcile(ctx)
		}
	}
}

// Reconcile re-exports today for every user seen since the last pass. Users
// whose export fails transiently stay pending for the next pass.
func (p *SnapshotProcessor) Reconcile(ctx context.Context) int {
	p.dirtyMu.Lock()
	users := make([]string, 0, len(p.dirty))
	for u := range p.dirty {
		users = append(users, u)
	}
	p.dirty = make(map[string]struct{})
	p.dirtyMu.Unlock()
	sort.Strings(users)

	today := p.now()
	exported := 0
	for _, userID := range users {
		if ctx.Err() != nil {
			p.markDirty(userID)
			continue
		}
		if err := p.exportDay(ctx, userID, today); err != nil {
			if sheets.Permanent(err) {
				slog.ErrorContext(ctx, "Reconcile export rejected, dropping user", "user_id", userID, "error", err)
				continue
			}
			slog.WarnContext(ctx, "Reconcile export failed", "user_id", userID, "error", err)
			p.markDirty(userID)
			continue
		}
		exported++
	}

	if len(users) > 0 {
		slog.InfoContext(ctx, "Reconcile pass finished", "users", len(users), "exported", exported)
	}
	return exported
}

func (p *SnapshotProcessor) markDirty(userID string) {
	p.dirtyMu.Lock()
	p.dirty[userID] = struct{}{}
	p.dirtyMu.Unlock()
}

// Pending returns how many users wait for the next reconcile pass.
func (p *SnapshotProcessor) Pending() int {
	p.dirtyMu.Lock()
	defer p.dirtyMu.Unlock()
	return len(p.dirty)
}
