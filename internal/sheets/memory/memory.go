package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"healthdash/internal/engine"
	"healthdash/internal/sheets"
)

// Store keeps exported rows in memory. It stands in for the spreadsheet when
// no Google credentials are configured.
type Store struct {
	mu   sync.Mutex
	rows [][]any
	keys map[string]int
	now  func() time.Time
}

var _ sheets.SummaryWriter = (*Store)(nil)

func New() *Store {
	return &Store{keys: make(map[string]int), now: time.Now}
}

// ExportDay upserts the row and returns a synthetic row reference.
func (s *Store) ExportDay(_ context.Context, userID string, day time.Time, sum engine.DailySummary) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("missing user id")
	}
	row := sheets.BuildRow(userID, day, sum, s.now())
	key := sheets.RowKey(userID, day)

	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.keys[key]; ok {
		s.rows[i] = row
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	s.rows = append(s.rows, row)
	s.keys[key] = len(s.rows) - 1
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of the stored rows in insertion order.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	copy(out, s.rows)
	return out
}
