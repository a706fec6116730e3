package balance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// MemoryLog implements interfaces.BalanceLog in process memory
type MemoryLog struct {
	mu   sync.RWMutex
	rows map[string]string
}

var _ interfaces.BalanceLog = (*MemoryLog)(nil)

// NewMemoryLog returns an empty log
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{rows: make(map[string]string)}
}

// Append records total at the second of at, replacing any entry already there
func (m *MemoryLog) Append(_ context.Context, at time.Time, total float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[FormatTime(at)] = FormatValue(total)
	return nil
}

// Last returns the most recent total, or 0 when the log is empty
func (m *MemoryLog) Last(_ context.Context) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var lastKey string
	for k := range m.rows {
		if k > lastKey {
			lastKey = k
		}
	}
	if lastKey == "" {
		return 0, nil
	}
	return ParseValue(m.rows[lastKey]), nil
}

// Entries returns every entry in time order
func (m *MemoryLog) Entries(_ context.Context) ([]models.BalanceEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.rows))
	for k := range m.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]models.BalanceEntry, 0, len(keys))
	for _, k := range keys {
		at, err := time.Parse(TimeLayout, k)
		if err != nil {
			continue
		}
		entries = append(entries, models.BalanceEntry{At: at, Value: ParseValue(m.rows[k])})
	}
	return entries, nil
}

// Close is a no-op
func (m *MemoryLog) Close() error {
	return nil
}
