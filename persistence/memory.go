package persistence

import (
	"context"
	"sync"

	"github.com/wfunc/pigdice/models"
)

// Memory keeps match history in process memory. It is the default store and
// is lost on restart.
type Memory struct {
	mu      sync.RWMutex
	records []models.MatchRecord
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) SaveMatch(ctx context.Context, rec models.MatchRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *Memory) MatchStats(ctx context.Context) (models.MatchStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var row statsRow
	for _, rec := range m.records {
		row.Total++
		if rec.Winner == 0 {
			row.WinsZero++
		} else {
			row.WinsOne++
		}
		row.AvgMargin += float64(rec.Margin())
		row.AvgRolls += float64(rec.Rolls)
		row.AvgDurationMs += float64(rec.Duration().Milliseconds())
	}
	if row.Total > 0 {
		n := float64(row.Total)
		row.AvgMargin /= n
		row.AvgRolls /= n
		row.AvgDurationMs /= n
	}
	return row.stats(), nil
}

// Records returns a copy of everything saved so far.
func (m *Memory) Records() []models.MatchRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.MatchRecord, len(m.records))
	copy(out, m.records)
	return out
}

func (m *Memory) Close() error {
	return nil
}
