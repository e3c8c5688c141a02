package stats

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu     sync.Mutex
	totals Totals
}

func newMemoryStore() *memoryStore {
	return &memoryStore{}
}

func (s *memoryStore) Record(ctx context.Context, risk string, failed bool) (Totals, error) {
	if err := ctx.Err(); err != nil {
		return Totals{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totals.ScansTotal++
	if failed {
		s.totals.FailedTotal++
	} else {
		s.totals.SucceededTotal++
		switch risk {
		case "Low":
			s.totals.RiskLow++
		case "Medium":
			s.totals.RiskMedium++
		case "High":
			s.totals.RiskHigh++
		}
	}
	s.totals.UpdatedAt = time.Now().UTC()
	return s.totals, nil
}

func (s *memoryStore) Totals(ctx context.Context) (Totals, error) {
	if err := ctx.Err(); err != nil {
		return Totals{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals, nil
}
