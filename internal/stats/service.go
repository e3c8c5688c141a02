package stats

import "context"

type store interface {
	Record(ctx context.Context, risk string, failed bool) (Totals, error)
	Totals(ctx context.Context) (Totals, error)
}

// Service manages aggregate scan counters via an underlying store.
type Service struct {
	store store
}

// NewService constructs a Service with an in-memory store.
func NewService() *Service {
	return &Service{store: newMemoryStore()}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(pgStore store) *Service {
	return &Service{store: pgStore}
}

// RecordScan folds one terminal scan into the counters. Failed scans carry
// no risk tier; succeeded scans increment exactly one tier bucket.
func (s *Service) RecordScan(ctx context.Context, risk string, failed bool) error {
	_, err := s.store.Record(ctx, risk, failed)
	return err
}

// Totals returns the current aggregate counters.
func (s *Service) Totals(ctx context.Context) (Totals, error) {
	return s.store.Totals(ctx)
}
