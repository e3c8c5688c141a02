package scans

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo stores scan records in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Scan
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Scan)}
}

// Create stores the scan record.
func (r *MemoryRepo) Create(ctx context.Context, scan Scan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[scan.ID] = scan
	return nil
}

// GetByID returns a scan record by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, scanID string) (Scan, error) {
	if err := ctx.Err(); err != nil {
		return Scan{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	scan, ok := r.byID[scanID]
	if !ok {
		return Scan{}, ErrNotFound
	}
	return scan, nil
}

// UpdateStatus updates the status and optional start timestamp.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, scanID, status string, startedAt *time.Time) error {
	return r.update(ctx, scanID, func(s *Scan) {
		s.Status = status
		if startedAt != nil {
			s.StartedAt = startedAt
		}
	})
}

// UpdateStage moves the recorded stage pointer forward. Backward moves are
// dropped to preserve monotonicity.
func (r *MemoryRepo) UpdateStage(ctx context.Context, scanID string, stageIndex int) error {
	return r.update(ctx, scanID, func(s *Scan) {
		if stageIndex > s.StageIndex {
			s.StageIndex = stageIndex
		}
	})
}

// UpdateResult records the terminal scores and tier.
func (r *MemoryRepo) UpdateResult(ctx context.Context, scanID string, fakeScore, realScore int, risk string, completedAt time.Time) error {
	return r.update(ctx, scanID, func(s *Scan) {
		s.Status = StatusSucceeded
		s.StageIndex = FinalStageIndex()
		s.FakeScore = &fakeScore
		s.RealScore = &realScore
		s.Risk = risk
		s.CompletedAt = &completedAt
	})
}

// UpdateFailure records a terminal failure with its classified code.
func (r *MemoryRepo) UpdateFailure(ctx context.Context, scanID, errorCode, errorMessage string, completedAt time.Time) error {
	return r.update(ctx, scanID, func(s *Scan) {
		s.Status = StatusFailed
		s.ErrorCode = errorCode
		s.ErrorMessage = errorMessage
		s.CompletedAt = &completedAt
	})
}

func (r *MemoryRepo) update(ctx context.Context, scanID string, apply func(*Scan)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	scan, ok := r.byID[scanID]
	if !ok {
		return ErrNotFound
	}
	apply(&scan)
	r.byID[scanID] = scan
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
