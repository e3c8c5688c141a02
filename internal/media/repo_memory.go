package media

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo. Media records are
// deliberately never written to durable storage.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Media
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Media)}
}

// Create stores a media record.
func (r *MemoryRepo) Create(ctx context.Context, m Media) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[m.ID] = m
	return nil
}

// GetByID returns a media record by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, mediaID string) (Media, error) {
	if err := ctx.Err(); err != nil {
		return Media{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.data[mediaID]
	if !ok {
		return Media{}, ErrNotFound
	}
	return m, nil
}

// Delete removes a media record. Deleting a missing record is not an error.
func (r *MemoryRepo) Delete(ctx context.Context, mediaID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, mediaID)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
