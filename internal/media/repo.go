package media

import "context"

// Repo defines persistence operations for media records.
type Repo interface {
	Create(ctx context.Context, m Media) error
	GetByID(ctx context.Context, mediaID string) (Media, error)
	Delete(ctx context.Context, mediaID string) error
}
