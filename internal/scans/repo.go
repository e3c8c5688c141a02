package scans

import (
	"context"
	"time"
)

// Repo defines persistence for content-free scan records.
type Repo interface {
	Create(ctx context.Context, scan Scan) error
	GetByID(ctx context.Context, scanID string) (Scan, error)
	UpdateStatus(ctx context.Context, scanID, status string, startedAt *time.Time) error
	UpdateStage(ctx context.Context, scanID string, stageIndex int) error
	UpdateResult(ctx context.Context, scanID string, fakeScore, realScore int, risk string, completedAt time.Time) error
	UpdateFailure(ctx context.Context, scanID, errorCode, errorMessage string, completedAt time.Time) error
}
