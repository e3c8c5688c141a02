package scans

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seedScan(t *testing.T, repo *MemoryRepo) Scan {
	t.Helper()
	scan := Scan{
		ID:          "scan-1",
		SessionHash: "abc123",
		Kind:        KindText,
		Status:      StatusValidating,
		CreatedAt:   time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), scan); err != nil {
		t.Fatalf("create: %v", err)
	}
	return scan
}

func TestMemoryRepoCreateAndGet(t *testing.T) {
	repo := NewMemoryRepo()
	seeded := seedScan(t, repo)

	got, err := repo.GetByID(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != seeded.ID || got.Kind != KindText || got.Status != StatusValidating {
		t.Fatalf("unexpected record: %+v", got)
	}

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoUpdateStatus(t *testing.T) {
	repo := NewMemoryRepo()
	seeded := seedScan(t, repo)

	startedAt := time.Now().UTC()
	if err := repo.UpdateStatus(context.Background(), seeded.ID, StatusRunning, &startedAt); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), seeded.ID)
	if got.Status != StatusRunning || got.StartedAt == nil || !got.StartedAt.Equal(startedAt) {
		t.Fatalf("unexpected record: %+v", got)
	}

	// A nil startedAt must not erase the existing timestamp.
	if err := repo.UpdateStatus(context.Background(), seeded.ID, StatusRunning, nil); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, _ = repo.GetByID(context.Background(), seeded.ID)
	if got.StartedAt == nil || !got.StartedAt.Equal(startedAt) {
		t.Fatalf("startedAt was erased: %+v", got)
	}

	if err := repo.UpdateStatus(context.Background(), "missing", StatusRunning, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoUpdateStageIsMonotonic(t *testing.T) {
	repo := NewMemoryRepo()
	seeded := seedScan(t, repo)

	if err := repo.UpdateStage(context.Background(), seeded.ID, 2); err != nil {
		t.Fatalf("update stage: %v", err)
	}
	if err := repo.UpdateStage(context.Background(), seeded.ID, 1); err != nil {
		t.Fatalf("update stage: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), seeded.ID)
	if got.StageIndex != 2 {
		t.Fatalf("expected stage 2, got %d", got.StageIndex)
	}
}

func TestMemoryRepoUpdateResult(t *testing.T) {
	repo := NewMemoryRepo()
	seeded := seedScan(t, repo)

	completedAt := time.Now().UTC()
	if err := repo.UpdateResult(context.Background(), seeded.ID, 72, 28, "High", completedAt); err != nil {
		t.Fatalf("update result: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), seeded.ID)
	if got.Status != StatusSucceeded || got.StageIndex != FinalStageIndex() {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.FakeScore == nil || *got.FakeScore != 72 || got.RealScore == nil || *got.RealScore != 28 {
		t.Fatalf("unexpected scores: %+v", got)
	}
	if got.Risk != "High" || got.CompletedAt == nil {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestMemoryRepoUpdateFailure(t *testing.T) {
	repo := NewMemoryRepo()
	seeded := seedScan(t, repo)

	completedAt := time.Now().UTC()
	if err := repo.UpdateFailure(context.Background(), seeded.ID, ErrorCodeTimeout, "run exceeded 30s", completedAt); err != nil {
		t.Fatalf("update failure: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), seeded.ID)
	if got.Status != StatusFailed || got.ErrorCode != ErrorCodeTimeout || got.ErrorMessage != "run exceeded 30s" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.CompletedAt == nil {
		t.Fatalf("expected completion timestamp")
	}
}

func TestMemoryRepoRejectsCancelledContext(t *testing.T) {
	repo := NewMemoryRepo()
	seeded := seedScan(t, repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := repo.GetByID(ctx, seeded.ID); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
