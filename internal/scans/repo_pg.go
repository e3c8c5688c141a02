package scans

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new scan record.
func (r *PGRepo) Create(ctx context.Context, scan Scan) error {
	const query = `
INSERT INTO scans (
	id, session_hash, kind, status, stage_index, fake_score, real_score, risk,
	error_code, error_message, created_at, started_at, completed_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.DB.ExecContext(ctx, query,
		scan.ID,
		scan.SessionHash,
		string(scan.Kind),
		scan.Status,
		scan.StageIndex,
		scan.FakeScore,
		scan.RealScore,
		nullableString(scan.Risk),
		nullableString(scan.ErrorCode),
		nullableString(scan.ErrorMessage),
		scan.CreatedAt,
		scan.StartedAt,
		scan.CompletedAt,
	)
	return err
}

// GetByID returns a scan record by its ID.
func (r *PGRepo) GetByID(ctx context.Context, scanID string) (Scan, error) {
	const query = `
SELECT id, session_hash, kind, status, stage_index, fake_score, real_score, risk,
	error_code, error_message, created_at, started_at, completed_at
FROM scans
WHERE id = $1`
	row := r.DB.QueryRowContext(ctx, query, scanID)

	var (
		scan         Scan
		kind         string
		risk         sql.NullString
		errorCode    sql.NullString
		errorMessage sql.NullString
		fakeScore    sql.NullInt64
		realScore    sql.NullInt64
		startedAt    sql.NullTime
		completedAt  sql.NullTime
	)
	err := row.Scan(
		&scan.ID,
		&scan.SessionHash,
		&kind,
		&scan.Status,
		&scan.StageIndex,
		&fakeScore,
		&realScore,
		&risk,
		&errorCode,
		&errorMessage,
		&scan.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Scan{}, ErrNotFound
	}
	if err != nil {
		return Scan{}, err
	}

	scan.Kind = Kind(kind)
	if fakeScore.Valid {
		v := int(fakeScore.Int64)
		scan.FakeScore = &v
	}
	if realScore.Valid {
		v := int(realScore.Int64)
		scan.RealScore = &v
	}
	if risk.Valid {
		scan.Risk = risk.String
	}
	if errorCode.Valid {
		scan.ErrorCode = errorCode.String
	}
	if errorMessage.Valid {
		scan.ErrorMessage = errorMessage.String
	}
	if startedAt.Valid {
		t := startedAt.Time
		scan.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		scan.CompletedAt = &t
	}
	return scan, nil
}

// UpdateStatus updates the status and optional start timestamp.
func (r *PGRepo) UpdateStatus(ctx context.Context, scanID, status string, startedAt *time.Time) error {
	const query = `
UPDATE scans
SET status = $2, started_at = COALESCE($3, started_at)
WHERE id = $1`
	return r.exec(ctx, query, scanID, status, startedAt)
}

// UpdateStage moves the recorded stage pointer forward.
func (r *PGRepo) UpdateStage(ctx context.Context, scanID string, stageIndex int) error {
	const query = `
UPDATE scans
SET stage_index = GREATEST(stage_index, $2)
WHERE id = $1`
	return r.exec(ctx, query, scanID, stageIndex)
}

// UpdateResult records the terminal scores and tier.
func (r *PGRepo) UpdateResult(ctx context.Context, scanID string, fakeScore, realScore int, risk string, completedAt time.Time) error {
	const query = `
UPDATE scans
SET status = $2, stage_index = $3, fake_score = $4, real_score = $5, risk = $6, completed_at = $7
WHERE id = $1`
	return r.exec(ctx, query, scanID, StatusSucceeded, FinalStageIndex(), fakeScore, realScore, risk, completedAt)
}

// UpdateFailure records a terminal failure with its classified code.
func (r *PGRepo) UpdateFailure(ctx context.Context, scanID, errorCode, errorMessage string, completedAt time.Time) error {
	const query = `
UPDATE scans
SET status = $2, error_code = $3, error_message = $4, completed_at = $5
WHERE id = $1`
	return r.exec(ctx, query, scanID, StatusFailed, errorCode, errorMessage, completedAt)
}

func (r *PGRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ Repo = (*PGRepo)(nil)
