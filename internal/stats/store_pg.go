package stats

import (
	"context"
	"database/sql"
	"time"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed stats store.
func NewPGStore(db *sql.DB) *pgStore {
	return &pgStore{DB: db}
}

func (s *pgStore) Record(ctx context.Context, risk string, failed bool) (Totals, error) {
	succeededDelta := int64(1)
	failedDelta := int64(0)
	if failed {
		succeededDelta, failedDelta = 0, 1
	}

	var lowDelta, mediumDelta, highDelta int64
	if !failed {
		switch risk {
		case "Low":
			lowDelta = 1
		case "Medium":
			mediumDelta = 1
		case "High":
			highDelta = 1
		}
	}

	now := time.Now().UTC()
	row := s.DB.QueryRowContext(ctx, `
INSERT INTO scan_stats (id, scans_total, succeeded_total, failed_total, risk_low, risk_medium, risk_high, updated_at)
VALUES (1, 1, $1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    scans_total     = scan_stats.scans_total + 1,
    succeeded_total = scan_stats.succeeded_total + EXCLUDED.succeeded_total,
    failed_total    = scan_stats.failed_total + EXCLUDED.failed_total,
    risk_low        = scan_stats.risk_low + EXCLUDED.risk_low,
    risk_medium     = scan_stats.risk_medium + EXCLUDED.risk_medium,
    risk_high       = scan_stats.risk_high + EXCLUDED.risk_high,
    updated_at      = EXCLUDED.updated_at
RETURNING scans_total, succeeded_total, failed_total, risk_low, risk_medium, risk_high, updated_at`,
		succeededDelta, failedDelta, lowDelta, mediumDelta, highDelta, now)

	return scanTotals(row)
}

func (s *pgStore) Totals(ctx context.Context) (Totals, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT scans_total, succeeded_total, failed_total, risk_low, risk_medium, risk_high, updated_at
FROM scan_stats WHERE id = 1`)

	totals, err := scanTotals(row)
	if err == sql.ErrNoRows {
		return Totals{}, nil
	}
	return totals, err
}

func scanTotals(row *sql.Row) (Totals, error) {
	var t Totals
	err := row.Scan(
		&t.ScansTotal,
		&t.SucceededTotal,
		&t.FailedTotal,
		&t.RiskLow,
		&t.RiskMedium,
		&t.RiskHigh,
		&t.UpdatedAt,
	)
	if err != nil {
		return Totals{}, err
	}
	return t, nil
}
