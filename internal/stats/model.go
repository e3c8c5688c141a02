package stats

import "time"

// Totals holds aggregate scan counters. Counters only ever describe
// outcomes, never submission content.
type Totals struct {
	ScansTotal     int64     `json:"scansTotal"`
	SucceededTotal int64     `json:"succeededTotal"`
	FailedTotal    int64     `json:"failedTotal"`
	RiskLow        int64     `json:"riskLow"`
	RiskMedium     int64     `json:"riskMedium"`
	RiskHigh       int64     `json:"riskHigh"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
