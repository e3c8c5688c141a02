package scans

// Classify maps a fake-score to its risk tier. The thresholds are the only
// externally visible decision boundary: scores above 60 are High, above 33
// Medium, everything else Low. Exactly 60 is Medium; exactly 33 is Low.
func Classify(fakeScore int) Risk {
	switch {
	case fakeScore > 60:
		return RiskHigh
	case fakeScore > 33:
		return RiskMedium
	default:
		return RiskLow
	}
}
