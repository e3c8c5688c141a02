package scans

// Findings per tier, in display order. The mapping is static: same tier,
// same sequence, always.
var explanations = map[Risk][]string{
	RiskHigh: {
		"Urgency manipulation detected — designed to make you panic",
		"Matches known scam/phishing templates with high confidence",
		"Requests sensitive personal data under false legitimacy",
		"AI verdict: high probability fraudulent — do not respond",
		"Legitimate banks never ask for OTPs or passwords via message",
	},
	RiskMedium: {
		"Some phrases used in social engineering attacks found",
		"Mild urgency triggers present — verify before responding",
		"Source credibility cannot be confirmed from this message alone",
		"Call the organization on their official number to confirm",
	},
	RiskLow: {
		"No strong fraud indicators detected",
		"Language pattern appears natural and coherent",
		"No suspicious links or data-harvesting attempts found",
		"Content appears legitimate — good instinct checking anyway",
	},
}

var advice = map[Risk]string{
	RiskHigh:   "Do not respond or click any links. You checked before acting — that was the right move.",
	RiskMedium: "Proceed carefully. Verify through an official channel before sharing any information.",
	RiskLow:    "This content appears safe. Good instinct checking — you are in control.",
}

// Explain returns the ordered findings for a risk tier. The returned slice
// is a copy; callers may not mutate the table through it.
func Explain(risk Risk) []string {
	entries, ok := explanations[risk]
	if !ok {
		entries = explanations[RiskMedium]
	}
	out := make([]string, len(entries))
	copy(out, entries)
	return out
}

// AdviceFor returns the closing recommendation for a risk tier.
func AdviceFor(risk Risk) string {
	if a, ok := advice[risk]; ok {
		return a
	}
	return advice[RiskMedium]
}
