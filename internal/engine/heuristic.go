package engine

import (
	"context"
	"math/rand"
	"strings"
)

const (
	scoreBase    = 14
	scorePerHit  = 12
	scoreCeiling = 96
	jitterSpan   = 15

	mediaHitsMin = 2
	mediaHitsMax = 6
)

// vocabulary is the fixed set of fraud/phishing indicator terms matched as
// case-insensitive substrings in text content.
var vocabulary = []string{
	"lottery", "won", "prize", "urgent", "click", "verify", "internship", "earn",
	"otp", "account", "suspend", "bank", "password", "free", "act now", "kyc",
	"congratulations", "whatsapp",
}

// Heuristic is the built-in scorer. Text submissions are scored from keyword
// hits; media submissions use a stand-in feature count until a real
// frame/spectral backend replaces this engine. Rand is the bounded draw used
// for the jitter term and the media stand-in; tests inject a constant source.
type Heuristic struct {
	Rand func(n int) int
}

// NewHeuristic returns a Heuristic with a seeded random source.
func NewHeuristic() *Heuristic {
	return &Heuristic{Rand: rand.Intn}
}

// Score turns an input into a fake/real score pair. The fake score is capped
// at 96 so the classifier never claims absolute certainty.
func (h *Heuristic) Score(ctx context.Context, input Input) (Scores, error) {
	if err := ctx.Err(); err != nil {
		return Scores{}, err
	}

	hits := 0
	if input.Kind == "text" || input.Kind == "document" {
		hits = CountHits(input.Text)
	} else if input.FeatureHint >= mediaHitsMin && input.FeatureHint <= mediaHitsMax {
		hits = input.FeatureHint
	} else {
		hits = mediaHitsMin + h.draw(mediaHitsMax-mediaHitsMin+1)
	}

	fake := scoreBase + hits*scorePerHit + h.draw(jitterSpan)
	if fake > scoreCeiling {
		fake = scoreCeiling
	}
	if fake < 0 {
		fake = 0
	}
	return Scores{Fake: fake, Real: 100 - fake}, nil
}

func (h *Heuristic) draw(n int) int {
	if h.Rand == nil {
		return rand.Intn(n)
	}
	v := h.Rand(n)
	if v < 0 || v >= n {
		return 0
	}
	return v
}

// CountHits counts distinct vocabulary terms present in the content,
// case-insensitively. Repeated occurrences of one term count once, so the
// count is deterministic and repeatable for identical input.
func CountHits(text string) int {
	lower := strings.ToLower(text)
	hits := 0
	for _, term := range vocabulary {
		if strings.Contains(lower, term) {
			hits++
		}
	}
	return hits
}

var _ Engine = (*Heuristic)(nil)
