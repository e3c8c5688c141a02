// Package engine defines the scoring backend contract and the built-in
// heuristic scorer. A scan feeds the engine an input, the engine answers
// with a fake/real score pair; everything downstream (risk tier, findings)
// is derived from that pair by the scans package.
package engine

import "context"

// Input carries the content (or its stand-in features) to be scored.
// Text holds the message body for text and document submissions. For media
// submissions FeatureHint, when positive, fixes the feature count; zero lets
// the engine draw its own.
type Input struct {
	Kind        string `json:"kind"`
	Text        string `json:"text,omitempty"`
	FeatureHint int    `json:"featureHint,omitempty"`
}

// Scores is the engine's verdict. Fake and Real always sum to 100.
type Scores struct {
	Fake int `json:"fakeScore"`
	Real int `json:"realScore"`
}

// Engine scores a submission. Implementations must respect ctx cancellation
// on any blocking work.
type Engine interface {
	Score(ctx context.Context, input Input) (Scores, error)
}
