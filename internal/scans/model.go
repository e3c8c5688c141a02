package scans

import "time"

// Kind discriminates what a submission contains.
type Kind string

const (
	KindText     Kind = "text"
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindDocument Kind = "document"
)

// Risk is the discrete classification of a fake-score.
type Risk string

const (
	RiskLow    Risk = "Low"
	RiskMedium Risk = "Medium"
	RiskHigh   Risk = "High"
)

const (
	StatusIdle       = "idle"
	StatusValidating = "validating"
	StatusRunning    = "running"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
)

// MediaRef points at an ingested media object. The file itself lives in the
// object store and is deleted once the owning scan reaches a terminal state.
type MediaRef struct {
	ID         string
	FileName   string
	MimeType   string
	SizeBytes  int64
	StorageKey string
	LiftedText string
}

// Submission is one piece of content presented for analysis. Exactly one of
// Text or Media is meaningful for a given Kind. It is never persisted.
type Submission struct {
	Kind  Kind
	Text  string
	Media *MediaRef
}

// Result is the client-visible outcome of a succeeded scan.
type Result struct {
	FakeScore    int      `json:"fakeScore"`
	RealScore    int      `json:"realScore"`
	Risk         Risk     `json:"risk"`
	Explanations []string `json:"explanations"`
	Advice       string   `json:"advice"`
}

// Scan is the persisted, content-free record of one run. It carries scores
// and bookkeeping but never the submitted text or file.
type Scan struct {
	ID           string     `json:"id"`
	SessionHash  string     `json:"-"`
	Kind         Kind       `json:"kind"`
	Status       string     `json:"status"`
	StageIndex   int        `json:"stageIndex"`
	FakeScore    *int       `json:"fakeScore,omitempty"`
	RealScore    *int       `json:"realScore,omitempty"`
	Risk         string     `json:"risk,omitempty"`
	ErrorCode    string     `json:"errorCode,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// RunError describes why a run failed, in caller-facing terms.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RunView is the session-scoped snapshot returned by status polls.
type RunView struct {
	ScanID     string    `json:"scanId,omitempty"`
	Status     string    `json:"status"`
	StageIndex int       `json:"stageIndex"`
	StageName  string    `json:"stageName,omitempty"`
	StageLabel string    `json:"stageLabel,omitempty"`
	Result     *Result   `json:"result,omitempty"`
	Error      *RunError `json:"error,omitempty"`
}
