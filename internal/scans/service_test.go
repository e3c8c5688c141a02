package scans

import (
	"context"
	"sync"
	"testing"
	"time"

	"truthguard-backend/internal/engine"
	"truthguard-backend/internal/queue"
)

type stubEngine struct {
	scores engine.Scores
	err    error
	block  chan struct{}
}

func (e *stubEngine) Score(ctx context.Context, input engine.Input) (engine.Scores, error) {
	if e.block != nil {
		select {
		case <-ctx.Done():
			return engine.Scores{}, ctx.Err()
		case <-e.block:
		}
	}
	return e.scores, e.err
}

type captureStats struct {
	mu     sync.Mutex
	risks  []string
	failed int
}

func (c *captureStats) RecordScan(ctx context.Context, risk string, failed bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if failed {
		c.failed++
	} else {
		c.risks = append(c.risks, risk)
	}
	return nil
}

func (c *captureStats) snapshot() ([]string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.risks...), c.failed
}

type capturePurger struct {
	mu  sync.Mutex
	ids []string
}

func (c *capturePurger) Purge(ctx context.Context, mediaID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, mediaID)
	return nil
}

func (c *capturePurger) purged() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ids...)
}

type captureQueue struct {
	mu   sync.Mutex
	msgs []queue.Message
}

func (c *captureQueue) Send(ctx context.Context, msg queue.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *captureQueue) sent() []queue.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]queue.Message(nil), c.msgs...)
}

func newTestService(eng engine.Engine) (*Service, *MemoryRepo, *captureStats, *capturePurger, *captureQueue) {
	repo := NewMemoryRepo()
	stats := &captureStats{}
	purger := &capturePurger{}
	jobs := &captureQueue{}
	svc := &Service{
		Repo:          repo,
		Engine:        eng,
		Sessions:      NewSessionManager(),
		Stats:         stats,
		Media:         purger,
		JobQueue:      jobs,
		StageInterval: 2 * time.Millisecond,
		Timeout:       time.Second,
	}
	return svc, repo, stats, purger, jobs
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestSubmitTextRunsToSuccess(t *testing.T) {
	eng := &stubEngine{scores: engine.Scores{Fake: 86, Real: 14}}
	svc, repo, stats, _, jobs := newTestService(eng)

	view, err := svc.Submit(context.Background(), "session-1", Submission{Kind: KindText, Text: "urgent: verify your bank account"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if view.Status != StatusRunning || view.StageIndex != 0 {
		t.Fatalf("expected running at stage 0, got %+v", view)
	}

	waitFor(t, 2*time.Second, func() bool {
		return svc.Status("session-1").Status == StatusSucceeded
	})

	final := svc.Status("session-1")
	if final.Result == nil {
		t.Fatalf("expected result on succeeded view")
	}
	if final.Result.FakeScore != 86 || final.Result.RealScore != 14 {
		t.Fatalf("unexpected scores: %+v", final.Result)
	}
	if final.Result.Risk != RiskHigh {
		t.Fatalf("expected High risk, got %s", final.Result.Risk)
	}
	if len(final.Result.Explanations) != 5 {
		t.Fatalf("expected 5 High findings, got %d", len(final.Result.Explanations))
	}
	if final.StageIndex != FinalStageIndex() {
		t.Fatalf("expected final stage, got %d", final.StageIndex)
	}

	record, err := repo.GetByID(context.Background(), final.ScanID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.Status != StatusSucceeded || record.Risk != "High" {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.FakeScore == nil || *record.FakeScore != 86 {
		t.Fatalf("expected persisted fake score 86")
	}
	if record.CompletedAt == nil {
		t.Fatalf("expected completion timestamp")
	}

	waitFor(t, time.Second, func() bool { return len(jobs.sent()) == 1 })
	msg := jobs.sent()[0]
	if msg.ScanID != final.ScanID || msg.Risk != "High" || msg.Status != StatusSucceeded {
		t.Fatalf("unexpected queue message: %+v", msg)
	}
	if msg.SessionHash == "session-1" || msg.SessionHash == "" {
		t.Fatalf("expected hashed session id in queue message")
	}

	// The worker folds stats from the queue message; the service must not
	// record the same scan a second time.
	if risks, failed := stats.snapshot(); len(risks) != 0 || failed != 0 {
		t.Fatalf("stats recorded despite a configured queue: risks=%v failed=%d", risks, failed)
	}
}

func TestStatsRecordedDirectlyWithoutQueue(t *testing.T) {
	eng := &stubEngine{scores: engine.Scores{Fake: 86, Real: 14}}
	svc, _, stats, _, _ := newTestService(eng)
	svc.JobQueue = nil

	if _, err := svc.Submit(context.Background(), "session-1", Submission{Kind: KindText, Text: "hello"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		risks, _ := stats.snapshot()
		return len(risks) == 1
	})
	risks, failed := stats.snapshot()
	if risks[0] != "High" || failed != 0 {
		t.Fatalf("unexpected stats: risks=%v failed=%d", risks, failed)
	}
}

func TestSuccessNeverPrecedesFinalStage(t *testing.T) {
	eng := &stubEngine{scores: engine.Scores{Fake: 20, Real: 80}}
	svc, _, _, _, _ := newTestService(eng)

	if _, err := svc.Submit(context.Background(), "session-1", Submission{Kind: KindText, Text: "hello"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		return svc.Status("session-1").Status == StatusSucceeded
	})

	events := svc.Events("session-1", 0)
	sawFinalStage := false
	for _, e := range events {
		switch e.Type {
		case EventTypeStage:
			if e.StageIndex == FinalStageIndex() {
				sawFinalStage = true
			}
		case EventTypeResult:
			if !sawFinalStage {
				t.Fatalf("result event published before final stage event")
			}
		}
	}

	stageSeen := -1
	for _, e := range events {
		if e.Type != EventTypeStage {
			continue
		}
		if e.StageIndex <= stageSeen {
			t.Fatalf("stage events regressed: %d after %d", e.StageIndex, stageSeen)
		}
		stageSeen = e.StageIndex
	}
	if stageSeen != FinalStageIndex() {
		t.Fatalf("expected stage events through %d, got %d", FinalStageIndex(), stageSeen)
	}
}

func TestSubmitValidationFailureCreatesNoRun(t *testing.T) {
	eng := &stubEngine{scores: engine.Scores{Fake: 50, Real: 50}}
	svc, _, stats, _, _ := newTestService(eng)

	_, err := svc.Submit(context.Background(), "session-1", Submission{Kind: KindText, Text: "  "})
	verr, ok := AsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Code != ErrorCodeEmptyInput {
		t.Fatalf("expected EMPTY_INPUT, got %s", verr.Code)
	}
	if verr.Warning != "Please paste or type a message before analyzing." {
		t.Fatalf("unexpected warning: %q", verr.Warning)
	}

	if view := svc.Status("session-1"); view.Status != StatusIdle {
		t.Fatalf("expected idle session after rejected submission, got %s", view.Status)
	}
	if risks, failed := stats.snapshot(); len(risks) != 0 || failed != 0 {
		t.Fatalf("validation failures must not reach stats")
	}
}

func TestSubmitEngineFailure(t *testing.T) {
	eng := &stubEngine{err: engine.ErrUnavailable}
	svc, repo, stats, _, _ := newTestService(eng)
	svc.JobQueue = nil

	view, err := svc.Submit(context.Background(), "session-1", Submission{Kind: KindText, Text: "hello"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		return svc.Status("session-1").Status == StatusFailed
	})

	failedView := svc.Status("session-1")
	if failedView.Error == nil || failedView.Error.Code != ErrorCodeEngineUnavailable {
		t.Fatalf("expected ENGINE_UNAVAILABLE, got %+v", failedView.Error)
	}
	if failedView.Result != nil {
		t.Fatalf("failed run must not carry a result")
	}

	record, err := repo.GetByID(context.Background(), view.ScanID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.Status != StatusFailed || record.ErrorCode != ErrorCodeEngineUnavailable {
		t.Fatalf("unexpected record: %+v", record)
	}

	waitFor(t, time.Second, func() bool {
		_, failed := stats.snapshot()
		return failed == 1
	})
}

func TestResubmitSupersedesActiveRun(t *testing.T) {
	block := make(chan struct{})
	eng := &stubEngine{scores: engine.Scores{Fake: 40, Real: 60}, block: block}
	svc, repo, _, _, _ := newTestService(eng)

	first, err := svc.Submit(context.Background(), "session-1", Submission{Kind: KindText, Text: "first"})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	second, err := svc.Submit(context.Background(), "session-1", Submission{Kind: KindText, Text: "second"})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.ScanID == first.ScanID {
		t.Fatalf("expected a fresh scan id")
	}

	close(block)

	waitFor(t, 2*time.Second, func() bool {
		return svc.Status("session-1").Status == StatusSucceeded
	})

	if got := svc.Status("session-1").ScanID; got != second.ScanID {
		t.Fatalf("expected session owned by second run, got %s", got)
	}

	supersededRecord, err := repo.GetByID(context.Background(), first.ScanID)
	if err != nil {
		t.Fatalf("get superseded record: %v", err)
	}
	if supersededRecord.ErrorCode != ErrorCodeSuperseded {
		t.Fatalf("expected SUPERSEDED, got %+v", supersededRecord)
	}
}

func TestResetCancelsInFlightRun(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	eng := &stubEngine{scores: engine.Scores{Fake: 40, Real: 60}, block: block}
	svc, repo, _, _, _ := newTestService(eng)

	view, err := svc.Submit(context.Background(), "session-1", Submission{Kind: KindText, Text: "hello"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	svc.Reset(context.Background(), "session-1")

	if got := svc.Status("session-1"); got.Status != StatusIdle {
		t.Fatalf("expected idle after reset, got %s", got.Status)
	}
	if events := svc.Events("session-1", 0); len(events) != 0 {
		t.Fatalf("expected no events after reset, got %d", len(events))
	}

	record, err := repo.GetByID(context.Background(), view.ScanID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.ErrorCode != ErrorCodeCancelled {
		t.Fatalf("expected CANCELLED, got %+v", record)
	}
}

func TestRunTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	eng := &stubEngine{block: block}
	svc, _, _, _, _ := newTestService(eng)
	svc.Timeout = 30 * time.Millisecond

	if _, err := svc.Submit(context.Background(), "session-1", Submission{Kind: KindText, Text: "hello"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		return svc.Status("session-1").Status == StatusFailed
	})

	view := svc.Status("session-1")
	if view.Error == nil || view.Error.Code != ErrorCodeTimeout {
		t.Fatalf("expected TIMEOUT, got %+v", view.Error)
	}
}

func TestMediaPurgedAfterTerminalRun(t *testing.T) {
	eng := &stubEngine{scores: engine.Scores{Fake: 50, Real: 50}}
	svc, _, _, purger, _ := newTestService(eng)

	sub := Submission{Kind: KindVideo, Media: &MediaRef{ID: "media-1", FileName: "clip.mp4"}}
	if _, err := svc.Submit(context.Background(), "session-1", sub); err != nil {
		t.Fatalf("submit: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		return svc.Status("session-1").Status == StatusSucceeded
	})
	waitFor(t, time.Second, func() bool { return len(purger.purged()) == 1 })

	if got := purger.purged()[0]; got != "media-1" {
		t.Fatalf("expected media-1 purged, got %s", got)
	}
}

func TestSubmitRequiresSession(t *testing.T) {
	eng := &stubEngine{}
	svc, _, _, _, _ := newTestService(eng)

	if _, err := svc.Submit(context.Background(), "  ", Submission{Kind: KindText, Text: "x"}); err != ErrNoSession {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestClassifyEngineFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: ErrorCodeTimeout},
		{name: "unreachable", err: engine.ErrUnreachable, want: ErrorCodeNetworkUnreachable},
		{name: "unavailable", err: engine.ErrUnavailable, want: ErrorCodeEngineUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := classifyEngineFailure(tt.err)
			if code != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, code)
			}
			if msg == "" {
				t.Fatalf("expected a user-facing message")
			}
		})
	}
}
