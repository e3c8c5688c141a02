package scans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"truthguard-backend/internal/engine"
	"truthguard-backend/internal/queue"
	"truthguard-backend/internal/shared/metrics"
	"truthguard-backend/internal/shared/telemetry"
	"truthguard-backend/internal/shared/util"
)

const (
	defaultStageInterval = 750 * time.Millisecond
	defaultTimeout       = 30 * time.Second
)

// StatsRecorder folds terminal scans into aggregate counters.
type StatsRecorder interface {
	RecordScan(ctx context.Context, risk string, failed bool) error
}

// MediaPurger removes an ingested media object once its run is terminal.
type MediaPurger interface {
	Purge(ctx context.Context, mediaID string) error
}

// Service owns the staged analysis pipeline: it validates submissions,
// drives runs through the stage timer, invokes the scoring engine, and keeps
// the session state, scan records, metrics, and stats in step.
type Service struct {
	Repo     Repo
	Engine   engine.Engine
	Sessions *SessionManager
	Stats    StatsRecorder
	Media    MediaPurger
	JobQueue queue.Client

	// StageInterval is the minimum perceived duration of one pipeline
	// stage; Timeout bounds a whole run. Zero values use the defaults.
	StageInterval time.Duration
	Timeout       time.Duration
}

// Submit validates the submission and, on success, starts an asynchronous
// run, superseding any non-terminal run on the same session. It returns a
// *ValidationError without creating a run when the submission is malformed;
// the submission content itself is never retained beyond the run.
func (s *Service) Submit(ctx context.Context, sessionID string, sub Submission) (RunView, error) {
	if strings.TrimSpace(sessionID) == "" {
		return RunView{Status: StatusIdle}, ErrNoSession
	}
	if err := Validate(sub); err != nil {
		return RunView{Status: StatusIdle}, err
	}

	sess := s.Sessions.Get(sessionID)
	runCtx, cancel := context.WithCancel(backgroundWithRequestID(ctx))

	scanID := uuid.NewString()
	superseded, wasActive := sess.Begin(scanID, sub.Kind, cancel)
	if wasActive {
		s.markSuperseded(ctx, superseded)
	}

	now := time.Now().UTC()
	scan := Scan{
		ID:          scanID,
		SessionHash: util.HashSessionKey(sessionID),
		Kind:        sub.Kind,
		Status:      StatusValidating,
		CreatedAt:   now,
	}
	if err := s.Repo.Create(ctx, scan); err != nil {
		cancel()
		sess.Fail(scanID, ErrorCodeInternal, "failed to start analysis")
		return sess.View(), err
	}

	startedAt := time.Now().UTC()
	if err := s.Repo.UpdateStatus(ctx, scanID, StatusRunning, &startedAt); err != nil {
		telemetry.Error("scan.status", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"scan_id":    scanID,
			"error":      err.Error(),
		})
	}
	metrics.IncScanStarted()
	telemetry.Info("scan.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"scan_id":           scanID,
		"kind":              string(sub.Kind),
		"status":            StatusRunning,
		"status_transition": "validating->running",
	})

	stage := StageAt(0)
	sess.Events().Publish(Event{
		ScanID:     scanID,
		Type:       EventTypeStage,
		Status:     StatusRunning,
		StageIndex: 0,
		StageName:  stage.Name,
		Message:    stage.Label,
	})

	go s.runPipeline(runCtx, sess, scanID, sub, startedAt)

	return sess.View(), nil
}

// Status returns the session's current run snapshot, idle when no run exists.
func (s *Service) Status(sessionID string) RunView {
	sess, ok := s.Sessions.Lookup(sessionID)
	if !ok {
		return RunView{Status: StatusIdle}
	}
	return sess.View()
}

// Events returns progress events with sequence greater than since.
func (s *Service) Events(sessionID string, since int64) []Event {
	sess, ok := s.Sessions.Lookup(sessionID)
	if !ok {
		return []Event{}
	}
	return sess.Events().Since(since)
}

// Reset discards the session's run from any state, cancelling in-flight
// work. No partial results survive; the session returns to idle.
func (s *Service) Reset(ctx context.Context, sessionID string) {
	sess, ok := s.Sessions.Lookup(sessionID)
	if !ok {
		return
	}
	scanID, wasActive := sess.Reset()
	if !wasActive {
		return
	}
	completedAt := time.Now().UTC()
	if err := s.Repo.UpdateFailure(context.Background(), scanID, ErrorCodeCancelled, "cancelled by reset", completedAt); err != nil {
		telemetry.Error("scan.status", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"scan_id":    scanID,
			"error":      err.Error(),
		})
	}
	telemetry.Info("scan.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"scan_id":           scanID,
		"status":            StatusFailed,
		"status_transition": "running->failed",
		"error_code":        ErrorCodeCancelled,
	})
}

// GetRecord returns the content-free persisted record of a scan.
func (s *Service) GetRecord(ctx context.Context, scanID string) (Scan, error) {
	if scanID == "" {
		return Scan{}, errors.New("scanID is required")
	}
	return s.Repo.GetByID(ctx, scanID)
}

type scoreOutcome struct {
	scores engine.Scores
	err    error
}

func (s *Service) runPipeline(ctx context.Context, sess *Session, scanID string, sub Submission, startedAt time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.failRun(ctx, sess, scanID, sub, ErrorCodeInternal, "Unexpected analysis error.", fmt.Errorf("panic: %v", r), startedAt)
		}
	}()

	stageInterval := s.StageInterval
	if stageInterval <= 0 {
		stageInterval = defaultStageInterval
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	scoreCh := make(chan scoreOutcome, 1)
	go func() {
		scores, err := s.Engine.Score(ctx, engineInput(sub))
		scoreCh <- scoreOutcome{scores: scores, err: err}
	}()

	ticker := time.NewTicker(stageInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	var outcome *scoreOutcome
	for {
		select {
		case <-ctx.Done():
			// Superseded or reset; the successor owns the session now.
			return

		case o := <-scoreCh:
			if o.err != nil {
				if ctx.Err() != nil {
					return
				}
				code, msg := classifyEngineFailure(o.err)
				s.failRun(ctx, sess, scanID, sub, code, msg, o.err, startedAt)
				return
			}
			outcome = &o
			if sess.StageIndex(scanID) >= FinalStageIndex() {
				s.succeedRun(ctx, sess, scanID, sub, outcome.scores, startedAt)
				return
			}

		case <-ticker.C:
			next := sess.StageIndex(scanID) + 1
			if next == 0 {
				// Run no longer owns the session.
				return
			}
			if next <= FinalStageIndex() {
				if sess.AdvanceStage(scanID, next) {
					stage := StageAt(next)
					sess.Events().Publish(Event{
						ScanID:     scanID,
						Type:       EventTypeStage,
						Status:     StatusRunning,
						StageIndex: next,
						StageName:  stage.Name,
						Message:    stage.Label,
					})
					if err := s.Repo.UpdateStage(ctx, scanID, next); err != nil && ctx.Err() == nil {
						telemetry.Error("scan.stage", map[string]any{
							"scan_id": scanID,
							"stage":   next,
							"error":   err.Error(),
						})
					}
				}
			}
			if outcome != nil && sess.StageIndex(scanID) >= FinalStageIndex() {
				s.succeedRun(ctx, sess, scanID, sub, outcome.scores, startedAt)
				return
			}

		case <-deadline.C:
			s.failRun(ctx, sess, scanID, sub, ErrorCodeTimeout, "Analysis timed out. Please try again.",
				fmt.Errorf("run exceeded %s", timeout), startedAt)
			return
		}
	}
}

func (s *Service) succeedRun(ctx context.Context, sess *Session, scanID string, sub Submission, scores engine.Scores, startedAt time.Time) {
	risk := Classify(scores.Fake)
	result := &Result{
		FakeScore:    scores.Fake,
		RealScore:    scores.Real,
		Risk:         risk,
		Explanations: Explain(risk),
		Advice:       AdviceFor(risk),
	}
	if !sess.Succeed(scanID, result) {
		return
	}

	completedAt := time.Now().UTC()
	if err := s.Repo.UpdateResult(context.Background(), scanID, scores.Fake, scores.Real, string(risk), completedAt); err != nil {
		telemetry.Error("scan.status", map[string]any{
			"scan_id": scanID,
			"error":   err.Error(),
		})
	}

	sess.Events().Publish(Event{
		ScanID:     scanID,
		Type:       EventTypeResult,
		Status:     StatusSucceeded,
		StageIndex: FinalStageIndex(),
		StageName:  StageAt(FinalStageIndex()).Name,
		Result:     result,
	})

	metrics.IncScanCompleted()
	metrics.IncScanRisk(string(risk))
	metrics.ObserveScanDurationMs(durationMs(startedAt, completedAt))
	telemetry.Info("scan.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"scan_id":           scanID,
		"kind":              string(sub.Kind),
		"status":            StatusSucceeded,
		"status_transition": "running->succeeded",
		"risk":              string(risk),
		"duration_ms":       durationMs(startedAt, completedAt),
	})

	s.finishScan(sess, scanID, sub, string(risk), StatusSucceeded, requestIDFromContext(ctx))
}

func (s *Service) failRun(ctx context.Context, sess *Session, scanID string, sub Submission, code, userMessage string, cause error, startedAt time.Time) {
	if !sess.Fail(scanID, code, userMessage) {
		return
	}

	completedAt := time.Now().UTC()
	if err := s.Repo.UpdateFailure(context.Background(), scanID, code, sanitizeError(cause), completedAt); err != nil {
		telemetry.Error("scan.status", map[string]any{
			"scan_id": scanID,
			"error":   err.Error(),
		})
	}

	sess.Events().Publish(Event{
		ScanID:    scanID,
		Type:      EventTypeError,
		Status:    StatusFailed,
		Message:   userMessage,
		ErrorCode: code,
	})

	metrics.IncScanFailed()
	metrics.ObserveScanDurationMs(durationMs(startedAt, completedAt))
	telemetry.Info("scan.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"scan_id":           scanID,
		"kind":              string(sub.Kind),
		"status":            StatusFailed,
		"status_transition": "running->failed",
		"error_code":        code,
		"error":             sanitizeError(cause),
		"duration_ms":       durationMs(startedAt, completedAt),
	})

	s.finishScan(sess, scanID, sub, "", StatusFailed, requestIDFromContext(ctx))
}

// finishScan handles the side effects shared by both terminal outcomes:
// aggregate stats, the queue notification, and dropping the uploaded media
// object so no content outlives the run.
//
// Exactly one path folds the outcome into stats: the worker consuming the
// queue message when a queue is configured, this process otherwise.
func (s *Service) finishScan(sess *Session, scanID string, sub Submission, risk, status, requestID string) {
	bg := context.Background()

	if s.Stats != nil && s.JobQueue == nil {
		if err := s.Stats.RecordScan(bg, risk, status == StatusFailed); err != nil {
			telemetry.Error("scan.stats", map[string]any{"scan_id": scanID, "error": err.Error()})
		}
	}

	if s.JobQueue != nil {
		msg := queue.Message{
			ScanID:      scanID,
			SessionHash: util.HashSessionKey(sess.ID()),
			Risk:        risk,
			Status:      status,
			RequestID:   requestID,
			EnqueuedAt:  time.Now().UTC().Format(time.RFC3339),
			Version:     1,
		}
		if err := s.JobQueue.Send(bg, msg); err != nil {
			telemetry.Error("scan.queue", map[string]any{"scan_id": scanID, "error": err.Error()})
		}
	}

	if sub.Media != nil && s.Media != nil {
		if err := s.Media.Purge(bg, sub.Media.ID); err != nil {
			telemetry.Error("scan.media_purge", map[string]any{"scan_id": scanID, "media_id": sub.Media.ID, "error": err.Error()})
		}
	}
}

func (s *Service) markSuperseded(ctx context.Context, scanID string) {
	completedAt := time.Now().UTC()
	if err := s.Repo.UpdateFailure(context.Background(), scanID, ErrorCodeSuperseded, "superseded by a newer submission", completedAt); err != nil {
		telemetry.Error("scan.status", map[string]any{"scan_id": scanID, "error": err.Error()})
	}
	telemetry.Info("scan.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"scan_id":           scanID,
		"status":            StatusFailed,
		"status_transition": "running->failed",
		"error_code":        ErrorCodeSuperseded,
	})
}

func engineInput(sub Submission) engine.Input {
	in := engine.Input{Kind: string(sub.Kind)}
	switch sub.Kind {
	case KindText:
		in.Text = sub.Text
	case KindDocument:
		if sub.Media != nil {
			in.Text = sub.Media.LiftedText
		}
	}
	return in
}

func classifyEngineFailure(err error) (string, string) {
	if err == nil {
		return ErrorCodeInternal, "Unexpected analysis error."
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeTimeout, "Analysis timed out. Please try again."
	}
	if errors.Is(err, engine.ErrUnreachable) {
		return ErrorCodeNetworkUnreachable, "Cannot reach the analysis server. Please try again shortly."
	}
	if errors.Is(err, engine.ErrUnavailable) {
		return ErrorCodeEngineUnavailable, "The analysis engine is unavailable right now."
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") {
		return ErrorCodeTimeout, "Analysis timed out. Please try again."
	}
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") || strings.Contains(msg, "unreachable") {
		return ErrorCodeNetworkUnreachable, "Cannot reach the analysis server. Please try again shortly."
	}
	return ErrorCodeEngineUnavailable, "The analysis engine is unavailable right now."
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}

func durationMs(startedAt, completedAt time.Time) float64 {
	if startedAt.IsZero() || completedAt.IsZero() {
		return 0
	}
	return float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0
}
