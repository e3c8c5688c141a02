package scans

import (
	"context"
	"sync"
)

// Session tracks the single allowed active run for one caller session and
// its observable state. All mutation goes through guarded methods keyed by
// scan ID, so goroutines belonging to a superseded run can never touch the
// state of its successor.
type Session struct {
	mu     sync.RWMutex
	id     string
	events *EventBus
	run    *activeRun
}

type activeRun struct {
	scanID     string
	kind       Kind
	status     string
	stageIndex int
	result     *Result
	runErr     *RunError
	cancel     context.CancelFunc
}

// NewSession creates an idle session.
func NewSession(id string) *Session {
	return &Session{
		id:     id,
		events: NewEventBus(0),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Events exposes the session's progress event buffer.
func (s *Session) Events() *EventBus { return s.events }

// Begin installs a new run, cancelling and superseding any prior
// non-terminal run. It returns the superseded scan ID, if any.
func (s *Session) Begin(scanID string, kind Kind, cancel context.CancelFunc) (superseded string, wasActive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil {
		if s.run.cancel != nil {
			s.run.cancel()
		}
		if !isTerminal(s.run.status) {
			superseded = s.run.scanID
			wasActive = true
		}
	}
	s.run = &activeRun{
		scanID: scanID,
		kind:   kind,
		status: StatusRunning,
		cancel: cancel,
	}
	return superseded, wasActive
}

// AdvanceStage moves the stage pointer forward for the given run. Stage
// indexes are monotonically non-decreasing; stale or backward updates are
// dropped.
func (s *Session) AdvanceStage(scanID string, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.owns(scanID) || isTerminal(s.run.status) || index <= s.run.stageIndex {
		return false
	}
	s.run.stageIndex = index
	return true
}

// Succeed attaches the result and marks the run terminal. It refuses to
// complete before the stage pointer has reached the final stage.
func (s *Session) Succeed(scanID string, result *Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.owns(scanID) || isTerminal(s.run.status) {
		return false
	}
	if s.run.stageIndex < FinalStageIndex() {
		return false
	}
	s.run.status = StatusSucceeded
	s.run.result = result
	s.run.cancel = nil
	return true
}

// Fail marks the run terminal with a classified error.
func (s *Session) Fail(scanID, code, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.owns(scanID) || isTerminal(s.run.status) {
		return false
	}
	s.run.status = StatusFailed
	s.run.runErr = &RunError{Code: code, Message: message}
	s.run.cancel = nil
	return true
}

// Reset cancels any in-flight work and returns the session to idle. It is
// valid from any state and reports the discarded scan ID if a run was still
// active.
func (s *Session) Reset() (scanID string, wasActive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil {
		if s.run.cancel != nil {
			s.run.cancel()
		}
		if !isTerminal(s.run.status) {
			scanID = s.run.scanID
			wasActive = true
		}
	}
	s.run = nil
	s.events.Clear()
	return scanID, wasActive
}

// View returns a snapshot of the current run, or an idle view.
func (s *Session) View() RunView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.run == nil {
		return RunView{Status: StatusIdle}
	}
	stage := StageAt(s.run.stageIndex)
	view := RunView{
		ScanID:     s.run.scanID,
		Status:     s.run.status,
		StageIndex: s.run.stageIndex,
		StageName:  stage.Name,
		StageLabel: stage.Label,
	}
	if s.run.status == StatusSucceeded {
		view.Result = s.run.result
	}
	if s.run.status == StatusFailed {
		view.Error = s.run.runErr
	}
	return view
}

// StageIndex returns the current stage pointer for the given run, or -1
// when the run no longer owns the session.
func (s *Session) StageIndex(scanID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.owns(scanID) {
		return -1
	}
	return s.run.stageIndex
}

func (s *Session) owns(scanID string) bool {
	return s.run != nil && s.run.scanID == scanID
}

func isTerminal(status string) bool {
	return status == StatusSucceeded || status == StatusFailed
}

// SessionManager hands out sessions keyed by session ID and is safe for
// concurrent use.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager constructs an empty manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// Get returns the session for id, creating it on first use.
func (m *SessionManager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := NewSession(id)
	m.sessions[id] = s
	return s
}

// Lookup returns the session for id without creating one.
func (m *SessionManager) Lookup(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Drop removes a session, used when an idle session is reset away.
func (m *SessionManager) Drop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
