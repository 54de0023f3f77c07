package calls

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// CallState is one side's view of the call lifecycle.
type CallState string

const (
	StateIdle      CallState = "idle"
	StateCalling   CallState = "calling"  // outgoing, awaiting answer
	StateIncoming  CallState = "incoming" // ringing, awaiting local accept
	StateConnected CallState = "connected"
)

var ErrBadTransition = errors.New("call state transition not allowed")

// SessionTracker is the per-user call state machine. Each user holds at most
// one active session at a time; every transition is checked, and End is the
// universal escape hatch from any non-idle state.
type SessionTracker struct {
	mu        sync.Mutex
	state     CallState
	sessionID uuid.UUID
}

func NewSessionTracker() *SessionTracker {
	return &SessionTracker{state: StateIdle}
}

// State returns the current state and the session it belongs to.
func (t *SessionTracker) State() (CallState, uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state, t.sessionID
}

// StartOutgoing moves idle -> calling.
func (t *SessionTracker) StartOutgoing(sessionID uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateIdle {
		return ErrBadTransition
	}
	t.state = StateCalling
	t.sessionID = sessionID
	return nil
}

// Ring moves idle -> incoming.
func (t *SessionTracker) Ring(sessionID uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateIdle {
		return ErrBadTransition
	}
	t.state = StateIncoming
	t.sessionID = sessionID
	return nil
}

// Connect moves calling or incoming -> connected, for the same session.
func (t *SessionTracker) Connect(sessionID uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sessionID != sessionID {
		return ErrBadTransition
	}
	if t.state != StateCalling && t.state != StateIncoming {
		return ErrBadTransition
	}
	t.state = StateConnected
	return nil
}

// End returns to idle from any state. Ending an already idle tracker is a
// no-op, so remote hangup racing local hangup is harmless.
func (t *SessionTracker) End(sessionID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateIdle || t.sessionID != sessionID {
		return
	}
	t.state = StateIdle
	t.sessionID = uuid.Nil
}
