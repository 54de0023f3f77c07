package calls

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTrackerCallerLifecycle(t *testing.T) {
	tr := NewSessionTracker()
	sessionID := uuid.New()

	state, _ := tr.State()
	assert.Equal(t, StateIdle, state)

	require.NoError(t, tr.StartOutgoing(sessionID))
	state, id := tr.State()
	assert.Equal(t, StateCalling, state)
	assert.Equal(t, sessionID, id)

	require.NoError(t, tr.Connect(sessionID))
	state, _ = tr.State()
	assert.Equal(t, StateConnected, state)

	tr.End(sessionID)
	state, _ = tr.State()
	assert.Equal(t, StateIdle, state)
}

func TestSessionTrackerCalleeLifecycle(t *testing.T) {
	tr := NewSessionTracker()
	sessionID := uuid.New()

	require.NoError(t, tr.Ring(sessionID))
	state, _ := tr.State()
	assert.Equal(t, StateIncoming, state)

	require.NoError(t, tr.Connect(sessionID))
	state, _ = tr.State()
	assert.Equal(t, StateConnected, state)

	tr.End(sessionID)
	state, _ = tr.State()
	assert.Equal(t, StateIdle, state)
}

func TestSessionTrackerRejectsDoubleStart(t *testing.T) {
	tr := NewSessionTracker()

	require.NoError(t, tr.StartOutgoing(uuid.New()))
	assert.ErrorIs(t, tr.StartOutgoing(uuid.New()), ErrBadTransition)
	assert.ErrorIs(t, tr.Ring(uuid.New()), ErrBadTransition)
}

func TestSessionTrackerConnectRequiresMatchingSession(t *testing.T) {
	tr := NewSessionTracker()
	sessionID := uuid.New()

	require.NoError(t, tr.StartOutgoing(sessionID))
	assert.ErrorIs(t, tr.Connect(uuid.New()), ErrBadTransition)

	// Still connectable with the right session
	require.NoError(t, tr.Connect(sessionID))
}

func TestSessionTrackerConnectFromIdleFails(t *testing.T) {
	tr := NewSessionTracker()
	assert.ErrorIs(t, tr.Connect(uuid.New()), ErrBadTransition)
}

func TestSessionTrackerEndIsIdempotent(t *testing.T) {
	tr := NewSessionTracker()
	sessionID := uuid.New()

	require.NoError(t, tr.Ring(sessionID))
	tr.End(sessionID)
	tr.End(sessionID) // remote hangup racing local hangup

	state, _ := tr.State()
	assert.Equal(t, StateIdle, state)

	// Tracker is reusable for the next call
	require.NoError(t, tr.StartOutgoing(uuid.New()))
}

func TestSessionTrackerEndIgnoresForeignSession(t *testing.T) {
	tr := NewSessionTracker()
	sessionID := uuid.New()

	require.NoError(t, tr.StartOutgoing(sessionID))
	tr.End(uuid.New())

	state, id := tr.State()
	assert.Equal(t, StateCalling, state, "a stray end for another session must not tear the call down")
	assert.Equal(t, sessionID, id)
}

func TestSessionTrackerEndFromRinging(t *testing.T) {
	tr := NewSessionTracker()
	sessionID := uuid.New()

	// Declining before answer goes straight back to idle
	require.NoError(t, tr.Ring(sessionID))
	tr.End(sessionID)
	state, _ := tr.State()
	assert.Equal(t, StateIdle, state)
}
