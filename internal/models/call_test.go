package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCallRoleOther(t *testing.T) {
	assert.Equal(t, RoleCallee, RoleCaller.Other())
	assert.Equal(t, RoleCaller, RoleCallee.Other())
}

func TestCallSessionPeerOfAndRoleOf(t *testing.T) {
	caller := uuid.New()
	callee := uuid.New()
	stranger := uuid.New()

	s := &CallSession{CallerID: caller, CalleeID: callee}

	assert.Equal(t, callee, s.PeerOf(caller))
	assert.Equal(t, caller, s.PeerOf(callee))
	assert.Equal(t, uuid.Nil, s.PeerOf(stranger))

	role, ok := s.RoleOf(caller)
	assert.True(t, ok)
	assert.Equal(t, RoleCaller, role)

	role, ok = s.RoleOf(callee)
	assert.True(t, ok)
	assert.Equal(t, RoleCallee, role)

	_, ok = s.RoleOf(stranger)
	assert.False(t, ok)
}
