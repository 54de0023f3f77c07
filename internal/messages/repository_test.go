package messages

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/user/orbit-back/internal/models"
)

// Hard deletion is reserved for group owners. A DM participant must never be
// able to destroy the peer's copy of the history; they hide instead.
func TestCanDeleteRejectsDMs(t *testing.T) {
	participant := uuid.New()

	err := canDelete(models.ConversationDM, nil, participant)
	assert.ErrorIs(t, err, ErrCannotDeleteDM)

	// Even a hypothetical owner column on a DM does not open the door.
	err = canDelete(models.ConversationDM, &participant, participant)
	assert.ErrorIs(t, err, ErrCannotDeleteDM)
}

func TestCanDeleteGroupOwnerOnly(t *testing.T) {
	owner := uuid.New()
	member := uuid.New()

	assert.NoError(t, canDelete(models.ConversationGroup, &owner, owner))
	assert.ErrorIs(t, canDelete(models.ConversationGroup, &owner, member), ErrNotOwner)
	assert.ErrorIs(t, canDelete(models.ConversationGroup, nil, member), ErrNotOwner)
}
