package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDMConversationIDSymmetric(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	assert.Equal(t, DMConversationID(a, b), DMConversationID(b, a),
		"both sides of a pair must derive the same conversation id")
}

func TestDMConversationIDStable(t *testing.T) {
	a := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	b := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	first := DMConversationID(a, b)
	second := DMConversationID(a, b)
	assert.Equal(t, first, second, "id must be deterministic across calls")
}

func TestDMConversationIDDistinctPairs(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	assert.NotEqual(t, DMConversationID(a, b), DMConversationID(a, c))
	assert.NotEqual(t, DMConversationID(a, b), DMConversationID(b, c))
}

func TestConversationDisplayName(t *testing.T) {
	alice := &User{ID: uuid.New(), Email: "alice@example.com"}
	bobName := "Bob"
	bob := &User{ID: uuid.New(), Email: "bob@example.com", DisplayName: &bobName}

	dm := &Conversation{
		Type:         ConversationDM,
		Participants: []*User{alice, bob},
	}

	assert.Equal(t, "Bob", dm.DisplayName(alice.ID))
	assert.Equal(t, "alice", dm.DisplayName(bob.ID), "falls back to email local part")

	groupName := "Weekend Plans"
	group := &Conversation{
		Type:         ConversationGroup,
		Name:         &groupName,
		Participants: []*User{alice, bob},
	}
	assert.Equal(t, "Weekend Plans", group.DisplayName(alice.ID))

	unnamed := &Conversation{Type: ConversationGroup}
	assert.Equal(t, "Group Chat", unnamed.DisplayName(alice.ID))

	self := &Conversation{Type: ConversationDM, Participants: []*User{alice}}
	assert.Equal(t, "Saved Messages", self.DisplayName(alice.ID))
}

func TestConversationIsOwner(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	group := &Conversation{Type: ConversationGroup, OwnerID: &owner}
	assert.True(t, group.IsOwner(owner))
	assert.False(t, group.IsOwner(other))

	dm := &Conversation{Type: ConversationDM}
	assert.False(t, dm.IsOwner(owner), "DMs have no owner")
}
