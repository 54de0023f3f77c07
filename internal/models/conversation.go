package models

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

const (
	ConversationDM    = "dm"
	ConversationGroup = "group"
)

// dmNamespace salts deterministic DM conversation ids.
var dmNamespace = uuid.MustParse("8d6a1b42-0f63-4f1e-9bb6-6be2c2c7a90d")

// DMConversationID derives the conversation id for a one-to-one chat from its
// participant pair. The pair is sorted first, so the id is the same no matter
// which side creates the conversation.
func DMConversationID(a, b uuid.UUID) uuid.UUID {
	lo, hi := a, b
	if bytes.Compare(hi[:], lo[:]) < 0 {
		lo, hi = hi, lo
	}
	name := make([]byte, 0, 32)
	name = append(name, lo[:]...)
	name = append(name, hi[:]...)
	return uuid.NewSHA1(dmNamespace, name)
}

type Conversation struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Type          string     `json:"type" db:"type"` // "dm" or "group"
	Name          *string    `json:"name" db:"name"` // for groups
	AvatarURL     *string    `json:"avatar_url" db:"avatar_url"`
	OwnerID       *uuid.UUID `json:"owner_id" db:"owner_id"`
	LastMessageAt time.Time  `json:"last_message_at" db:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`

	// Joined fields
	Participants []*User  `json:"participants,omitempty"`
	LastMessage  *Message `json:"last_message,omitempty"`
}

// IsOwner reports whether userID holds the privileged role for the
// conversation. DMs have no owner.
func (c *Conversation) IsOwner(userID uuid.UUID) bool {
	return c.OwnerID != nil && *c.OwnerID == userID
}

// DisplayName resolves the directory label for viewerID: the group name for
// groups, the other participant's name for DMs.
func (c *Conversation) DisplayName(viewerID uuid.UUID) string {
	if c.Type == ConversationGroup {
		if c.Name != nil && *c.Name != "" {
			return *c.Name
		}
		return "Group Chat"
	}
	for _, p := range c.Participants {
		if p.ID != viewerID {
			return p.Name()
		}
	}
	return "Saved Messages"
}

// Request DTOs
type CreateDMRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

type CreateGroupRequest struct {
	Name           string   `json:"name" validate:"max=100"`
	ParticipantIDs []string `json:"participant_ids" validate:"required,min=1"`
}

type AddParticipantsRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1"`
}

type UpdateGroupRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}
