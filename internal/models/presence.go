package models

import (
	"time"

	"github.com/google/uuid"
)

type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusAway    PresenceStatus = "away"
	StatusOffline PresenceStatus = "offline"
)

func (s PresenceStatus) Valid() bool {
	switch s {
	case StatusOnline, StatusAway, StatusOffline:
		return true
	}
	return false
}

// PresenceRecord is one row per user, upserted by that user's own client and
// readable by everyone.
type PresenceRecord struct {
	UserID        uuid.UUID      `json:"user_id" db:"user_id"`
	Status        PresenceStatus `json:"status" db:"status"`
	LastChangedAt time.Time      `json:"last_changed_at" db:"last_changed_at"`
}

type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=online away offline"`
}
