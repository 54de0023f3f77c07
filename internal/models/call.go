package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type CallStatus string

const (
	CallCalling   CallStatus = "calling"
	CallConnected CallStatus = "connected"
	CallEnded     CallStatus = "ended" // tombstone, never deleted
)

// CallRole identifies which side of a session wrote a candidate.
type CallRole string

const (
	RoleCaller CallRole = "caller"
	RoleCallee CallRole = "callee"
)

// Other returns the opposite role.
func (r CallRole) Other() CallRole {
	if r == RoleCaller {
		return RoleCallee
	}
	return RoleCaller
}

// CallSession carries the offer/answer exchange for a one-to-one call. SDP
// blobs and ICE candidates are opaque to this service; it only relays them.
type CallSession struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CallerID  uuid.UUID  `json:"caller_id" db:"caller_id"`
	CalleeID  uuid.UUID  `json:"callee_id" db:"callee_id"`
	OfferSDP  string     `json:"offer_sdp" db:"offer_sdp"`
	AnswerSDP *string    `json:"answer_sdp" db:"answer_sdp"`
	Status    CallStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	EndedAt   *time.Time `json:"ended_at" db:"ended_at"`

	// Joined fields
	Caller *User `json:"caller,omitempty"`
	Callee *User `json:"callee,omitempty"`
}

// PeerOf returns the other participant, or uuid.Nil if userID is not part of
// the session.
func (s *CallSession) PeerOf(userID uuid.UUID) uuid.UUID {
	switch userID {
	case s.CallerID:
		return s.CalleeID
	case s.CalleeID:
		return s.CallerID
	}
	return uuid.Nil
}

// RoleOf returns which side userID plays in the session.
func (s *CallSession) RoleOf(userID uuid.UUID) (CallRole, bool) {
	switch userID {
	case s.CallerID:
		return RoleCaller, true
	case s.CalleeID:
		return RoleCallee, true
	}
	return "", false
}

type CallCandidate struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	SessionID uuid.UUID       `json:"session_id" db:"session_id"`
	Role      CallRole        `json:"role" db:"role"`
	Candidate json.RawMessage `json:"candidate" db:"candidate"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Request DTOs
type StartCallRequest struct {
	CalleeID string `json:"callee_id" validate:"required,uuid"`
	OfferSDP string `json:"offer_sdp" validate:"required"`
}

type AnswerCallRequest struct {
	AnswerSDP string `json:"answer_sdp" validate:"required"`
}

type AddCandidateRequest struct {
	Candidate json.RawMessage `json:"candidate" validate:"required"`
}
