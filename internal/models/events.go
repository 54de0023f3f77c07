package models

import "github.com/google/uuid"

// Event types published on user and conversation channels. Each payload is
// wrapped as {"type": <name>, "data": <event>} by the realtime node.
const (
	EventReady              = "READY"
	EventConversationCreate = "CONVERSATION_CREATE"
	EventConversationUpdate = "CONVERSATION_UPDATE"
	EventConversationDelete = "CONVERSATION_DELETE"
	EventMessageCreate      = "MESSAGE_CREATE"
	EventMessageUpdate      = "MESSAGE_UPDATE"
	EventMessageDelete      = "MESSAGE_DELETE"
	EventMessageRead        = "MESSAGE_READ"
	EventReactionUpdate     = "REACTION_UPDATE"
	EventPresenceUpdate     = "PRESENCE_UPDATE"
	EventTyping             = "TYPING"
	EventNotification       = "NOTIFICATION"
	EventCallOffer          = "CALL_OFFER"
	EventCallAnswer         = "CALL_ANSWER"
	EventCallCandidate      = "CALL_CANDIDATE"
	EventCallEnd            = "CALL_END"
)

// ReadyEvent is the full initial snapshot sent after a user-channel subscribe.
type ReadyEvent struct {
	User          *User                      `json:"user"`
	Conversations []*Conversation            `json:"conversations"`
	Presence      map[string]*PresenceRecord `json:"presence"`
	Typing        map[string][]uuid.UUID     `json:"typing,omitempty"`
	ActiveCall    *CallSession               `json:"active_call"`
	IncomingCalls []*CallSession             `json:"incoming_calls"`
}

// Message events
type MessageCreateEvent struct {
	Message        *Message  `json:"message"`
	ConversationID uuid.UUID `json:"conversation_id"`
}

type MessageUpdateEvent struct {
	Message        *Message  `json:"message"`
	ConversationID uuid.UUID `json:"conversation_id"`
}

type MessageDeleteEvent struct {
	MessageID      uuid.UUID `json:"message_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
}

type MessageReadEvent struct {
	MessageID      uuid.UUID `json:"message_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
}

// ReactionUpdateEvent carries the full reaction list for the message after a
// toggle, so clients replace rather than merge.
type ReactionUpdateEvent struct {
	MessageID      uuid.UUID   `json:"message_id"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	Reactions      []*Reaction `json:"reactions"`
}

// Conversation directory events
type ConversationDeleteEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
}

// Presence events
type PresenceUpdateEvent struct {
	UserID uuid.UUID      `json:"user_id"`
	Status PresenceStatus `json:"status"`
}

// TypingEvent reports a peer's typing state for a conversation. Absence of a
// stored signal is reported as an explicit false, never as a missing event.
type TypingEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	Typing         bool      `json:"typing"`
}

// NotificationEvent is the local-notification side channel: a kind-appropriate
// summary for participants who do not have the conversation open.
type NotificationEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	MessageID      uuid.UUID `json:"message_id"`
	SenderName     string    `json:"sender_name"`
	Summary        string    `json:"summary"`
}

// Call events
type CallOfferEvent struct {
	Session *CallSession `json:"session"`
}

type CallAnswerEvent struct {
	SessionID uuid.UUID `json:"session_id"`
	AnswerSDP string    `json:"answer_sdp"`
}

type CallCandidateEvent struct {
	Candidate *CallCandidate `json:"candidate"`
}

type CallEndEvent struct {
	SessionID uuid.UUID `json:"session_id"`
}
