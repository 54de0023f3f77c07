package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageKind is the closed set of message payload kinds. Persistence and
// rendering both switch over it exhaustively; unknown kinds are rejected at
// the API boundary instead of falling through an open-ended string chain.
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
	KindAudio MessageKind = "audio"
	KindVideo MessageKind = "video"
	KindFile  MessageKind = "file"
	KindCall  MessageKind = "call"
)

func (k MessageKind) Valid() bool {
	switch k {
	case KindText, KindImage, KindAudio, KindVideo, KindFile, KindCall:
		return true
	}
	return false
}

// Summary renders a one-line notification for a message of this kind.
func (k MessageKind) Summary(senderName, body string) string {
	switch k {
	case KindText:
		return fmt.Sprintf("%s: %s", senderName, excerpt(body, 80))
	case KindImage:
		return senderName + " sent an image"
	case KindAudio:
		return senderName + " sent a voice message"
	case KindVideo:
		return senderName + " sent a video"
	case KindFile:
		return senderName + " sent a file"
	case KindCall:
		return senderName + " started a call"
	}
	return senderName + " sent a message"
}

func excerpt(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

type Message struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	ConversationID uuid.UUID   `json:"conversation_id" db:"conversation_id"`
	SenderID       uuid.UUID   `json:"sender_id" db:"sender_id"`
	Kind           MessageKind `json:"kind" db:"kind"`
	Body           *string     `json:"body" db:"body"`
	ReplyToID      *uuid.UUID  `json:"reply_to_id" db:"reply_to_id"`
	Edited         bool        `json:"edited" db:"edited"`
	EditedAt       *time.Time  `json:"edited_at" db:"edited_at"`
	SentAt         time.Time   `json:"sent_at" db:"sent_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`

	// Joined fields
	Sender      *User         `json:"sender,omitempty"`
	ReadBy      []uuid.UUID   `json:"read_by"`
	Reactions   []*Reaction   `json:"reactions,omitempty"`
	Attachments []*Attachment `json:"attachments,omitempty"`
}

// HasRead reports whether userID is in the message's read set.
func (m *Message) HasRead(userID uuid.UUID) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// BodyText returns the body or an empty string for body-less kinds.
func (m *Message) BodyText() string {
	if m.Body == nil {
		return ""
	}
	return *m.Body
}

type Reaction struct {
	ID        uuid.UUID `json:"id" db:"id"`
	MessageID uuid.UUID `json:"message_id" db:"message_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Emoji     string    `json:"emoji" db:"emoji"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Joined fields
	User *User `json:"user,omitempty"`
}

type Attachment struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	MessageID *uuid.UUID `json:"message_id" db:"message_id"`
	Kind      string     `json:"kind" db:"kind"` // image, audio, video, file
	URL       string     `json:"url" db:"url"`
	Filename  string     `json:"filename" db:"filename"`
	Size      int64      `json:"size" db:"size"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Request DTOs
type SendMessageRequest struct {
	Kind          string   `json:"kind" validate:"omitempty,oneof=text image audio video file"`
	Body          string   `json:"body" validate:"max=4000"`
	ReplyToID     string   `json:"reply_to_id" validate:"omitempty,uuid"`
	AttachmentIDs []string `json:"attachment_ids,omitempty" validate:"max=10"`
}

type EditMessageRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

type ReactRequest struct {
	Emoji string `json:"emoji" validate:"required,max=32"`
}
