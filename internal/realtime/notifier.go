package realtime

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/user/orbit-back/internal/models"
)

// ContactsProvider resolves who can see a user's presence.
type ContactsProvider interface {
	GetContactIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	GetParticipantIDs(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error)
}

// Broker is the publish surface the Notifier fans events out through.
// Node implements it.
type Broker interface {
	PublishToUser(userID uuid.UUID, eventType string, data interface{}) error
	PublishToUsers(userIDs []uuid.UUID, eventType string, data interface{})
	PublishToConversation(convID uuid.UUID, eventType string, data interface{}) error
	HasConversationOpen(userID, convID uuid.UUID) bool
}

// Notifier wraps the node for use in handlers and services. Conversation-
// scoped events go to the conversation channel; directory, presence,
// notification and call events go to per-user channels.
type Notifier struct {
	node     Broker
	contacts ContactsProvider
}

func NewNotifier(node Broker, contacts ContactsProvider) *Notifier {
	return &Notifier{node: node, contacts: contacts}
}

func (n *Notifier) NotifyUser(userID uuid.UUID, eventType string, data interface{}) error {
	return n.node.PublishToUser(userID, eventType, data)
}

func (n *Notifier) NotifyUsers(userIDs []uuid.UUID, eventType string, data interface{}) {
	n.node.PublishToUsers(userIDs, eventType, data)
}

// MessageCreated publishes the new message to the conversation channel and
// fans a notification out to participants who do not have the conversation
// open. The sender is never notified of their own message.
func (n *Notifier) MessageCreated(ctx context.Context, msg *models.Message) {
	event := models.MessageCreateEvent{Message: msg, ConversationID: msg.ConversationID}
	if err := n.node.PublishToConversation(msg.ConversationID, models.EventMessageCreate, event); err != nil {
		log.Printf("Failed to publish message create: %v", err)
	}

	participantIDs, err := n.contacts.GetParticipantIDs(ctx, msg.ConversationID)
	if err != nil {
		log.Printf("Failed to get participants for notification: %v", err)
		return
	}

	senderName := ""
	if msg.Sender != nil {
		senderName = msg.Sender.Name()
	}
	notification := models.NotificationEvent{
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
		SenderName:     senderName,
		Summary:        msg.Kind.Summary(senderName, msg.BodyText()),
	}

	for _, pid := range participantIDs {
		if pid == msg.SenderID {
			continue
		}
		if n.node.HasConversationOpen(pid, msg.ConversationID) {
			continue
		}
		if err := n.node.PublishToUser(pid, models.EventNotification, notification); err != nil {
			log.Printf("Failed to notify user %s: %v", pid, err)
		}
	}
}

func (n *Notifier) MessageUpdated(msg *models.Message) {
	event := models.MessageUpdateEvent{Message: msg, ConversationID: msg.ConversationID}
	if err := n.node.PublishToConversation(msg.ConversationID, models.EventMessageUpdate, event); err != nil {
		log.Printf("Failed to publish message update: %v", err)
	}
}

func (n *Notifier) MessageDeleted(convID, messageID uuid.UUID) {
	event := models.MessageDeleteEvent{MessageID: messageID, ConversationID: convID}
	if err := n.node.PublishToConversation(convID, models.EventMessageDelete, event); err != nil {
		log.Printf("Failed to publish message delete: %v", err)
	}
}

func (n *Notifier) MessageRead(convID, messageID, readerID uuid.UUID) {
	event := models.MessageReadEvent{MessageID: messageID, ConversationID: convID, UserID: readerID}
	if err := n.node.PublishToConversation(convID, models.EventMessageRead, event); err != nil {
		log.Printf("Failed to publish message read: %v", err)
	}
}

func (n *Notifier) ReactionsChanged(convID, messageID uuid.UUID, reactions []*models.Reaction) {
	event := models.ReactionUpdateEvent{MessageID: messageID, ConversationID: convID, Reactions: reactions}
	if err := n.node.PublishToConversation(convID, models.EventReactionUpdate, event); err != nil {
		log.Printf("Failed to publish reaction update: %v", err)
	}
}

// ConversationChanged pushes a directory entry to every participant.
func (n *Notifier) ConversationChanged(eventType string, conv *models.Conversation) {
	ids := make([]uuid.UUID, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		ids = append(ids, p.ID)
	}
	n.node.PublishToUsers(ids, eventType, conv)
}

func (n *Notifier) ConversationDeleted(convID uuid.UUID, participantIDs []uuid.UUID) {
	event := models.ConversationDeleteEvent{ConversationID: convID}
	n.node.PublishToUsers(participantIDs, models.EventConversationDelete, event)
}

// PublishTyping fans a typing change out on the conversation channel.
func (n *Notifier) PublishTyping(conversationID, userID uuid.UUID, typing bool) {
	event := models.TypingEvent{ConversationID: conversationID, UserID: userID, Typing: typing}
	if err := n.node.PublishToConversation(conversationID, models.EventTyping, event); err != nil {
		log.Printf("Failed to publish typing event: %v", err)
	}
}

// BroadcastPresence sends a presence change to everyone sharing a
// conversation with the user, plus the user's own other connections.
func (n *Notifier) BroadcastPresence(record *models.PresenceRecord) {
	contactIDs, err := n.contacts.GetContactIDs(context.Background(), record.UserID)
	if err != nil {
		log.Printf("Failed to get contacts for presence update: %v", err)
		return
	}

	event := models.PresenceUpdateEvent{UserID: record.UserID, Status: record.Status}
	n.node.PublishToUsers(append(contactIDs, record.UserID), models.EventPresenceUpdate, event)
}

// Call signaling relay. Each event goes to the side that needs to react.

func (n *Notifier) CallOffered(session *models.CallSession) {
	event := models.CallOfferEvent{Session: session}
	if err := n.node.PublishToUser(session.CalleeID, models.EventCallOffer, event); err != nil {
		log.Printf("Failed to publish call offer: %v", err)
	}
}

func (n *Notifier) CallAnswered(session *models.CallSession) {
	answer := ""
	if session.AnswerSDP != nil {
		answer = *session.AnswerSDP
	}
	event := models.CallAnswerEvent{SessionID: session.ID, AnswerSDP: answer}
	if err := n.node.PublishToUser(session.CallerID, models.EventCallAnswer, event); err != nil {
		log.Printf("Failed to publish call answer: %v", err)
	}
}

func (n *Notifier) CallCandidateAdded(session *models.CallSession, candidate *models.CallCandidate) {
	var target uuid.UUID
	if candidate.Role == models.RoleCaller {
		target = session.CalleeID
	} else {
		target = session.CallerID
	}
	event := models.CallCandidateEvent{Candidate: candidate}
	if err := n.node.PublishToUser(target, models.EventCallCandidate, event); err != nil {
		log.Printf("Failed to publish call candidate: %v", err)
	}
}

func (n *Notifier) CallEnded(session *models.CallSession) {
	event := models.CallEndEvent{SessionID: session.ID}
	n.node.PublishToUsers([]uuid.UUID{session.CallerID, session.CalleeID}, models.EventCallEnd, event)
}
