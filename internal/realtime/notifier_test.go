package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/orbit-back/internal/models"
)

type publishedEvent struct {
	userID    uuid.UUID
	convID    uuid.UUID
	eventType string
	data      interface{}
}

type fakeBroker struct {
	userEvents []publishedEvent
	convEvents []publishedEvent
	open       map[uuid.UUID]uuid.UUID // userID -> conversation they are viewing
}

func (b *fakeBroker) PublishToUser(userID uuid.UUID, eventType string, data interface{}) error {
	b.userEvents = append(b.userEvents, publishedEvent{userID: userID, eventType: eventType, data: data})
	return nil
}

func (b *fakeBroker) PublishToUsers(userIDs []uuid.UUID, eventType string, data interface{}) {
	for _, id := range userIDs {
		b.PublishToUser(id, eventType, data)
	}
}

func (b *fakeBroker) PublishToConversation(convID uuid.UUID, eventType string, data interface{}) error {
	b.convEvents = append(b.convEvents, publishedEvent{convID: convID, eventType: eventType, data: data})
	return nil
}

func (b *fakeBroker) HasConversationOpen(userID, convID uuid.UUID) bool {
	return b.open[userID] == convID
}

type fakeContacts struct {
	participants []uuid.UUID
}

func (c *fakeContacts) GetContactIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return c.participants, nil
}

func (c *fakeContacts) GetParticipantIDs(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	return c.participants, nil
}

func textMessage(convID, senderID uuid.UUID, body string) *models.Message {
	name := "Alice"
	return &models.Message{
		ID:             uuid.New(),
		ConversationID: convID,
		SenderID:       senderID,
		Kind:           models.KindText,
		Body:           &body,
		SentAt:         time.Now(),
		Sender:         &models.User{ID: senderID, Email: "alice@example.com", DisplayName: &name},
		ReadBy:         []uuid.UUID{senderID},
	}
}

func TestMessageCreatedPublishesOnceToConversation(t *testing.T) {
	convID := uuid.New()
	sender := uuid.New()
	peer := uuid.New()

	broker := &fakeBroker{open: map[uuid.UUID]uuid.UUID{}}
	n := NewNotifier(broker, &fakeContacts{participants: []uuid.UUID{sender, peer}})

	n.MessageCreated(context.Background(), textMessage(convID, sender, "hello"))

	require.Len(t, broker.convEvents, 1, "exactly one channel event per send")
	assert.Equal(t, models.EventMessageCreate, broker.convEvents[0].eventType)
	assert.Equal(t, convID, broker.convEvents[0].convID)

	event, ok := broker.convEvents[0].data.(models.MessageCreateEvent)
	require.True(t, ok)
	assert.Equal(t, []uuid.UUID{sender}, event.Message.ReadBy, "a fresh message is read by its sender only")
}

func TestMessageCreatedSkipsSenderAndViewers(t *testing.T) {
	convID := uuid.New()
	sender := uuid.New()
	viewer := uuid.New()
	away := uuid.New()

	broker := &fakeBroker{open: map[uuid.UUID]uuid.UUID{viewer: convID}}
	n := NewNotifier(broker, &fakeContacts{participants: []uuid.UUID{sender, viewer, away}})

	n.MessageCreated(context.Background(), textMessage(convID, sender, "hello"))

	// Only the participant not currently viewing the conversation is notified.
	require.Len(t, broker.userEvents, 1)
	assert.Equal(t, away, broker.userEvents[0].userID)
	assert.Equal(t, models.EventNotification, broker.userEvents[0].eventType)

	notification, ok := broker.userEvents[0].data.(models.NotificationEvent)
	require.True(t, ok)
	assert.Equal(t, convID, notification.ConversationID)
	assert.Equal(t, "Alice", notification.SenderName)
	assert.Equal(t, "Alice: hello", notification.Summary)
}

func TestMessageCreatedViewerOfOtherConversationStillNotified(t *testing.T) {
	convID := uuid.New()
	sender := uuid.New()
	peer := uuid.New()

	// The peer has a different conversation open; that must not mute this one.
	broker := &fakeBroker{open: map[uuid.UUID]uuid.UUID{peer: uuid.New()}}
	n := NewNotifier(broker, &fakeContacts{participants: []uuid.UUID{sender, peer}})

	n.MessageCreated(context.Background(), textMessage(convID, sender, "hello"))

	require.Len(t, broker.userEvents, 1)
	assert.Equal(t, peer, broker.userEvents[0].userID)
}
