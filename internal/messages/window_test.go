package messages

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/orbit-back/internal/models"
)

func testMessage(body string, sentAt time.Time) *models.Message {
	b := body
	return &models.Message{
		ID:     uuid.New(),
		Kind:   models.KindText,
		Body:   &b,
		SentAt: sentAt,
	}
}

func TestWindowOrdersBySentAtRegardlessOfArrival(t *testing.T) {
	base := time.Now()

	msgs := make([]*models.Message, 20)
	for i := range msgs {
		msgs[i] = testMessage(fmt.Sprintf("message %d", i), base.Add(time.Duration(i)*time.Second))
	}

	shuffled := make([]*models.Message, len(msgs))
	copy(shuffled, msgs)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	w := NewWindow(nil)
	for _, msg := range shuffled {
		w.Insert(msg)
	}

	got := w.Messages()
	require.Len(t, got, len(msgs))
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].SentAt.Before(got[i-1].SentAt),
			"messages must be in ascending sent order")
	}
	for i, msg := range msgs {
		assert.Equal(t, msg.ID, got[i].ID)
	}
}

func TestWindowInsertDeduplicates(t *testing.T) {
	msg := testMessage("hello", time.Now())

	w := NewWindow(nil)
	w.Insert(msg)
	w.Insert(msg)
	w.Insert(msg)

	assert.Equal(t, 1, w.Len(), "redelivery must not duplicate a message")
}

func TestWindowApplyEditAndDelete(t *testing.T) {
	now := time.Now()
	first := testMessage("original", now)
	second := testMessage("other", now.Add(time.Second))

	w := NewWindow([]*models.Message{first, second})

	edited := "edited"
	editedAt := now.Add(2 * time.Second)
	w.ApplyEdit(first.ID, &edited, &editedAt)

	got := w.Messages()[0]
	assert.Equal(t, "edited", *got.Body)
	assert.True(t, got.Edited)

	w.ApplyDelete(first.ID)
	require.Equal(t, 1, w.Len())
	assert.Equal(t, second.ID, w.Messages()[0].ID)

	// Deleting again is a no-op
	w.ApplyDelete(first.ID)
	assert.Equal(t, 1, w.Len())
}

func TestWindowApplyReactionsReplacesList(t *testing.T) {
	msg := testMessage("react to me", time.Now())
	w := NewWindow([]*models.Message{msg})

	userID := uuid.New()
	w.ApplyReactions(msg.ID, []*models.Reaction{{MessageID: msg.ID, UserID: userID, Emoji: "👍"}})
	require.Len(t, w.Messages()[0].Reactions, 1)

	// Toggling off delivers an empty list, which replaces wholesale
	w.ApplyReactions(msg.ID, []*models.Reaction{})
	assert.Empty(t, w.Messages()[0].Reactions)
}

func TestWindowApplyReadIsMonotonic(t *testing.T) {
	msg := testMessage("read me", time.Now())
	w := NewWindow([]*models.Message{msg})

	reader := uuid.New()
	w.ApplyRead(msg.ID, reader)
	w.ApplyRead(msg.ID, reader)
	w.ApplyRead(msg.ID, reader)

	assert.Len(t, w.Messages()[0].ReadBy, 1, "repeat reads must not grow the set")

	w.ApplyRead(msg.ID, uuid.New())
	assert.Len(t, w.Messages()[0].ReadBy, 2)
}

func TestWindowIgnoresEventsOutsideWindow(t *testing.T) {
	w := NewWindow([]*models.Message{testMessage("in window", time.Now())})

	unknown := uuid.New()
	w.ApplyRead(unknown, uuid.New())
	w.ApplyDelete(unknown)
	w.ApplyReactions(unknown, nil)

	assert.Equal(t, 1, w.Len())
}

func TestWindowSearch(t *testing.T) {
	base := time.Now()
	w := NewWindow([]*models.Message{
		testMessage("Lunch tomorrow?", base),
		testMessage("Sure, where?", base.Add(time.Second)),
		testMessage("The usual LUNCH spot", base.Add(2*time.Second)),
	})

	got := w.Search("lunch")
	require.Len(t, got, 2, "search is case-insensitive")
	assert.True(t, got[0].SentAt.Before(got[1].SentAt), "results keep chronological order")

	assert.Empty(t, w.Search("dinner"))
	assert.Empty(t, w.Search("  "))
}

func TestStreamClosedDropsEvents(t *testing.T) {
	existing := testMessage("kept", time.Now())
	s := NewStream(NewWindow([]*models.Message{existing}))

	s.Close()
	s.Close() // closing twice is fine

	s.HandleCreate(testMessage("late arrival", time.Now()))
	s.HandleDelete(existing.ID)
	s.HandleRead(existing.ID, uuid.New())
	s.HandleReactions(existing.ID, []*models.Reaction{{Emoji: "🎉"}})

	assert.True(t, s.Closed())
	assert.Equal(t, 1, s.Window().Len(), "no event after Close may mutate the window")
	assert.Empty(t, s.Window().Messages()[0].Reactions)
}

func TestStreamAppliesEventsWhileOpen(t *testing.T) {
	s := NewStream(NewWindow(nil))

	msg := testMessage("first", time.Now())
	s.HandleCreate(msg)
	require.Equal(t, 1, s.Window().Len())

	reader := uuid.New()
	s.HandleRead(msg.ID, reader)
	assert.True(t, s.Window().Messages()[0].HasRead(reader))

	s.HandleDelete(msg.ID)
	assert.Equal(t, 0, s.Window().Len())
}
