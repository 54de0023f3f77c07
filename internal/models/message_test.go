package models

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMessageKindValid(t *testing.T) {
	for _, kind := range []MessageKind{KindText, KindImage, KindAudio, KindVideo, KindFile, KindCall} {
		assert.True(t, kind.Valid(), "kind %q should be valid", kind)
	}

	assert.False(t, MessageKind("sticker").Valid())
	assert.False(t, MessageKind("").Valid())
}

func TestMessageKindSummary(t *testing.T) {
	tests := []struct {
		kind MessageKind
		body string
		want string
	}{
		{KindText, "hello there", "Alice: hello there"},
		{KindImage, "", "Alice sent an image"},
		{KindAudio, "", "Alice sent a voice message"},
		{KindVideo, "", "Alice sent a video"},
		{KindFile, "", "Alice sent a file"},
		{KindCall, "", "Alice started a call"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Summary("Alice", tt.body))
		})
	}
}

func TestMessageKindSummaryTruncatesLongBody(t *testing.T) {
	body := strings.Repeat("x", 200)
	summary := KindText.Summary("Alice", body)

	assert.Less(t, len([]rune(summary)), 100)
	assert.True(t, strings.HasSuffix(summary, "…"))
}

func TestMessageHasRead(t *testing.T) {
	reader := uuid.New()
	other := uuid.New()

	msg := &Message{ReadBy: []uuid.UUID{reader}}
	assert.True(t, msg.HasRead(reader))
	assert.False(t, msg.HasRead(other))
}

func TestMessageBodyText(t *testing.T) {
	body := "hi"
	assert.Equal(t, "hi", (&Message{Body: &body}).BodyText())
	assert.Equal(t, "", (&Message{}).BodyText())
}
