package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttachmentKind(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/png", "image"},
		{"image/jpeg", "image"},
		{"audio/ogg", "audio"},
		{"audio/mpeg", "audio"},
		{"video/mp4", "video"},
		{"application/pdf", "file"},
		{"text/plain", "file"},
		{"", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, AttachmentKind(tt.contentType))
		})
	}
}

func TestIsImageType(t *testing.T) {
	assert.True(t, IsImageType("image/png"))
	assert.True(t, IsImageType("image/webp"))
	assert.False(t, IsImageType("image/svg+xml"), "svg is not accepted for avatars")
	assert.False(t, IsImageType("application/octet-stream"))
}
