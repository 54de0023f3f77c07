package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func hideRequest(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.SetPathValue("id", uuid.New().String())
	return req.WithContext(context.WithValue(req.Context(), "userID", uuid.New()))
}

// Hiding is backed by Redis; without it the endpoints must refuse cleanly
// instead of dereferencing the absent cache.
func TestHideConversationWithoutRedis(t *testing.T) {
	h := NewMessagesHandler(nil, nil, nil, nil, nil)

	rec := httptest.NewRecorder()
	h.HideConversation(rec, hideRequest(http.MethodPost, "/api/conversations/x/hide"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnhideConversationWithoutRedis(t *testing.T) {
	h := NewMessagesHandler(nil, nil, nil, nil, nil)

	rec := httptest.NewRecorder()
	h.UnhideConversation(rec, hideRequest(http.MethodDelete, "/api/conversations/x/hide"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
