package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/user/orbit-back/internal/messages"
	"github.com/user/orbit-back/internal/typing"
)

type TypingHandler struct {
	service *typing.Service
	repo    *messages.Repository
}

func NewTypingHandler(service *typing.Service, repo *messages.Repository) *TypingHandler {
	return &TypingHandler{service: service, repo: repo}
}

// Signal reports a keystroke. The first keystroke of a burst broadcasts
// typing=true; the burst ends on its own after the idle timeout.
func (h *TypingHandler) Signal(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	member, err := h.repo.IsParticipant(r.Context(), convID, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to check membership")
		return
	}
	if !member {
		respondError(w, http.StatusForbidden, "Not a participant")
		return
	}

	if err := h.service.Signal(r.Context(), convID, userID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to record typing")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stop explicitly ends a typing burst, e.g. when the composer is cleared.
func (h *TypingHandler) Stop(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	h.service.Stop(r.Context(), convID, userID)

	w.WriteHeader(http.StatusNoContent)
}
