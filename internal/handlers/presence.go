package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/user/orbit-back/internal/messages"
	"github.com/user/orbit-back/internal/models"
	"github.com/user/orbit-back/internal/presence"
)

type PresenceHandler struct {
	service   *presence.Service
	contacts  *messages.Repository
	validator *validator.Validate
}

func NewPresenceHandler(service *presence.Service, contacts *messages.Repository) *PresenceHandler {
	return &PresenceHandler{
		service:   service,
		contacts:  contacts,
		validator: validator.New(),
	}
}

// SetStatus lets a user set their own presence, e.g. switching to away.
func (h *PresenceHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	record, err := h.service.SetStatus(r.Context(), userID, models.PresenceStatus(req.Status))
	if err != nil {
		if errors.Is(err, presence.ErrInvalidStatus) {
			respondError(w, http.StatusBadRequest, "Invalid status")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to set status")
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// GetSnapshot returns presence for everyone the user shares a conversation
// with, plus the user themselves.
func (h *PresenceHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	contactIDs, err := h.contacts.GetContactIDs(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get contacts")
		return
	}

	snapshot, err := h.service.Snapshot(r.Context(), append(contactIDs, userID))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get presence")
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// GetStatus returns another user's presence.
func (h *PresenceHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := r.Context().Value("userID").(uuid.UUID); !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	targetID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	record, err := h.service.GetStatus(r.Context(), targetID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get status")
		return
	}

	respondJSON(w, http.StatusOK, record)
}
