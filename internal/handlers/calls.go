package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/user/orbit-back/internal/calls"
	"github.com/user/orbit-back/internal/messages"
	"github.com/user/orbit-back/internal/models"
	"github.com/user/orbit-back/internal/realtime"
)

type CallsHandler struct {
	repo      *calls.Repository
	media     *calls.MediaTokenService
	usersRepo UsersRepository
	msgRepo   *messages.Repository
	notifier  *realtime.Notifier
	validator *validator.Validate

	// In-memory state machines guarding each user's call transitions.
	trackersMu sync.Mutex
	trackers   map[uuid.UUID]*calls.SessionTracker
}

type UsersRepository interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

func NewCallsHandler(
	repo *calls.Repository,
	media *calls.MediaTokenService,
	usersRepo UsersRepository,
	msgRepo *messages.Repository,
	notifier *realtime.Notifier,
) *CallsHandler {
	return &CallsHandler{
		repo:      repo,
		media:     media,
		usersRepo: usersRepo,
		msgRepo:   msgRepo,
		notifier:  notifier,
		validator: validator.New(),
		trackers:  make(map[uuid.UUID]*calls.SessionTracker),
	}
}

func (h *CallsHandler) tracker(userID uuid.UUID) *calls.SessionTracker {
	h.trackersMu.Lock()
	defer h.trackersMu.Unlock()
	t, ok := h.trackers[userID]
	if !ok {
		t = calls.NewSessionTracker()
		h.trackers[userID] = t
	}
	return t
}

// MediaTokenResponse carries what a client needs to join the media plane.
type MediaTokenResponse struct {
	Token    string `json:"token"`
	MediaURL string `json:"media_url"`
}

// StartCall creates a signaling session carrying the caller's offer and rings
// the callee.
func (h *CallsHandler) StartCall(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.StartCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	calleeID, err := uuid.Parse(req.CalleeID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid callee ID")
		return
	}
	if calleeID == userID {
		respondError(w, http.StatusBadRequest, "Cannot call yourself")
		return
	}

	if _, err := h.usersRepo.GetUserByID(r.Context(), calleeID); err != nil {
		respondError(w, http.StatusNotFound, "Callee not found")
		return
	}

	// Either side already in a call means busy
	if existing, err := h.repo.GetActiveSessionForUser(r.Context(), userID); err == nil && existing != nil {
		respondError(w, http.StatusConflict, "Already in a call")
		return
	}
	if existing, err := h.repo.GetActiveSessionForUser(r.Context(), calleeID); err == nil && existing != nil {
		respondError(w, http.StatusConflict, "Callee is busy")
		return
	}

	session, err := h.repo.CreateSession(r.Context(), userID, calleeID, req.OfferSDP)
	if err != nil {
		if errors.Is(err, calls.ErrAlreadyInCall) {
			respondError(w, http.StatusConflict, "An active call already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to start call")
		return
	}

	if err := h.tracker(userID).StartOutgoing(session.ID); err != nil {
		// Lost a race with another of the caller's own requests
		_, _ = h.repo.EndSession(r.Context(), session.ID, userID)
		respondError(w, http.StatusConflict, "Already in a call")
		return
	}
	_ = h.tracker(calleeID).Ring(session.ID)

	h.notifier.CallOffered(session)

	respondJSON(w, http.StatusCreated, session)
}

// AnswerCall records the callee's answer and connects the session.
func (h *CallsHandler) AnswerCall(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	var req models.AnswerCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	session, err := h.repo.SetAnswer(r.Context(), sessionID, userID, req.AnswerSDP)
	if err != nil {
		h.respondCallError(w, err)
		return
	}

	_ = h.tracker(session.CallerID).Connect(session.ID)
	_ = h.tracker(session.CalleeID).Connect(session.ID)

	h.notifier.CallAnswered(session)

	respondJSON(w, http.StatusOK, session)
}

// AddCandidate relays one ICE candidate to the other side.
func (h *CallsHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	var req models.AddCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Candidate) == 0 {
		respondError(w, http.StatusBadRequest, "Candidate is required")
		return
	}

	candidate, err := h.repo.AddCandidate(r.Context(), sessionID, userID, req.Candidate)
	if err != nil {
		h.respondCallError(w, err)
		return
	}

	session, err := h.repo.GetSession(r.Context(), sessionID, userID)
	if err != nil {
		h.respondCallError(w, err)
		return
	}

	h.notifier.CallCandidateAdded(session, candidate)

	respondJSON(w, http.StatusCreated, candidate)
}

// GetCandidates returns the peer's candidates for this session.
func (h *CallsHandler) GetCandidates(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	candidates, err := h.repo.GetCandidates(r.Context(), sessionID, userID)
	if err != nil {
		h.respondCallError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, candidates)
}

// GetIncomingCalls lists sessions still ringing for the user, so a client
// can re-surface the incoming-call prompt after a refresh.
func (h *CallsHandler) GetIncomingCalls(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sessions, err := h.repo.GetIncomingSessions(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get incoming calls")
		return
	}
	if sessions == nil {
		sessions = []*models.CallSession{}
	}

	respondJSON(w, http.StatusOK, sessions)
}

// GetSession returns the session as stored, including the tombstoned state.
func (h *CallsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	session, err := h.repo.GetSession(r.Context(), sessionID, userID)
	if err != nil {
		h.respondCallError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// EndCall tombstones the session from either side and leaves a call record in
// the pair's DM.
func (h *CallsHandler) EndCall(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	before, err := h.repo.GetSession(r.Context(), sessionID, userID)
	if err != nil {
		h.respondCallError(w, err)
		return
	}
	alreadyEnded := before.Status == models.CallEnded

	session, err := h.repo.EndSession(r.Context(), sessionID, userID)
	if err != nil {
		h.respondCallError(w, err)
		return
	}

	h.tracker(session.CallerID).End(session.ID)
	h.tracker(session.CalleeID).End(session.ID)

	if !alreadyEnded {
		h.notifier.CallEnded(session)
		h.createCallMessage(r.Context(), before, session)
	}

	respondJSON(w, http.StatusOK, session)
}

// MediaToken mints a media-plane join token for a connected session.
func (h *CallsHandler) MediaToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	session, err := h.repo.GetSession(r.Context(), sessionID, userID)
	if err != nil {
		h.respondCallError(w, err)
		return
	}
	if session.Status != models.CallConnected {
		respondError(w, http.StatusConflict, "Call is not connected")
		return
	}

	user, err := h.usersRepo.GetUserByID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get user")
		return
	}

	token, err := h.media.GenerateToken(session.ID.String(), userID.String(), user.Name())
	if err != nil {
		log.Printf("GenerateToken error: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	respondJSON(w, http.StatusOK, MediaTokenResponse{
		Token:    token,
		MediaURL: h.media.GetWebSocketURL(),
	})
}

// createCallMessage drops a call record into the pair's DM so the call shows
// up in history.
func (h *CallsHandler) createCallMessage(ctx context.Context, before, session *models.CallSession) {
	conv, err := h.msgRepo.GetOrCreateDM(ctx, session.CallerID, session.CalleeID)
	if err != nil {
		log.Printf("Failed to resolve DM for call record: %v", err)
		return
	}

	var body string
	if before.Status == models.CallConnected && session.EndedAt != nil {
		duration := session.EndedAt.Sub(session.CreatedAt).Round(time.Second)
		body = fmt.Sprintf("Call ended (%s)", duration)
	} else {
		body = "Missed call"
	}

	msg, err := h.msgRepo.SendMessage(ctx, conv.ID, session.CallerID, models.KindCall, body, nil, nil)
	if err != nil {
		log.Printf("Failed to create call message: %v", err)
		return
	}

	h.notifier.MessageCreated(ctx, msg)
}

func (h *CallsHandler) respondCallError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calls.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "Call session not found")
	case errors.Is(err, calls.ErrNotInSession):
		respondError(w, http.StatusForbidden, "Not a participant of this call")
	case errors.Is(err, calls.ErrAlreadyInCall):
		respondError(w, http.StatusConflict, "An active call already exists")
	case errors.Is(err, calls.ErrNotRinging):
		respondError(w, http.StatusConflict, "Call is not awaiting an answer")
	case errors.Is(err, calls.ErrSessionNotActive):
		respondError(w, http.StatusGone, "Call has ended")
	default:
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
