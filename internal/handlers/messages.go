package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/user/orbit-back/internal/cache"
	"github.com/user/orbit-back/internal/messages"
	"github.com/user/orbit-back/internal/models"
	"github.com/user/orbit-back/internal/realtime"
	"github.com/user/orbit-back/internal/storage"
	"github.com/user/orbit-back/internal/typing"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100

	sendRateLimit  = 30
	sendRateWindow = 10 * time.Second
)

type MessagesHandler struct {
	repo      *messages.Repository
	notifier  *realtime.Notifier
	storage   *storage.S3Storage
	cache     *cache.RedisCache
	typing    *typing.Service
	validator *validator.Validate
}

func NewMessagesHandler(
	repo *messages.Repository,
	notifier *realtime.Notifier,
	storage *storage.S3Storage,
	redisCache *cache.RedisCache,
	typingService *typing.Service,
) *MessagesHandler {
	return &MessagesHandler{
		repo:      repo,
		notifier:  notifier,
		storage:   storage,
		cache:     redisCache,
		typing:    typingService,
		validator: validator.New(),
	}
}

// GetConversations returns the user's directory, minus locally hidden entries.
func (h *MessagesHandler) GetConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conversations, err := h.repo.GetUserConversations(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get conversations")
		return
	}

	if h.cache != nil {
		hidden, err := h.cache.HiddenConversations(r.Context(), userID)
		if err != nil {
			log.Printf("Failed to load hidden conversations: %v", err)
		} else if len(hidden) > 0 {
			visible := conversations[:0]
			for _, conv := range conversations {
				if !hidden[conv.ID] {
					visible = append(visible, conv)
				}
			}
			conversations = visible
		}
	}

	if conversations == nil {
		conversations = []*models.Conversation{}
	}

	respondJSON(w, http.StatusOK, conversations)
}

// GetOrCreateDM gets or creates a DM with another user. Opening a DM also
// unhides it locally.
func (h *MessagesHandler) GetOrCreateDM(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.CreateDMRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	otherUserID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if userID == otherUserID {
		respondError(w, http.StatusBadRequest, "Cannot create DM with yourself")
		return
	}

	conv, err := h.repo.GetOrCreateDM(r.Context(), userID, otherUserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create conversation")
		return
	}

	if h.cache != nil {
		_ = h.cache.UnhideConversation(r.Context(), userID, conv.ID)
	}

	h.notifier.NotifyUser(otherUserID, models.EventConversationCreate, conv)

	respondJSON(w, http.StatusOK, conv)
}

// CreateGroup creates a group conversation.
func (h *MessagesHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	participantIDs, err := parseUUIDs(req.ParticipantIDs)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid participant ID")
		return
	}

	conv, err := h.repo.CreateGroup(r.Context(), userID, req.Name, participantIDs)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create group")
		return
	}

	h.notifier.ConversationChanged(models.EventConversationCreate, conv)

	respondJSON(w, http.StatusCreated, conv)
}

// GetConversation returns a single conversation.
func (h *MessagesHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
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

	conv, err := h.repo.GetConversation(r.Context(), convID, userID)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, conv)
}

// AddParticipants adds users to a group.
func (h *MessagesHandler) AddParticipants(w http.ResponseWriter, r *http.Request) {
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

	var req models.AddParticipantsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	newIDs, err := parseUUIDs(req.UserIDs)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.repo.AddParticipants(r.Context(), convID, userID, newIDs); err != nil {
		h.respondRepoError(w, err)
		return
	}

	conv, err := h.repo.GetConversation(r.Context(), convID, userID)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	h.notifier.ConversationChanged(models.EventConversationUpdate, conv)
	// New members see the conversation appear rather than update.
	h.notifier.NotifyUsers(newIDs, models.EventConversationCreate, conv)

	respondJSON(w, http.StatusOK, conv)
}

// UpdateGroup renames a group.
func (h *MessagesHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
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

	var req models.UpdateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	if err := h.repo.UpdateGroupName(r.Context(), convID, userID, req.Name); err != nil {
		h.respondRepoError(w, err)
		return
	}

	conv, err := h.repo.GetConversation(r.Context(), convID, userID)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	h.notifier.ConversationChanged(models.EventConversationUpdate, conv)

	respondJSON(w, http.StatusOK, conv)
}

// UploadGroupAvatar replaces a group's avatar. Owner only.
func (h *MessagesHandler) UploadGroupAvatar(w http.ResponseWriter, r *http.Request) {
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

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxAvatarSize)
	if err := r.ParseMultipartForm(storage.MaxAvatarSize); err != nil {
		respondError(w, http.StatusBadRequest, "File too large (max 5MB)")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !storage.IsImageType(contentType) {
		respondError(w, http.StatusBadRequest, "Invalid image type")
		return
	}

	avatarURL, err := h.storage.Upload(r.Context(), "groups/"+convID.String(), header.Filename, contentType, file)
	if err != nil {
		log.Printf("Failed to upload group avatar: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to upload avatar")
		return
	}

	if err := h.repo.UpdateGroupAvatar(r.Context(), convID, userID, avatarURL); err != nil {
		h.respondRepoError(w, err)
		return
	}

	conv, err := h.repo.GetConversation(r.Context(), convID, userID)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	h.notifier.ConversationChanged(models.EventConversationUpdate, conv)

	respondJSON(w, http.StatusOK, conv)
}

// LeaveGroup removes the user from a group.
func (h *MessagesHandler) LeaveGroup(w http.ResponseWriter, r *http.Request) {
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

	if err := h.repo.LeaveGroup(r.Context(), convID, userID); err != nil {
		h.respondRepoError(w, err)
		return
	}

	if participantIDs, err := h.repo.GetParticipantIDs(r.Context(), convID); err == nil && len(participantIDs) > 0 {
		if conv, err := h.repo.GetConversation(r.Context(), convID, participantIDs[0]); err == nil {
			h.notifier.ConversationChanged(models.EventConversationUpdate, conv)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteConversation removes the conversation for everyone.
func (h *MessagesHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
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

	participantIDs, err := h.repo.GetParticipantIDs(r.Context(), convID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get participants")
		return
	}

	if err := h.repo.DeleteConversation(r.Context(), convID, userID); err != nil {
		h.respondRepoError(w, err)
		return
	}

	h.notifier.ConversationDeleted(convID, participantIDs)

	w.WriteHeader(http.StatusNoContent)
}

// HideConversation removes a conversation from this user's directory only.
// The shared record and the other side's view are untouched.
func (h *MessagesHandler) HideConversation(w http.ResponseWriter, r *http.Request) {
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

	if h.cache == nil {
		respondError(w, http.StatusServiceUnavailable, "Conversation hiding requires Redis")
		return
	}

	if err := h.requireMembership(r, convID, userID); err != nil {
		h.respondRepoError(w, err)
		return
	}

	if err := h.cache.HideConversation(r.Context(), userID, convID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to hide conversation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UnhideConversation restores a locally hidden conversation.
func (h *MessagesHandler) UnhideConversation(w http.ResponseWriter, r *http.Request) {
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

	if h.cache == nil {
		respondError(w, http.StatusServiceUnavailable, "Conversation hiding requires Redis")
		return
	}

	if err := h.requireMembership(r, convID, userID); err != nil {
		h.respondRepoError(w, err)
		return
	}

	if err := h.cache.UnhideConversation(r.Context(), userID, convID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to unhide conversation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetMessages returns a page of messages in ascending sent order. An optional
// q parameter filters the returned page by body substring, case-insensitively.
func (h *MessagesHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
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

	limit := defaultPageSize
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= maxPageSize {
		limit = l
	}
	offset := 0
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o >= 0 {
		offset = o
	}

	msgs, err := h.repo.GetMessages(r.Context(), convID, userID, limit, offset)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	if query := strings.TrimSpace(r.URL.Query().Get("q")); query != "" {
		window := messages.NewWindow(msgs)
		msgs = window.Search(query)
	}

	if msgs == nil {
		msgs = []*models.Message{}
	}

	respondJSON(w, http.StatusOK, msgs)
}

// SendMessage appends a message to a conversation.
func (h *MessagesHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
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

	if h.cache != nil {
		allowed, err := h.cache.CheckRateLimit(r.Context(), "send:"+userID.String(), sendRateLimit, sendRateWindow)
		if err == nil && !allowed {
			respondError(w, http.StatusTooManyRequests, "Sending too fast")
			return
		}
	}

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	kind := models.MessageKind(req.Kind)
	if req.Kind == "" {
		kind = models.KindText
	}
	if !kind.Valid() || kind == models.KindCall {
		respondError(w, http.StatusBadRequest, "Invalid message kind")
		return
	}

	if strings.TrimSpace(req.Body) == "" && len(req.AttachmentIDs) == 0 {
		respondError(w, http.StatusBadRequest, "Message is empty")
		return
	}

	var replyToID *uuid.UUID
	if req.ReplyToID != "" {
		id, err := uuid.Parse(req.ReplyToID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid reply target")
			return
		}
		replyToID = &id
	}

	attachmentIDs, err := parseUUIDs(req.AttachmentIDs)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid attachment ID")
		return
	}

	msg, err := h.repo.SendMessage(r.Context(), convID, userID, kind, req.Body, replyToID, attachmentIDs)
	if err != nil {
		if errors.Is(err, messages.ErrBadReplyTarget) {
			respondError(w, http.StatusBadRequest, "Reply target not found")
			return
		}
		h.respondRepoError(w, err)
		return
	}

	// Sending ends the sender's typing burst
	if h.typing != nil {
		h.typing.Stop(r.Context(), convID, userID)
	}

	h.notifier.MessageCreated(r.Context(), msg)

	respondJSON(w, http.StatusCreated, msg)
}

// EditMessage updates a message body.
func (h *MessagesHandler) EditMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	convID, messageID, err := pathConvMessage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.EditMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	msg, err := h.repo.EditMessage(r.Context(), convID, messageID, userID, req.Body)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	h.notifier.MessageUpdated(msg)

	respondJSON(w, http.StatusOK, msg)
}

// DeleteMessage removes a message.
func (h *MessagesHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	convID, messageID, err := pathConvMessage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.DeleteMessage(r.Context(), convID, messageID, userID); err != nil {
		h.respondRepoError(w, err)
		return
	}

	h.notifier.MessageDeleted(convID, messageID)

	w.WriteHeader(http.StatusNoContent)
}

// React toggles the user's emoji reaction on a message.
func (h *MessagesHandler) React(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	convID, messageID, err := pathConvMessage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.ReactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	reactions, err := h.repo.ToggleReaction(r.Context(), convID, messageID, userID, req.Emoji)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	h.notifier.ReactionsChanged(convID, messageID, reactions)

	respondJSON(w, http.StatusOK, reactions)
}

// MarkRead adds the user to a message's read set. Repeats are no-ops and emit
// no event.
func (h *MessagesHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	convID, messageID, err := pathConvMessage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	added, err := h.repo.MarkRead(r.Context(), convID, messageID, userID)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	if added {
		h.notifier.MessageRead(convID, messageID, userID)
	}

	respondJSON(w, http.StatusOK, map[string]bool{"read": true})
}

// UploadAttachment stores a blob ahead of the message that will carry it.
func (h *MessagesHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxAttachmentSize)

	if err := r.ParseMultipartForm(storage.MaxAttachmentSize); err != nil {
		respondError(w, http.StatusBadRequest, "File too large (max 10MB)")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.storage.UploadAttachment(r.Context(), userID, header.Filename, contentType, header.Size, file)
	if err != nil {
		if errors.Is(err, storage.ErrAttachmentTooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	attachment, err := h.repo.CreateAttachment(r.Context(), userID, storage.AttachmentKind(contentType), url, header.Filename, header.Size)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save attachment")
		return
	}

	respondJSON(w, http.StatusCreated, attachment)
}

func (h *MessagesHandler) requireMembership(r *http.Request, convID, userID uuid.UUID) error {
	ok, err := h.repo.IsParticipant(r.Context(), convID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return messages.ErrNotParticipant
	}
	return nil
}

func (h *MessagesHandler) respondRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, messages.ErrNotParticipant):
		respondError(w, http.StatusForbidden, "Not a participant")
	case errors.Is(err, messages.ErrNotOwner):
		respondError(w, http.StatusForbidden, "Requires the conversation owner")
	case errors.Is(err, messages.ErrCannotDeleteDM):
		respondError(w, http.StatusForbidden, "Direct conversations can only be hidden")
	case errors.Is(err, messages.ErrNotSender):
		respondError(w, http.StatusForbidden, "You can only modify your own messages")
	case errors.Is(err, messages.ErrConversationNotFound):
		respondError(w, http.StatusNotFound, "Conversation not found")
	case errors.Is(err, messages.ErrMessageNotFound):
		respondError(w, http.StatusNotFound, "Message not found")
	default:
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func pathConvMessage(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.New("Invalid conversation ID")
	}
	messageID, err := uuid.Parse(r.PathValue("messageID"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.New("Invalid message ID")
	}
	return convID, messageID, nil
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
