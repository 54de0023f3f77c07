package messages

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/orbit-back/internal/models"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("not a participant of this conversation")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotOwner             = errors.New("requires the conversation owner")
	ErrCannotDeleteDM       = errors.New("direct conversations cannot be deleted")
	ErrNotSender            = errors.New("you can only modify your own messages")
	ErrBadReplyTarget       = errors.New("reply target is not in this conversation")
)

const userColumns = `u.id, u.email, u.password_hash, u.display_name, u.avatar_url, u.created_at, u.updated_at`

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) isParticipant(ctx context.Context, convID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2)
	`, convID, userID).Scan(&exists)
	return exists, err
}

// IsParticipant reports whether userID belongs to convID.
func (r *Repository) IsParticipant(ctx context.Context, convID, userID uuid.UUID) (bool, error) {
	return r.isParticipant(ctx, convID, userID)
}

// GetContactIDs returns the distinct users who share at least one
// conversation with userID, excluding userID itself. These are the users who
// can see userID's presence.
func (r *Repository) GetContactIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT cp2.user_id
		FROM conversation_participants cp1
		JOIN conversation_participants cp2 ON cp1.conversation_id = cp2.conversation_id
		WHERE cp1.user_id = $1 AND cp2.user_id != $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) requireParticipant(ctx context.Context, convID, userID uuid.UUID) error {
	ok, err := r.isParticipant(ctx, convID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotParticipant
	}
	return nil
}

// GetOrCreateDM returns the one-to-one conversation for the pair, creating it
// if absent. The id is deterministic in the pair, so both sides converge on
// the same row and a concurrent create is a harmless conflict.
func (r *Repository) GetOrCreateDM(ctx context.Context, userA, userB uuid.UUID) (*models.Conversation, error) {
	convID := models.DMConversationID(userA, userB)

	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM conversations WHERE id = $1)`, convID).Scan(&exists)
	if err != nil {
		return nil, err
	}

	if !exists {
		tx, err := r.db.Begin(ctx)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback(ctx)

		_, err = tx.Exec(ctx, `
			INSERT INTO conversations (id, type) VALUES ($1, 'dm') ON CONFLICT (id) DO NOTHING
		`, convID)
		if err != nil {
			return nil, err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO conversation_participants (conversation_id, user_id)
			VALUES ($1, $2), ($1, $3)
			ON CONFLICT DO NOTHING
		`, convID, userA, userB)
		if err != nil {
			return nil, err
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
	}

	return r.GetConversation(ctx, convID, userA)
}

// CreateGroup creates a new group conversation owned by its creator.
func (r *Repository) CreateGroup(ctx context.Context, creatorID uuid.UUID, name string, participantIDs []uuid.UUID) (*models.Conversation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var convID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO conversations (type, name, owner_id) VALUES ('group', $1, $2) RETURNING id
	`, name, creatorID).Scan(&convID)
	if err != nil {
		return nil, err
	}

	seen := map[uuid.UUID]bool{creatorID: true}
	unique := []uuid.UUID{creatorID}
	for _, id := range participantIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	for _, userID := range unique {
		_, err = tx.Exec(ctx, `
			INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1, $2)
		`, convID, userID)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return r.GetConversation(ctx, convID, creatorID)
}

// GetConversation gets a conversation by ID, verifying membership.
func (r *Repository) GetConversation(ctx context.Context, convID, userID uuid.UUID) (*models.Conversation, error) {
	if err := r.requireParticipant(ctx, convID, userID); err != nil {
		return nil, err
	}

	conv := &models.Conversation{}
	err := r.db.QueryRow(ctx, `
		SELECT id, type, name, avatar_url, owner_id, last_message_at, created_at, updated_at
		FROM conversations WHERE id = $1
	`, convID).Scan(
		&conv.ID, &conv.Type, &conv.Name, &conv.AvatarURL, &conv.OwnerID,
		&conv.LastMessageAt, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}

	conv.Participants, err = r.GetParticipants(ctx, convID)
	if err != nil {
		return nil, err
	}

	conv.LastMessage = r.loadLastMessage(ctx, convID)

	return conv, nil
}

// GetUserConversations returns the directory for a user, newest activity
// first. The caller applies any per-user hidden filter on top; hiding is not a
// property of the shared record.
func (r *Repository) GetUserConversations(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.type, c.name, c.avatar_url, c.owner_id, c.last_message_at, c.created_at, c.updated_at
		FROM conversations c
		JOIN conversation_participants cp ON c.id = cp.conversation_id
		WHERE cp.user_id = $1
		ORDER BY c.last_message_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		conv := &models.Conversation{}
		err := rows.Scan(
			&conv.ID, &conv.Type, &conv.Name, &conv.AvatarURL, &conv.OwnerID,
			&conv.LastMessageAt, &conv.CreatedAt, &conv.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, conv := range conversations {
		conv.Participants, err = r.GetParticipants(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
		conv.LastMessage = r.loadLastMessage(ctx, conv.ID)
	}

	return conversations, nil
}

// GetParticipants returns all participants of a conversation.
func (r *Repository) GetParticipants(ctx context.Context, convID uuid.UUID) ([]*models.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users u
		JOIN conversation_participants cp ON u.id = cp.user_id
		WHERE cp.conversation_id = $1
	`, convID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(
			&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName,
			&user.AvatarURL, &user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// GetParticipantIDs returns all participant user IDs for a conversation.
func (r *Repository) GetParticipantIDs(ctx context.Context, convID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id FROM conversation_participants WHERE conversation_id = $1
	`, convID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddParticipants adds users to a group conversation.
func (r *Repository) AddParticipants(ctx context.Context, convID, requestingUserID uuid.UUID, userIDs []uuid.UUID) error {
	if err := r.requireParticipant(ctx, convID, requestingUserID); err != nil {
		return err
	}

	var convType string
	err := r.db.QueryRow(ctx, `SELECT type FROM conversations WHERE id = $1`, convID).Scan(&convType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConversationNotFound
		}
		return err
	}
	if convType != models.ConversationGroup {
		return errors.New("can only add participants to group conversations")
	}

	for _, userID := range userIDs {
		_, err = r.db.Exec(ctx, `
			INSERT INTO conversation_participants (conversation_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, convID, userID)
		if err != nil {
			return err
		}
	}

	return nil
}

// LeaveGroup removes a user from a group conversation.
func (r *Repository) LeaveGroup(ctx context.Context, convID, userID uuid.UUID) error {
	var convType string
	err := r.db.QueryRow(ctx, `SELECT type FROM conversations WHERE id = $1`, convID).Scan(&convType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConversationNotFound
		}
		return err
	}
	if convType != models.ConversationGroup {
		return errors.New("can only leave group conversations")
	}

	result, err := r.db.Exec(ctx, `
		DELETE FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2
	`, convID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotParticipant
	}

	return nil
}

// UpdateGroupName renames a group. Owner only.
func (r *Repository) UpdateGroupName(ctx context.Context, convID, userID uuid.UUID, name string) error {
	if err := r.requireOwner(ctx, convID, userID); err != nil {
		return err
	}

	_, err := r.db.Exec(ctx, `
		UPDATE conversations SET name = $1, updated_at = NOW() WHERE id = $2
	`, name, convID)
	return err
}

// UpdateGroupAvatar sets a group's avatar URL. Owner only.
func (r *Repository) UpdateGroupAvatar(ctx context.Context, convID, userID uuid.UUID, avatarURL string) error {
	if err := r.requireOwner(ctx, convID, userID); err != nil {
		return err
	}

	_, err := r.db.Exec(ctx, `
		UPDATE conversations SET avatar_url = $1, updated_at = NOW() WHERE id = $2
	`, avatarURL, convID)
	return err
}

// DeleteConversation removes the shared record entirely. This is the only
// destructive multi-user-visible directory operation: group owners only.
// A DM is never hard-deleted because that would destroy the peer's copy of
// the history; hiding is the per-user removal path.
func (r *Repository) DeleteConversation(ctx context.Context, convID, userID uuid.UUID) error {
	var convType string
	var ownerID *uuid.UUID
	err := r.db.QueryRow(ctx, `
		SELECT type, owner_id FROM conversations WHERE id = $1
	`, convID).Scan(&convType, &ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConversationNotFound
		}
		return err
	}

	if err := r.requireParticipant(ctx, convID, userID); err != nil {
		return err
	}
	if err := canDelete(convType, ownerID, userID); err != nil {
		return err
	}

	result, err := r.db.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, convID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// canDelete is the hard-delete policy for a conversation record.
func canDelete(convType string, ownerID *uuid.UUID, userID uuid.UUID) error {
	if convType == models.ConversationDM {
		return ErrCannotDeleteDM
	}
	if ownerID == nil || *ownerID != userID {
		return ErrNotOwner
	}
	return nil
}

func (r *Repository) requireOwner(ctx context.Context, convID, userID uuid.UUID) error {
	var convType string
	var ownerID *uuid.UUID
	err := r.db.QueryRow(ctx, `
		SELECT type, owner_id FROM conversations WHERE id = $1
	`, convID).Scan(&convType, &ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConversationNotFound
		}
		return err
	}

	if err := r.requireParticipant(ctx, convID, userID); err != nil {
		return err
	}

	if convType == models.ConversationGroup && (ownerID == nil || *ownerID != userID) {
		return ErrNotOwner
	}
	return nil
}

// GetMessages returns a bounded page for a conversation. The query runs
// newest-first for the bound and the result is reversed, so callers always
// receive ascending sent_at regardless of page size.
func (r *Repository) GetMessages(ctx context.Context, convID, userID uuid.UUID, limit, offset int) ([]*models.Message, error) {
	if err := r.requireParticipant(ctx, convID, userID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT m.id, m.conversation_id, m.sender_id, m.kind, m.body, m.reply_to_id,
		       m.edited, m.edited_at, m.sent_at, m.updated_at,
		       `+userColumns+`
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.conversation_id = $1
		ORDER BY m.sent_at DESC, m.id DESC
		LIMIT $2 OFFSET $3
	`, convID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*models.Message
	for rows.Next() {
		msg := &models.Message{Sender: &models.User{}}
		err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Kind, &msg.Body, &msg.ReplyToID,
			&msg.Edited, &msg.EditedAt, &msg.SentAt, &msg.UpdatedAt,
			&msg.Sender.ID, &msg.Sender.Email, &msg.Sender.PasswordHash, &msg.Sender.DisplayName,
			&msg.Sender.AvatarURL, &msg.Sender.CreatedAt, &msg.Sender.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, msg := range msgs {
		msg.ReadBy = r.loadReadBy(ctx, msg.ID)
		msg.Reactions = r.loadReactions(ctx, msg.ID)
		msg.Attachments = r.loadAttachments(ctx, msg.ID)
	}

	// Reverse to chronological order
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	return msgs, nil
}

// GetMessage loads a single message with its joined fields.
func (r *Repository) GetMessage(ctx context.Context, convID, messageID uuid.UUID) (*models.Message, error) {
	msg := &models.Message{Sender: &models.User{}}
	err := r.db.QueryRow(ctx, `
		SELECT m.id, m.conversation_id, m.sender_id, m.kind, m.body, m.reply_to_id,
		       m.edited, m.edited_at, m.sent_at, m.updated_at,
		       `+userColumns+`
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.id = $1 AND m.conversation_id = $2
	`, messageID, convID).Scan(
		&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Kind, &msg.Body, &msg.ReplyToID,
		&msg.Edited, &msg.EditedAt, &msg.SentAt, &msg.UpdatedAt,
		&msg.Sender.ID, &msg.Sender.Email, &msg.Sender.PasswordHash, &msg.Sender.DisplayName,
		&msg.Sender.AvatarURL, &msg.Sender.CreatedAt, &msg.Sender.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}

	msg.ReadBy = r.loadReadBy(ctx, msg.ID)
	msg.Reactions = r.loadReactions(ctx, msg.ID)
	msg.Attachments = r.loadAttachments(ctx, msg.ID)
	return msg, nil
}

// SendMessage appends a message and bumps the conversation's last activity.
// The bump is a follow-up write with no rollback: a failure leaves the
// directory summary briefly stale and the next send heals it. The sender is
// recorded as having read their own message.
func (r *Repository) SendMessage(ctx context.Context, convID, senderID uuid.UUID, kind models.MessageKind, body string, replyToID *uuid.UUID, attachmentIDs []uuid.UUID) (*models.Message, error) {
	if err := r.requireParticipant(ctx, convID, senderID); err != nil {
		return nil, err
	}

	if replyToID != nil {
		var ok bool
		err := r.db.QueryRow(ctx, `
			SELECT EXISTS(SELECT 1 FROM messages WHERE id = $1 AND conversation_id = $2)
		`, *replyToID, convID).Scan(&ok)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrBadReplyTarget
		}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var bodyPtr *string
	if body != "" {
		bodyPtr = &body
	}

	msg := &models.Message{}
	err = tx.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, sender_id, kind, body, reply_to_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, conversation_id, sender_id, kind, body, reply_to_id, edited, edited_at, sent_at, updated_at
	`, convID, senderID, kind, bodyPtr, replyToID).Scan(
		&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Kind, &msg.Body, &msg.ReplyToID,
		&msg.Edited, &msg.EditedAt, &msg.SentAt, &msg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Link attachments the sender pre-uploaded
	if len(attachmentIDs) > 0 {
		_, err = tx.Exec(ctx, `
			UPDATE attachments
			SET message_id = $1
			WHERE id = ANY($2) AND uploader_id = $3 AND message_id IS NULL
		`, msg.ID, attachmentIDs, senderID)
		if err != nil {
			return nil, err
		}
	}

	// Sender has read their own message
	_, err = tx.Exec(ctx, `
		INSERT INTO message_reads (message_id, user_id) VALUES ($1, $2)
	`, msg.ID, senderID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	_, _ = r.db.Exec(ctx, `
		UPDATE conversations SET last_message_at = $1, updated_at = NOW() WHERE id = $2
	`, msg.SentAt, convID)

	msg.Sender, _ = r.loadSender(ctx, senderID)
	msg.ReadBy = []uuid.UUID{senderID}
	msg.Reactions = []*models.Reaction{}
	msg.Attachments = r.loadAttachments(ctx, msg.ID)

	return msg, nil
}

// EditMessage updates a message body in place. Sender or conversation owner.
func (r *Repository) EditMessage(ctx context.Context, convID, messageID, userID uuid.UUID, body string) (*models.Message, error) {
	if err := r.requireParticipant(ctx, convID, userID); err != nil {
		return nil, err
	}

	allowed, err := r.canModify(ctx, convID, messageID, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrNotSender
	}

	_, err = r.db.Exec(ctx, `
		UPDATE messages
		SET body = $1, edited = TRUE, edited_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND conversation_id = $3
	`, body, messageID, convID)
	if err != nil {
		return nil, err
	}

	return r.GetMessage(ctx, convID, messageID)
}

// DeleteMessage removes a message entirely. Sender or conversation owner.
func (r *Repository) DeleteMessage(ctx context.Context, convID, messageID, userID uuid.UUID) error {
	if err := r.requireParticipant(ctx, convID, userID); err != nil {
		return err
	}

	allowed, err := r.canModify(ctx, convID, messageID, userID)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrNotSender
	}

	result, err := r.db.Exec(ctx, `DELETE FROM messages WHERE id = $1 AND conversation_id = $2`, messageID, convID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *Repository) canModify(ctx context.Context, convID, messageID, userID uuid.UUID) (bool, error) {
	var senderID uuid.UUID
	var ownerID *uuid.UUID
	err := r.db.QueryRow(ctx, `
		SELECT m.sender_id, c.owner_id
		FROM messages m
		JOIN conversations c ON m.conversation_id = c.id
		WHERE m.id = $1 AND m.conversation_id = $2
	`, messageID, convID).Scan(&senderID, &ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrMessageNotFound
	}
	if err != nil {
		return false, err
	}

	return senderID == userID || (ownerID != nil && *ownerID == userID), nil
}

// ToggleReaction flips the (user, emoji) pair on a message: present removes,
// absent adds. Two toggles by the same user return the message to its
// original state. Returns the full reaction list after the toggle.
func (r *Repository) ToggleReaction(ctx context.Context, convID, messageID, userID uuid.UUID, emoji string) ([]*models.Reaction, error) {
	if err := r.requireParticipant(ctx, convID, userID); err != nil {
		return nil, err
	}

	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM messages WHERE id = $1 AND conversation_id = $2)
	`, messageID, convID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrMessageNotFound
	}

	result, err := r.db.Exec(ctx, `
		DELETE FROM reactions WHERE message_id = $1 AND user_id = $2 AND emoji = $3
	`, messageID, userID, emoji)
	if err != nil {
		return nil, err
	}

	if result.RowsAffected() == 0 {
		_, err = r.db.Exec(ctx, `
			INSERT INTO reactions (message_id, user_id, emoji)
			VALUES ($1, $2, $3)
			ON CONFLICT (message_id, user_id, emoji) DO NOTHING
		`, messageID, userID, emoji)
		if err != nil {
			return nil, err
		}
	}

	return r.GetMessageReactions(ctx, messageID)
}

// MarkRead adds the user to a message's read set. Idempotent: the first call
// reports true, repeats report false, and the set never shrinks.
func (r *Repository) MarkRead(ctx context.Context, convID, messageID, userID uuid.UUID) (bool, error) {
	if err := r.requireParticipant(ctx, convID, userID); err != nil {
		return false, err
	}

	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM messages WHERE id = $1 AND conversation_id = $2)
	`, messageID, convID).Scan(&exists)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, ErrMessageNotFound
	}

	result, err := r.db.Exec(ctx, `
		INSERT INTO message_reads (message_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (message_id, user_id) DO NOTHING
	`, messageID, userID)
	if err != nil {
		return false, err
	}

	return result.RowsAffected() > 0, nil
}

// GetMessageReactions gets all reactions for a message.
func (r *Repository) GetMessageReactions(ctx context.Context, messageID uuid.UUID) ([]*models.Reaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.message_id, r.user_id, r.emoji, r.created_at,
		       `+userColumns+`
		FROM reactions r
		JOIN users u ON r.user_id = u.id
		WHERE r.message_id = $1
		ORDER BY r.created_at
	`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reactions := []*models.Reaction{}
	for rows.Next() {
		reaction := &models.Reaction{User: &models.User{}}
		err := rows.Scan(
			&reaction.ID, &reaction.MessageID, &reaction.UserID, &reaction.Emoji, &reaction.CreatedAt,
			&reaction.User.ID, &reaction.User.Email, &reaction.User.PasswordHash, &reaction.User.DisplayName,
			&reaction.User.AvatarURL, &reaction.User.CreatedAt, &reaction.User.UpdatedAt,
		)
		if err != nil {
			continue
		}
		reactions = append(reactions, reaction)
	}

	return reactions, nil
}

// CreateAttachment creates an attachment record before its message exists.
func (r *Repository) CreateAttachment(ctx context.Context, uploaderID uuid.UUID, kind, url, filename string, size int64) (*models.Attachment, error) {
	attachment := &models.Attachment{}
	err := r.db.QueryRow(ctx, `
		INSERT INTO attachments (uploader_id, kind, url, filename, size)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, message_id, kind, url, filename, size, created_at
	`, uploaderID, kind, url, filename, size).Scan(
		&attachment.ID, &attachment.MessageID, &attachment.Kind, &attachment.URL,
		&attachment.Filename, &attachment.Size, &attachment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return attachment, nil
}

func (r *Repository) loadSender(ctx context.Context, senderID uuid.UUID) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRow(ctx, `
		SELECT id, email, password_hash, display_name, avatar_url, created_at, updated_at
		FROM users WHERE id = $1
	`, senderID).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName,
		&user.AvatarURL, &user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}

func (r *Repository) loadLastMessage(ctx context.Context, convID uuid.UUID) *models.Message {
	msg := &models.Message{}
	err := r.db.QueryRow(ctx, `
		SELECT id, conversation_id, sender_id, kind, body, reply_to_id, edited, edited_at, sent_at, updated_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY sent_at DESC, id DESC LIMIT 1
	`, convID).Scan(
		&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Kind, &msg.Body, &msg.ReplyToID,
		&msg.Edited, &msg.EditedAt, &msg.SentAt, &msg.UpdatedAt,
	)
	if err != nil {
		return nil
	}
	return msg
}

func (r *Repository) loadReadBy(ctx context.Context, messageID uuid.UUID) []uuid.UUID {
	rows, err := r.db.Query(ctx, `
		SELECT user_id FROM message_reads WHERE message_id = $1 ORDER BY read_at
	`, messageID)
	if err != nil {
		return nil
	}
	defer rows.Close()

	readBy := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			continue
		}
		readBy = append(readBy, id)
	}
	return readBy
}

func (r *Repository) loadReactions(ctx context.Context, messageID uuid.UUID) []*models.Reaction {
	reactions, _ := r.GetMessageReactions(ctx, messageID)
	return reactions
}

func (r *Repository) loadAttachments(ctx context.Context, messageID uuid.UUID) []*models.Attachment {
	rows, err := r.db.Query(ctx, `
		SELECT id, message_id, kind, url, filename, size, created_at
		FROM attachments WHERE message_id = $1
	`, messageID)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var attachments []*models.Attachment
	for rows.Next() {
		a := &models.Attachment{}
		if err := rows.Scan(&a.ID, &a.MessageID, &a.Kind, &a.URL, &a.Filename, &a.Size, &a.CreatedAt); err != nil {
			continue
		}
		attachments = append(attachments, a)
	}
	return attachments
}
