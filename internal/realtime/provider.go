package realtime

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/user/orbit-back/internal/auth"
	"github.com/user/orbit-back/internal/cache"
	"github.com/user/orbit-back/internal/calls"
	"github.com/user/orbit-back/internal/messages"
	"github.com/user/orbit-back/internal/models"
	"github.com/user/orbit-back/internal/presence"
)

// Provider assembles the READY snapshot: profile, visible conversations, a
// presence map covering everyone in them, and any call state the client
// needs to resume.
type Provider struct {
	authRepo     *auth.Repository
	messagesRepo *messages.Repository
	presenceRepo *presence.Repository
	callsRepo    *calls.Repository
	cache        *cache.RedisCache
}

func NewProvider(
	authRepo *auth.Repository,
	messagesRepo *messages.Repository,
	presenceRepo *presence.Repository,
	callsRepo *calls.Repository,
	redisCache *cache.RedisCache,
) *Provider {
	return &Provider{
		authRepo:     authRepo,
		messagesRepo: messagesRepo,
		presenceRepo: presenceRepo,
		callsRepo:    callsRepo,
		cache:        redisCache,
	}
}

func (p *Provider) GetReadyState(ctx context.Context, userID uuid.UUID) (*models.ReadyEvent, error) {
	user, err := p.authRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	conversations, err := p.messagesRepo.GetUserConversations(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Hidden conversations stay out of the snapshot; hiding is per-user
	// and does not touch the shared record.
	if p.cache != nil {
		hidden, err := p.cache.HiddenConversations(ctx, userID)
		if err != nil {
			log.Printf("Failed to load hidden conversations for %s: %v", userID, err)
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

	seen := map[uuid.UUID]bool{userID: true}
	participantIDs := []uuid.UUID{userID}
	for _, conv := range conversations {
		for _, participant := range conv.Participants {
			if !seen[participant.ID] {
				seen[participant.ID] = true
				participantIDs = append(participantIDs, participant.ID)
			}
		}
	}

	// Typing flags live in Redis with a TTL, so a reconnecting client can
	// restore "X is typing" without waiting for the next signal.
	var typingMap map[string][]uuid.UUID
	if p.cache != nil {
		typingMap = map[string][]uuid.UUID{}
		for _, conv := range conversations {
			for _, participant := range conv.Participants {
				if participant.ID == userID {
					continue
				}
				active, err := p.cache.IsTyping(ctx, conv.ID, participant.ID)
				if err != nil {
					log.Printf("Failed to check typing flag for %s: %v", participant.ID, err)
					continue
				}
				if active {
					typingMap[conv.ID.String()] = append(typingMap[conv.ID.String()], participant.ID)
				}
			}
		}
	}

	presenceMap, err := p.presenceRepo.Snapshot(ctx, participantIDs)
	if err != nil {
		log.Printf("Failed to load presence snapshot for %s: %v", userID, err)
		presenceMap = map[string]*models.PresenceRecord{}
	}

	activeCall, err := p.callsRepo.GetActiveSessionForUser(ctx, userID)
	if err != nil {
		log.Printf("Failed to load active call for %s: %v", userID, err)
	}

	incomingCalls, err := p.callsRepo.GetIncomingSessions(ctx, userID)
	if err != nil {
		log.Printf("Failed to load incoming calls for %s: %v", userID, err)
	}
	if incomingCalls == nil {
		incomingCalls = []*models.CallSession{}
	}

	return &models.ReadyEvent{
		User:          user,
		Conversations: conversations,
		Presence:      presenceMap,
		Typing:        typingMap,
		ActiveCall:    activeCall,
		IncomingCalls: incomingCalls,
	}, nil
}
