package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/centrifugal/centrifuge"
	"github.com/google/uuid"
	"github.com/user/orbit-back/internal/auth"
	"github.com/user/orbit-back/internal/models"
)

// DataProvider loads the initial snapshot for a user.
type DataProvider interface {
	GetReadyState(ctx context.Context, userID uuid.UUID) (*models.ReadyEvent, error)
}

// MembershipProvider authorizes conversation channel subscriptions.
type MembershipProvider interface {
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
}

// PresenceHooks reacts to connection lifecycle changes.
type PresenceHooks interface {
	HandleConnect(ctx context.Context, userID uuid.UUID)
	HandleDisconnect(ctx context.Context, userID uuid.UUID)
}

// TypingHooks tears typing state down when its subscription goes away.
type TypingHooks interface {
	Stop(ctx context.Context, conversationID, userID uuid.UUID)
	StopAll(ctx context.Context, userID uuid.UUID)
}

type Node struct {
	node         *centrifuge.Node
	tokenService *auth.TokenService
	dataProvider DataProvider
	membership   MembershipProvider

	// Wired after construction; Node is created before the services that
	// publish through it.
	presence PresenceHooks
	typing   TypingHooks

	// Connection counts and which conversation channels each user holds
	// open. A conversation is "open" while at least one of the user's
	// connections is subscribed to it; notifications for open
	// conversations are suppressed.
	mu          sync.RWMutex
	onlineUsers map[uuid.UUID]int
	openConvs   map[uuid.UUID]map[uuid.UUID]int // userID -> convID -> subscription count
}

func NewNode(tokenService *auth.TokenService, dataProvider DataProvider, membership MembershipProvider) (*Node, error) {
	node, err := centrifuge.New(centrifuge.Config{
		LogLevel:   centrifuge.LogLevelInfo,
		LogHandler: func(e centrifuge.LogEntry) { log.Printf("[centrifuge] %s: %v", e.Message, e.Fields) },
	})
	if err != nil {
		return nil, err
	}

	n := &Node{
		node:         node,
		tokenService: tokenService,
		dataProvider: dataProvider,
		membership:   membership,
		onlineUsers:  make(map[uuid.UUID]int),
		openConvs:    make(map[uuid.UUID]map[uuid.UUID]int),
	}

	// Auth via JWT in connect request
	node.OnConnecting(func(ctx context.Context, e centrifuge.ConnectEvent) (centrifuge.ConnectReply, error) {
		if e.Token == "" {
			return centrifuge.ConnectReply{}, centrifuge.DisconnectInvalidToken
		}

		claims, err := tokenService.ValidateAccessToken(e.Token)
		if err != nil {
			return centrifuge.ConnectReply{}, centrifuge.DisconnectInvalidToken
		}

		return centrifuge.ConnectReply{
			Credentials: &centrifuge.Credentials{
				UserID: claims.UserID.String(),
			},
		}, nil
	})

	node.OnConnect(func(client *centrifuge.Client) {
		log.Printf("Client connected: %s (user: %s)", client.ID(), client.UserID())

		userID, err := uuid.Parse(client.UserID())
		if err != nil {
			return
		}

		wasOffline := n.addConnection(userID)
		if wasOffline && n.presence != nil {
			go n.presence.HandleConnect(context.Background(), userID)
		}

		// Conversation channels this client holds open
		var clientMu sync.Mutex
		clientConvs := make(map[uuid.UUID]bool)

		client.OnSubscribe(func(e centrifuge.SubscribeEvent, cb centrifuge.SubscribeCallback) {
			switch {
			case e.Channel == "user:"+client.UserID():
				n.sendReady(userID, cb)

			case strings.HasPrefix(e.Channel, "conversation:"):
				convID, err := uuid.Parse(strings.TrimPrefix(e.Channel, "conversation:"))
				if err != nil {
					cb(centrifuge.SubscribeReply{}, centrifuge.ErrorPermissionDenied)
					return
				}

				ok, err := n.membership.IsParticipant(context.Background(), convID, userID)
				if err != nil {
					cb(centrifuge.SubscribeReply{}, centrifuge.ErrorInternal)
					return
				}
				if !ok {
					cb(centrifuge.SubscribeReply{}, centrifuge.ErrorPermissionDenied)
					return
				}

				clientMu.Lock()
				clientConvs[convID] = true
				clientMu.Unlock()
				n.openConversation(userID, convID)

				cb(centrifuge.SubscribeReply{}, nil)

			default:
				cb(centrifuge.SubscribeReply{}, centrifuge.ErrorPermissionDenied)
			}
		})

		client.OnUnsubscribe(func(e centrifuge.UnsubscribeEvent) {
			if !strings.HasPrefix(e.Channel, "conversation:") {
				return
			}
			convID, err := uuid.Parse(strings.TrimPrefix(e.Channel, "conversation:"))
			if err != nil {
				return
			}

			clientMu.Lock()
			delete(clientConvs, convID)
			clientMu.Unlock()

			if n.closeConversation(userID, convID) && n.typing != nil {
				go n.typing.Stop(context.Background(), convID, userID)
			}
		})

		client.OnDisconnect(func(e centrifuge.DisconnectEvent) {
			log.Printf("Client disconnected: %s (reason: %s)", client.ID(), e.Reason)

			clientMu.Lock()
			convs := make([]uuid.UUID, 0, len(clientConvs))
			for convID := range clientConvs {
				convs = append(convs, convID)
			}
			clientConvs = make(map[uuid.UUID]bool)
			clientMu.Unlock()

			for _, convID := range convs {
				n.closeConversation(userID, convID)
			}

			wentOffline := n.removeConnection(userID)
			if wentOffline {
				if n.typing != nil {
					go n.typing.StopAll(context.Background(), userID)
				}
				if n.presence != nil {
					go n.presence.HandleDisconnect(context.Background(), userID)
				}
			}
		})
	})

	if err := node.Run(); err != nil {
		return nil, err
	}

	return n, nil
}

// SetPresenceHooks wires the presence service in after construction.
func (n *Node) SetPresenceHooks(hooks PresenceHooks) {
	n.presence = hooks
}

// SetTypingHooks wires the typing service in after construction.
func (n *Node) SetTypingHooks(hooks TypingHooks) {
	n.typing = hooks
}

func (n *Node) sendReady(userID uuid.UUID, cb centrifuge.SubscribeCallback) {
	readyState, err := n.dataProvider.GetReadyState(context.Background(), userID)
	if err != nil {
		log.Printf("Failed to get ready state for user %s: %v", userID, err)
		cb(centrifuge.SubscribeReply{}, centrifuge.ErrorInternal)
		return
	}

	// Send READY after the subscription is established
	go func() {
		time.Sleep(10 * time.Millisecond)
		if err := n.PublishToUser(userID, models.EventReady, readyState); err != nil {
			log.Printf("Failed to send READY to user %s: %v", userID, err)
		}
	}()

	cb(centrifuge.SubscribeReply{}, nil)
}

// addConnection records a connection, returns true if this is the user's first.
func (n *Node) addConnection(userID uuid.UUID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	wasOffline := n.onlineUsers[userID] == 0
	n.onlineUsers[userID]++
	return wasOffline
}

// removeConnection drops a connection, returns true if it was the user's last.
func (n *Node) removeConnection(userID uuid.UUID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.onlineUsers[userID]--
	if n.onlineUsers[userID] <= 0 {
		delete(n.onlineUsers, userID)
		return true
	}
	return false
}

func (n *Node) openConversation(userID, convID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.openConvs[userID] == nil {
		n.openConvs[userID] = make(map[uuid.UUID]int)
	}
	n.openConvs[userID][convID]++
}

// closeConversation drops one subscription, returns true when the user no
// longer has the conversation open anywhere.
func (n *Node) closeConversation(userID, convID uuid.UUID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	convs := n.openConvs[userID]
	if convs == nil {
		return true
	}
	convs[convID]--
	if convs[convID] <= 0 {
		delete(convs, convID)
		if len(convs) == 0 {
			delete(n.openConvs, userID)
		}
		return true
	}
	return false
}

// IsOnline checks if a user has at least one live connection.
func (n *Node) IsOnline(userID uuid.UUID) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.onlineUsers[userID] > 0
}

// HasConversationOpen reports whether the user is currently subscribed to the
// conversation's channel on any connection.
func (n *Node) HasConversationOpen(userID, convID uuid.UUID) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.openConvs[userID][convID] > 0
}

func (n *Node) Shutdown(ctx context.Context) error {
	return n.node.Shutdown(ctx)
}

func (n *Node) WebsocketHandler() http.Handler {
	return centrifuge.NewWebsocketHandler(n.node, centrifuge.WebsocketConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	})
}

func (n *Node) PublishToUser(userID uuid.UUID, eventType string, data interface{}) error {
	return n.publish("user:"+userID.String(), eventType, data)
}

func (n *Node) PublishToUsers(userIDs []uuid.UUID, eventType string, data interface{}) {
	for _, userID := range userIDs {
		if err := n.PublishToUser(userID, eventType, data); err != nil {
			log.Printf("Failed to publish to user %s: %v", userID, err)
		}
	}
}

func (n *Node) PublishToConversation(convID uuid.UUID, eventType string, data interface{}) error {
	return n.publish("conversation:"+convID.String(), eventType, data)
}

func (n *Node) publish(channel, eventType string, data interface{}) error {
	payload, err := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": data,
	})
	if err != nil {
		return err
	}

	_, err = n.node.Publish(channel, payload)
	return err
}
