package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "",
		DB:       0,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Typing signals. A key per (conversation, typist) with a short TTL: existence
// means typing, deletion means not typing. The TTL is a safety net for clients
// that vanish without sending a stop.
const (
	typingKeyPrefix = "typing:"
	TypingSignalTTL = 10 * time.Second
)

func typingKey(conversationID, userID uuid.UUID) string {
	return typingKeyPrefix + conversationID.String() + ":" + userID.String()
}

func (c *RedisCache) SetTyping(ctx context.Context, conversationID, userID uuid.UUID) error {
	return c.client.Set(ctx, typingKey(conversationID, userID), "1", TypingSignalTTL).Err()
}

func (c *RedisCache) ClearTyping(ctx context.Context, conversationID, userID uuid.UUID) error {
	return c.client.Del(ctx, typingKey(conversationID, userID)).Err()
}

func (c *RedisCache) IsTyping(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	n, err := c.client.Exists(ctx, typingKey(conversationID, userID)).Result()
	return n > 0, err
}

// Hidden conversations: a per-user set of conversation ids the user has chosen
// to hide. Hiding is local to the user and never touches the shared record.
const hiddenKeyPrefix = "hidden:conversations:"

func hiddenKey(userID uuid.UUID) string {
	return hiddenKeyPrefix + userID.String()
}

func (c *RedisCache) HideConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	return c.client.SAdd(ctx, hiddenKey(userID), conversationID.String()).Err()
}

func (c *RedisCache) UnhideConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	return c.client.SRem(ctx, hiddenKey(userID), conversationID.String()).Err()
}

func (c *RedisCache) HiddenConversations(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	members, err := c.client.SMembers(ctx, hiddenKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	hidden := make(map[uuid.UUID]bool, len(members))
	for _, m := range members {
		if id, err := uuid.Parse(m); err == nil {
			hidden[id] = true
		}
	}
	return hidden, nil
}

// Rate limiting
func (c *RedisCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	current, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}

	if current == 1 {
		c.client.Expire(ctx, key, window)
	}

	return current <= int64(limit), nil
}
