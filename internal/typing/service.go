package typing

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SignalStore persists the visible typing flag. The flag lives under a TTL so
// a crashed server cannot strand a user in the typing state; clearing it is
// the explicit "stopped typing" signal.
type SignalStore interface {
	SetTyping(ctx context.Context, conversationID, userID uuid.UUID) error
	ClearTyping(ctx context.Context, conversationID, userID uuid.UUID) error
}

// Publisher fans a typing change out to the conversation's participants.
type Publisher interface {
	PublishTyping(conversationID, userID uuid.UUID, typing bool)
}

type burstKey struct {
	conversationID uuid.UUID
	userID         uuid.UUID
}

// Service tracks typing bursts per (conversation, user). A keystroke starts a
// burst; every further keystroke extends it; the burst ends either explicitly
// or after the idle timeout, whichever comes first. Exactly one start and one
// stop signal are published per burst.
type Service struct {
	store     SignalStore
	publisher Publisher
	timeout   time.Duration

	mu     sync.Mutex
	bursts map[burstKey]*Debouncer
}

func NewService(store SignalStore, publisher Publisher, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	return &Service{
		store:     store,
		publisher: publisher,
		timeout:   timeout,
		bursts:    make(map[burstKey]*Debouncer),
	}
}

// Signal records a keystroke from userID in conversationID.
func (s *Service) Signal(ctx context.Context, conversationID, userID uuid.UUID) error {
	key := burstKey{conversationID, userID}

	if err := s.store.SetTyping(ctx, conversationID, userID); err != nil {
		return err
	}

	s.mu.Lock()
	d, active := s.bursts[key]
	if !active {
		d = NewDebouncer(s.timeout, func() { s.endBurst(key) })
		s.bursts[key] = d
	}
	d.Touch()
	s.mu.Unlock()

	if !active {
		s.publisher.PublishTyping(conversationID, userID, true)
	}
	return nil
}

// Stop explicitly ends userID's burst in conversationID, e.g. when the
// message is sent or the composer is cleared. No-op if no burst is active.
func (s *Service) Stop(ctx context.Context, conversationID, userID uuid.UUID) {
	key := burstKey{conversationID, userID}

	s.mu.Lock()
	d, active := s.bursts[key]
	if active {
		d.Stop()
		delete(s.bursts, key)
	}
	s.mu.Unlock()

	if !active {
		return
	}
	s.finish(ctx, key)
}

// StopAll ends every active burst for a user, used when they disconnect.
func (s *Service) StopAll(ctx context.Context, userID uuid.UUID) {
	s.mu.Lock()
	var keys []burstKey
	for key, d := range s.bursts {
		if key.userID == userID {
			d.Stop()
			delete(s.bursts, key)
			keys = append(keys, key)
		}
	}
	s.mu.Unlock()

	for _, key := range keys {
		s.finish(ctx, key)
	}
}

// endBurst is the debouncer expiry path: the idle timeout ran out.
func (s *Service) endBurst(key burstKey) {
	s.mu.Lock()
	_, active := s.bursts[key]
	if active {
		delete(s.bursts, key)
	}
	s.mu.Unlock()

	if !active {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.finish(ctx, key)
}

func (s *Service) finish(ctx context.Context, key burstKey) {
	if err := s.store.ClearTyping(ctx, key.conversationID, key.userID); err != nil {
		log.Printf("Failed to clear typing flag: %v", err)
	}
	s.publisher.PublishTyping(key.conversationID, key.userID, false)
}
