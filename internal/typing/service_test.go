package typing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	flags   map[string]bool
	sets    int
	clears  int
	lastKey string
}

func newFakeStore() *fakeStore {
	return &fakeStore{flags: make(map[string]bool)}
}

func (f *fakeStore) key(convID, userID uuid.UUID) string {
	return convID.String() + ":" + userID.String()
}

func (f *fakeStore) SetTyping(_ context.Context, convID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags[f.key(convID, userID)] = true
	f.sets++
	return nil
}

func (f *fakeStore) ClearTyping(_ context.Context, convID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.flags, f.key(convID, userID))
	f.clears++
	f.lastKey = f.key(convID, userID)
	return nil
}

func (f *fakeStore) isTyping(convID, userID uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flags[f.key(convID, userID)]
}

type publishedSignal struct {
	convID uuid.UUID
	userID uuid.UUID
	typing bool
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedSignal
}

func (f *fakePublisher) PublishTyping(convID, userID uuid.UUID, typing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedSignal{convID, userID, typing})
}

func (f *fakePublisher) all() []publishedSignal {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]publishedSignal, len(f.events))
	copy(out, f.events)
	return out
}

func TestServicePublishesStartOncePerBurst(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewService(store, pub, 40*time.Millisecond)

	convID, userID := uuid.New(), uuid.New()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, svc.Signal(ctx, convID, userID))
		time.Sleep(5 * time.Millisecond)
	}

	events := pub.all()
	require.Len(t, events, 1, "repeated keystrokes in one burst publish one start")
	assert.True(t, events[0].typing)
	assert.True(t, store.isTyping(convID, userID))
}

func TestServiceBurstExpiresWithStopSignal(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewService(store, pub, 20*time.Millisecond)

	convID, userID := uuid.New(), uuid.New()
	require.NoError(t, svc.Signal(context.Background(), convID, userID))

	time.Sleep(80 * time.Millisecond)

	events := pub.all()
	require.Len(t, events, 2, "burst must end with exactly one stop signal")
	assert.True(t, events[0].typing)
	assert.False(t, events[1].typing, "expiry publishes an explicit false, not silence")
	assert.False(t, store.isTyping(convID, userID), "flag is deleted, not set to false")
}

func TestServiceExplicitStop(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewService(store, pub, time.Minute)

	convID, userID := uuid.New(), uuid.New()
	ctx := context.Background()

	require.NoError(t, svc.Signal(ctx, convID, userID))
	svc.Stop(ctx, convID, userID)

	events := pub.all()
	require.Len(t, events, 2)
	assert.False(t, events[1].typing)
	assert.False(t, store.isTyping(convID, userID))

	// Stopping with no active burst is a no-op
	svc.Stop(ctx, convID, userID)
	assert.Len(t, pub.all(), 2)
}

func TestServiceNewBurstAfterStop(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewService(store, pub, time.Minute)

	convID, userID := uuid.New(), uuid.New()
	ctx := context.Background()

	require.NoError(t, svc.Signal(ctx, convID, userID))
	svc.Stop(ctx, convID, userID)
	require.NoError(t, svc.Signal(ctx, convID, userID))

	events := pub.all()
	require.Len(t, events, 3)
	assert.True(t, events[2].typing, "a fresh burst after stop publishes a new start")
}

func TestServiceStopAllEndsEveryBurst(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewService(store, pub, time.Minute)

	userID := uuid.New()
	convA, convB := uuid.New(), uuid.New()
	otherUser := uuid.New()
	ctx := context.Background()

	require.NoError(t, svc.Signal(ctx, convA, userID))
	require.NoError(t, svc.Signal(ctx, convB, userID))
	require.NoError(t, svc.Signal(ctx, convA, otherUser))

	svc.StopAll(ctx, userID)

	assert.False(t, store.isTyping(convA, userID))
	assert.False(t, store.isTyping(convB, userID))
	assert.True(t, store.isTyping(convA, otherUser), "other users' bursts survive")

	stops := 0
	for _, e := range pub.all() {
		if !e.typing && e.userID == userID {
			stops++
		}
	}
	assert.Equal(t, 2, stops)
}
