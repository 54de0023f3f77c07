package messages

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/orbit-back/internal/models"
)

// Window is the loaded slice of a conversation's history, kept ordered by
// sent_at regardless of the order events arrive in. Realtime inserts, edits,
// deletions, reaction replacements and read receipts are folded in place; a
// message outside the window is silently ignored.
type Window struct {
	mu       sync.RWMutex
	messages []*models.Message
	index    map[uuid.UUID]int
}

func NewWindow(initial []*models.Message) *Window {
	w := &Window{index: make(map[uuid.UUID]int)}
	for _, msg := range initial {
		w.insertLocked(msg)
	}
	return w
}

// Insert places a message at its chronological position. A message already
// present is replaced in place, so redelivery cannot duplicate entries.
func (w *Window) Insert(msg *models.Message) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.insertLocked(msg)
}

func (w *Window) insertLocked(msg *models.Message) {
	if i, ok := w.index[msg.ID]; ok {
		w.messages[i] = msg
		return
	}

	pos := sort.Search(len(w.messages), func(i int) bool {
		m := w.messages[i]
		if !m.SentAt.Equal(msg.SentAt) {
			return m.SentAt.After(msg.SentAt)
		}
		return m.ID.String() > msg.ID.String()
	})

	w.messages = append(w.messages, nil)
	copy(w.messages[pos+1:], w.messages[pos:])
	w.messages[pos] = msg
	w.reindexLocked(pos)
}

// ApplyEdit replaces the body of a message in the window.
func (w *Window) ApplyEdit(messageID uuid.UUID, body *string, editedAt *time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i, ok := w.index[messageID]
	if !ok {
		return
	}
	w.messages[i].Body = body
	w.messages[i].Edited = true
	w.messages[i].EditedAt = editedAt
}

// ApplyDelete removes a message from the window.
func (w *Window) ApplyDelete(messageID uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i, ok := w.index[messageID]
	if !ok {
		return
	}
	w.messages = append(w.messages[:i], w.messages[i+1:]...)
	delete(w.index, messageID)
	w.reindexLocked(i)
}

// ApplyReactions replaces a message's reaction list wholesale. Events carry
// the full list, so out-of-order delivery settles on the latest state.
func (w *Window) ApplyReactions(messageID uuid.UUID, reactions []*models.Reaction) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i, ok := w.index[messageID]
	if !ok {
		return
	}
	w.messages[i].Reactions = reactions
}

// ApplyRead adds a reader to a message's read set. The set only grows.
func (w *Window) ApplyRead(messageID, readerID uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i, ok := w.index[messageID]
	if !ok {
		return
	}
	msg := w.messages[i]
	if msg.HasRead(readerID) {
		return
	}
	msg.ReadBy = append(msg.ReadBy, readerID)
}

// Messages returns the window contents in chronological order.
func (w *Window) Messages() []*models.Message {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*models.Message, len(w.messages))
	copy(out, w.messages)
	return out
}

// Len returns the number of messages currently in the window.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.messages)
}

// Search returns the loaded messages whose body contains the query,
// case-insensitively, preserving chronological order. It only consults the
// window; history not yet loaded is not searched.
func (w *Window) Search(query string) []*models.Message {
	w.mu.RLock()
	defer w.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var out []*models.Message
	for _, msg := range w.messages {
		if msg.Body == nil {
			continue
		}
		if strings.Contains(strings.ToLower(*msg.Body), query) {
			out = append(out, msg)
		}
	}
	return out
}

func (w *Window) reindexLocked(from int) {
	for i := from; i < len(w.messages); i++ {
		w.index[w.messages[i].ID] = i
	}
}

// Stream couples a window to a live event feed. Events arriving after Close
// are dropped, so a disposed subscription can never mutate the window again.
// The server only serves pages; Stream is the reference consumption layer a
// connected session drives with channel events, kept here so its lifecycle
// rules live next to the window they protect.
type Stream struct {
	mu     sync.Mutex
	window *Window
	closed bool
}

func NewStream(window *Window) *Stream {
	return &Stream{window: window}
}

func (s *Stream) Window() *Window {
	return s.window
}

// HandleCreate folds a new message into the window.
func (s *Stream) HandleCreate(msg *models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.window.Insert(msg)
}

// HandleUpdate applies an edited message.
func (s *Stream) HandleUpdate(msg *models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.window.ApplyEdit(msg.ID, msg.Body, msg.EditedAt)
}

// HandleDelete drops a deleted message.
func (s *Stream) HandleDelete(messageID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.window.ApplyDelete(messageID)
}

// HandleReactions replaces a message's reactions.
func (s *Stream) HandleReactions(messageID uuid.UUID, reactions []*models.Reaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.window.ApplyReactions(messageID, reactions)
}

// HandleRead records a read receipt.
func (s *Stream) HandleRead(messageID, readerID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.window.ApplyRead(messageID, readerID)
}

// Close detaches the stream. Safe to call more than once.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Closed reports whether the stream has been detached.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
