package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"docsearch-console/internal/entity"
	"docsearch-console/internal/pkg/logger"
)

const storeModule = "ChatStore"

// DefaultReconcileSkew bounds how far a server timestamp may precede the local
// timestamp of the optimistic turn it confirms.
const DefaultReconcileSkew = 2 * time.Minute

// Snapshot is the observable state of the focused conversation. An empty
// ConversationID means the conversation has not been saved yet.
type Snapshot struct {
	ConversationID string
	Messages       []entity.Message
}

type Observer func(Snapshot)

type HistoryFetcher interface {
	GetHistory(ctx context.Context, conversationID string) ([]entity.Message, error)
}

// issueToken pins a send to the conversation it was issued against. Unsaved
// conversations are told apart by their draft epoch. loads is the last history
// load generation issued before the send.
type issueToken struct {
	conversationID string
	draft          uint64
	loads          uint64
}

func (t issueToken) key() string {
	if t.conversationID != "" {
		return t.conversationID
	}
	return fmt.Sprintf("draft:%d", t.draft)
}

// Store is the in-memory projection of the active conversation. History loads
// replace the confirmed turns; optimistic turns survive until a load confirms them.
type Store struct {
	fetcher HistoryFetcher
	logger  logger.ILogger
	skew    time.Duration

	mu       sync.Mutex
	activeID string
	draft    uint64
	messages []localTurn

	// loadSeq numbers history loads as they are issued; applied is the newest
	// generation folded into the current view. Older results are dropped.
	loadSeq uint64
	applied uint64

	obsMu        sync.Mutex
	observers    map[int]Observer
	nextObserver int
}

type StoreOption func(*Store)

func WithReconcileSkew(d time.Duration) StoreOption {
	return func(s *Store) {
		if d >= 0 {
			s.skew = d
		}
	}
}

func NewStore(fetcher HistoryFetcher, log logger.ILogger, opts ...StoreOption) *Store {
	s := &Store{
		fetcher:   fetcher,
		logger:    log,
		skew:      DefaultReconcileSkew,
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers an observer called after every mutation, outside the
// store lock. The returned func removes it.
func (s *Store) Subscribe(o Observer) func() {
	s.obsMu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = o
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

// Select targets id. Buffered turns are dropped only when switching to a
// different conversation; reselecting the active one keeps them for the reload.
func (s *Store) Select(id string) {
	if id == "" {
		s.Clear()
		return
	}

	s.mu.Lock()
	if s.activeID == id {
		s.mu.Unlock()
		return
	}
	s.activeID = id
	s.messages = nil
	s.applied = 0
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// LoadHistory fetches id's history and replaces the confirmed turns with it.
// On failure the store is left untouched. A result for a conversation that is
// no longer active, or older than a load already applied, is dropped.
func (s *Store) LoadHistory(ctx context.Context, id string) error {
	s.mu.Lock()
	s.loadSeq++
	gen := s.loadSeq
	s.mu.Unlock()

	msgs, err := s.fetcher.GetHistory(ctx, id)
	if err != nil {
		s.logger.Warn(storeModule, "History load failed", map[string]interface{}{
			"conversation_id": id,
			"error":           err.Error(),
		})
		return &HistoryLoadError{ConversationID: id, Err: err}
	}

	s.mu.Lock()
	if s.activeID != id {
		active := s.activeID
		s.mu.Unlock()
		s.logger.Debug(storeModule, "Discarding history of inactive conversation", map[string]interface{}{
			"conversation_id": id,
			"active_id":       active,
		})
		return nil
	}
	if gen < s.applied {
		applied := s.applied
		s.mu.Unlock()
		s.logger.Debug(storeModule, "Discarding history older than the applied load", map[string]interface{}{
			"conversation_id": id,
			"generation":      gen,
			"applied":         applied,
		})
		return nil
	}
	s.applied = gen
	before := countPending(s.messages)
	s.messages = reconcile(msgs, s.messages, gen, s.skew)
	after := countPending(s.messages)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug(storeModule, "History loaded", map[string]interface{}{
		"conversation_id": id,
		"messages":        len(msgs),
		"confirmed":       before - after,
		"still_pending":   after,
	})
	s.notify(snap)
	return nil
}

// AppendOptimistic appends a user/assistant exchange to the active
// conversation without a round trip.
func (s *Store) AppendOptimistic(user, assistant entity.Message) {
	s.mu.Lock()
	s.appendPendingLocked(time.Time{}, s.loadSeq+1, user, assistant)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Clear drops every turn and returns to an unsaved conversation.
func (s *Store) Clear() {
	s.mu.Lock()
	s.clearLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Store) token() issueToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	return issueToken{conversationID: s.activeID, draft: s.draft, loads: s.loadSeq}
}

// applySend appends a completed exchange if tok still designates the active
// conversation, promoting the active id when the server assigned a new one.
// issuedAt is when the request left; history loads match the turns against it.
func (s *Store) applySend(tok issueToken, conversationID string, issuedAt time.Time, user, assistant entity.Message) (applied, promoted bool) {
	s.mu.Lock()
	if s.activeID != tok.conversationID || s.draft != tok.draft {
		s.mu.Unlock()
		return false, false
	}
	if conversationID != "" && conversationID != s.activeID {
		s.activeID = conversationID
		promoted = true
	}
	s.appendPendingLocked(issuedAt, tok.loads+1, user, assistant)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true, promoted
}

// clearIfActiveLocked must be called with s.mu held; the caller notifies.
func (s *Store) clearIfActiveLocked(id string) bool {
	if id == "" || s.activeID != id {
		return false
	}
	s.clearLocked()
	return true
}

func (s *Store) clearLocked() {
	s.activeID = ""
	s.messages = nil
	s.applied = 0
	s.draft++
}

func (s *Store) appendPendingLocked(issuedAt time.Time, minLoad uint64, msgs ...entity.Message) {
	for _, m := range msgs {
		m.Pending = true
		s.messages = append(s.messages, localTurn{Message: m, issuedAt: issuedAt, minLoad: minLoad})
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{ConversationID: s.activeID, Messages: messagesOf(s.messages)}
}

func (s *Store) notify(snap Snapshot) {
	s.obsMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	s.obsMu.Unlock()

	for _, o := range observers {
		o(snap)
	}
}
