package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"docsearch-console/internal/entity"
	"docsearch-console/internal/pkg/logger"

	"github.com/patrickmn/go-cache"
)

const (
	directoryModule       = "ChatDirectory"
	conversationsCacheKey = "conversations"
)

type DirectoryAPI interface {
	ListConversations(ctx context.Context) ([]entity.ConversationSummary, error)
	DeleteConversation(ctx context.Context, conversationID string) error
}

// Directory enumerates the user's conversations and drives which one the
// Store focuses on.
type Directory struct {
	api    DirectoryAPI
	store  *Store
	logger logger.ILogger
	cache  *cache.Cache

	mu sync.Mutex
	// announced holds conversations created by a send that the backend has not
	// listed yet, newest first.
	announced []entity.ConversationSummary
	deleted   map[string]struct{}

	obsMu        sync.Mutex
	observers    map[int]func()
	nextObserver int
}

// NewDirectory caches the listing for ttl; ttl <= 0 keeps it until invalidated.
func NewDirectory(api DirectoryAPI, store *Store, log logger.ILogger, ttl time.Duration) *Directory {
	if ttl < 0 {
		ttl = cache.NoExpiration
	}
	return &Directory{
		api:    api,
		store:  store,
		logger: log,
		// No janitor: expired entries are dropped lazily by Get.
		cache:     cache.New(ttl, 0),
		deleted:   make(map[string]struct{}),
		observers: make(map[int]func()),
	}
}

// List returns the conversations in server recency order.
func (d *Directory) List(ctx context.Context) ([]entity.ConversationSummary, error) {
	if x, found := d.cache.Get(conversationsCacheKey); found {
		return cloneSummaries(x.([]entity.ConversationSummary)), nil
	}

	items, err := d.api.ListConversations(ctx)
	if err != nil {
		d.logger.Warn(directoryModule, "Conversation list failed", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	d.mu.Lock()
	merged := d.mergeLocked(items)
	d.cache.Set(conversationsCacheKey, merged, cache.DefaultExpiration)
	d.mu.Unlock()

	return cloneSummaries(merged), nil
}

// Select focuses the Store on id and loads its history.
func (d *Directory) Select(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "conversation_id", Err: ErrMissingConversationID}
	}
	d.store.Select(id)
	return d.store.LoadHistory(ctx, id)
}

// StartNew drops the focus and starts an unsaved conversation. No server call.
func (d *Directory) StartNew() {
	d.store.Clear()
}

// Delete removes id on the backend and from the listing. A conversation the
// backend no longer knows is treated as deleted. When id is the active
// conversation the Store is cleared in the same critical section.
func (d *Directory) Delete(ctx context.Context, id string) error {
	err := d.api.DeleteConversation(ctx, id)
	alreadyGone := errors.Is(err, ErrNotFound)
	if err != nil && !alreadyGone {
		d.logger.Error(directoryModule, "Conversation delete failed", map[string]interface{}{
			"conversation_id": id,
			"error":           err.Error(),
		})
		return fmt.Errorf("delete conversation %s: %w", id, err)
	}

	d.mu.Lock()
	d.deleted[id] = struct{}{}
	d.announced = withoutSummary(d.announced, id)
	if x, expiry, found := d.cache.GetWithExpiration(conversationsCacheKey); found {
		d.cache.Set(conversationsCacheKey, withoutSummary(x.([]entity.ConversationSummary), id), remaining(expiry))
	}

	d.store.mu.Lock()
	cleared := d.store.clearIfActiveLocked(id)
	snap := d.store.snapshotLocked()
	d.store.mu.Unlock()
	d.mu.Unlock()

	d.logger.Info(directoryModule, "Conversation deleted", map[string]interface{}{
		"conversation_id": id,
		"already_gone":    alreadyGone,
		"cleared_active":  cleared,
	})

	if cleared {
		d.store.notify(snap)
	}
	d.notify()
	return nil
}

// Invalidate drops the cached listing and tells subscribers to re-list.
func (d *Directory) Invalidate() {
	d.cache.Delete(conversationsCacheKey)
	d.notify()
}

// Subscribe registers fn to be called whenever the listing may have changed.
func (d *Directory) Subscribe(fn func()) func() {
	d.obsMu.Lock()
	id := d.nextObserver
	d.nextObserver++
	d.observers[id] = fn
	d.obsMu.Unlock()

	return func() {
		d.obsMu.Lock()
		delete(d.observers, id)
		d.obsMu.Unlock()
	}
}

// announce records a conversation the backend just created so that the next
// List includes it even if the backend listing lags behind.
func (d *Directory) announce(summary entity.ConversationSummary) {
	d.mu.Lock()
	delete(d.deleted, summary.ID)
	d.announced = append([]entity.ConversationSummary{summary}, withoutSummary(d.announced, summary.ID)...)
	d.mu.Unlock()

	d.Invalidate()
}

func (d *Directory) mergeLocked(items []entity.ConversationSummary) []entity.ConversationSummary {
	listed := make(map[string]struct{}, len(items))
	for _, it := range items {
		listed[it.ID] = struct{}{}
	}

	out := make([]entity.ConversationSummary, 0, len(items)+len(d.announced))
	pending := d.announced[:0]
	for _, a := range d.announced {
		if _, ok := listed[a.ID]; ok {
			continue
		}
		pending = append(pending, a)
		out = append(out, a)
	}
	d.announced = pending

	for _, it := range items {
		if _, gone := d.deleted[it.ID]; gone {
			continue
		}
		out = append(out, it)
	}
	return out
}

func (d *Directory) notify() {
	d.obsMu.Lock()
	observers := make([]func(), 0, len(d.observers))
	for _, fn := range d.observers {
		observers = append(observers, fn)
	}
	d.obsMu.Unlock()

	for _, fn := range observers {
		fn()
	}
}

func withoutSummary(items []entity.ConversationSummary, id string) []entity.ConversationSummary {
	out := make([]entity.ConversationSummary, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}

func cloneSummaries(items []entity.ConversationSummary) []entity.ConversationSummary {
	out := make([]entity.ConversationSummary, len(items))
	copy(out, items)
	return out
}

func remaining(expiry time.Time) time.Duration {
	if expiry.IsZero() {
		return cache.NoExpiration
	}
	if d := time.Until(expiry); d > 0 {
		return d
	}
	return time.Nanosecond
}
