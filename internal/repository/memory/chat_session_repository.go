package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"docsearch-console/internal/model"
	"docsearch-console/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type ChatSessionRepository struct {
	cache *cache.Cache
	// mu serializes read-modify-write sequences; go-cache only guards single calls.
	mu sync.Mutex
}

var _ contract.ChatSessionRepository = (*ChatSessionRepository)(nil)

func NewChatSessionRepository() *ChatSessionRepository {
	// Conversations live as long as the process; no janitor needed.
	return &ChatSessionRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func sessionKey(userId, id string) string {
	return userId + "/" + id
}

func (r *ChatSessionRepository) Create(ctx context.Context, session *model.ChatSession) error {
	if err := r.cache.Add(sessionKey(session.UserId, session.Id), session.Clone(), cache.NoExpiration); err != nil {
		return fmt.Errorf("create chat session %s: %w", session.Id, err)
	}
	return nil
}

func (r *ChatSessionRepository) AppendMessages(ctx context.Context, userId, id string, msgs ...model.ChatMessage) (*model.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := sessionKey(userId, id)
	x, found := r.cache.Get(key)
	if !found {
		return nil, contract.ErrRecordNotFound
	}

	session := x.(*model.ChatSession).Clone()
	session.Messages = append(session.Messages, msgs...)
	session.UpdatedAt = time.Now().UTC()
	r.cache.Set(key, session, cache.NoExpiration)
	return session.Clone(), nil
}

func (r *ChatSessionRepository) FindOne(ctx context.Context, userId, id string) (*model.ChatSession, error) {
	if x, found := r.cache.Get(sessionKey(userId, id)); found {
		return x.(*model.ChatSession).Clone(), nil
	}
	return nil, contract.ErrRecordNotFound
}

// FindAllByUser returns the user's sessions, most recently updated first.
func (r *ChatSessionRepository) FindAllByUser(ctx context.Context, userId string) ([]*model.ChatSession, error) {
	prefix := userId + "/"

	var out []*model.ChatSession
	for key, item := range r.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			out = append(out, item.Object.(*model.ChatSession).Clone())
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].Id > out[j].Id
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r *ChatSessionRepository) Delete(ctx context.Context, userId, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := sessionKey(userId, id)
	if _, found := r.cache.Get(key); !found {
		return contract.ErrRecordNotFound
	}
	r.cache.Delete(key)
	return nil
}
