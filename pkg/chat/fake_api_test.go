package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"docsearch-console/internal/constant"
	"docsearch-console/internal/entity"
	"docsearch-console/internal/pkg/logger"

	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-memory backend. Gates let a test hold a call open to
// interleave it with other operations.
type fakeAPI struct {
	mu sync.Mutex

	conversations []entity.ConversationSummary
	histories     map[string][]entity.Message
	providers     []entity.Provider
	nextID        int

	// hideNew keeps freshly created conversations out of ListConversations.
	hideNew bool

	sendGate    chan struct{}
	sendStarted chan SendRequest
	sendErr     error
	requests    []SendRequest

	historyGate    chan struct{}
	historyStarted chan string
	historyErr     error

	deleteErr error

	listCalls     int
	historyCalls  int
	deleteCalls   int
	providerCalls int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{histories: make(map[string][]entity.Message)}
}

func (f *fakeAPI) seed(id, title string, turns ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	base := time.Now().Add(-time.Hour)
	var msgs []entity.Message
	for i, t := range turns {
		role := constant.ChatMessageRoleUser
		if i%2 == 1 {
			role = constant.ChatMessageRoleAssistant
		}
		msgs = append(msgs, entity.Message{
			ID:        fmt.Sprintf("%s-m%d", id, i),
			Role:      role,
			Content:   t,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}
	f.histories[id] = msgs
	f.conversations = append(f.conversations, entity.ConversationSummary{ID: id, Title: title, UpdatedAt: base})
}

func (f *fakeAPI) ListProviders(ctx context.Context, mainSystem bool) ([]entity.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providerCalls++

	var out []entity.Provider
	for _, p := range f.providers {
		if p.IsMainSystem == mainSystem {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeAPI) ListConversations(ctx context.Context) ([]entity.ConversationSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return append([]entity.ConversationSummary(nil), f.conversations...), nil
}

func (f *fakeAPI) GetHistory(ctx context.Context, conversationID string) ([]entity.Message, error) {
	f.mu.Lock()
	f.historyCalls++
	// Copy before waiting so a held call answers with what the server had when it was issued.
	msgs, ok := f.histories[conversationID]
	msgs = append([]entity.Message(nil), msgs...)
	gate, started, herr := f.historyGate, f.historyStarted, f.historyErr
	f.mu.Unlock()

	if started != nil {
		started <- conversationID
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if herr != nil {
		return nil, herr
	}
	if !ok {
		return nil, ErrNotFound
	}
	return msgs, nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, req SendRequest) (*SendResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	gate, started, serr := f.sendGate, f.sendStarted, f.sendErr
	f.mu.Unlock()

	if started != nil {
		started <- req
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if serr != nil {
		return nil, serr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	id := req.ConversationID
	now := time.Now()
	if id == "" {
		f.nextID++
		id = fmt.Sprintf("conv_%d", f.nextID)
		if !f.hideNew {
			f.conversations = append([]entity.ConversationSummary{{ID: id, Title: req.Message, UpdatedAt: now}}, f.conversations...)
		}
	}

	var sources []entity.Source
	if req.UseRAG {
		sources = []entity.Source{{DocumentID: "doc-1", Score: 0.87}, {DocumentID: "doc-2", Score: 0.55}}
	}
	answer := "answer to " + req.Message
	n := len(f.histories[id])
	f.histories[id] = append(f.histories[id],
		entity.Message{ID: fmt.Sprintf("%s-m%d", id, n), Role: constant.ChatMessageRoleUser, Content: req.Message, CreatedAt: now},
		entity.Message{ID: fmt.Sprintf("%s-m%d", id, n+1), Role: constant.ChatMessageRoleAssistant, Content: answer, Sources: sources, CreatedAt: now},
	)

	provider := req.ProviderName
	if provider == "" {
		provider = constant.DefaultProviderLabel
	}
	return &SendResult{Response: answer, Sources: sources, ConversationID: id, Provider: provider}, nil
}

func (f *fakeAPI) DeleteConversation(ctx context.Context, conversationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++

	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.histories[conversationID]; !ok {
		return fmt.Errorf("status 404: %w", ErrNotFound)
	}
	delete(f.histories, conversationID)
	f.conversations = withoutSummary(f.conversations, conversationID)
	return nil
}

func (f *fakeAPI) history(id string) []entity.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.Message(nil), f.histories[id]...)
}

func (f *fakeAPI) sent() []SendRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SendRequest(nil), f.requests...)
}

type harness struct {
	api        *fakeAPI
	settings   *Settings
	store      *Store
	directory  *Directory
	dispatcher *Dispatcher
}

func newHarness(api *fakeAPI) *harness {
	log := logger.NewNopLogger()
	settings := NewSettings()
	store := NewStore(api, log)
	directory := NewDirectory(api, store, log, time.Minute)
	return &harness{
		api:        api,
		settings:   settings,
		store:      store,
		directory:  directory,
		dispatcher: NewDispatcher(api, store, directory, settings, log),
	}
}

type sendResult struct {
	out *Outcome
	err error
}

// sendAsync runs Send in a goroutine; the returned channel yields its result.
func (h *harness) sendAsync(text string) <-chan sendResult {
	done := make(chan sendResult, 1)
	go func() {
		out, err := h.dispatcher.Send(context.Background(), text)
		done <- sendResult{out: out, err: err}
	}()
	return done
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out waiting for channel")
	}
	var zero T
	return zero
}

var errBackendDown = errors.New("backend unavailable")

var _ API = (*fakeAPI)(nil)
