package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"docsearch-console/internal/constant"
	"docsearch-console/internal/entity"
	"docsearch-console/internal/mapper"
	"docsearch-console/internal/pkg/logger"

	"github.com/google/uuid"
)

const dispatcherModule = "ChatDispatcher"

type Sender interface {
	SendMessage(ctx context.Context, req SendRequest) (*SendResult, error)
}

// Outcome describes what a successful send did to the chat view.
type Outcome struct {
	ConversationID string
	Provider       string
	User           entity.Message
	Assistant      entity.Message

	// Promoted is set when the backend assigned the conversation its first id.
	Promoted bool
	// Discarded is set when the focus moved away while the send was in flight;
	// the exchange was persisted by the backend but not shown.
	Discarded bool
}

// Dispatcher sends user messages and folds the answers into the Store and
// Directory. Only one send per conversation may be outstanding.
type Dispatcher struct {
	api       Sender
	store     *Store
	directory *Directory
	settings  *Settings
	logger    logger.ILogger

	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewDispatcher(api Sender, store *Store, directory *Directory, settings *Settings, log logger.ILogger) *Dispatcher {
	return &Dispatcher{
		api:       api,
		store:     store,
		directory: directory,
		settings:  settings,
		logger:    log,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
		inFlight:  make(map[string]struct{}),
	}
}

// InFlight reports whether a send for the active conversation is outstanding.
func (d *Dispatcher) InFlight() bool {
	key := d.store.token().key()

	d.mu.Lock()
	defer d.mu.Unlock()
	_, busy := d.inFlight[key]
	return busy
}

// Send issues text against the active conversation using the session settings
// as they are right now. Whitespace-only text is rejected without a request.
func (d *Dispatcher) Send(ctx context.Context, text string) (*Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Field: "message", Err: ErrEmptyMessage}
	}

	cfg := d.settings.Snapshot()
	tok := d.store.token()
	key := tok.key()

	d.mu.Lock()
	if _, busy := d.inFlight[key]; busy {
		d.mu.Unlock()
		return nil, ErrSendInFlight
	}
	d.inFlight[key] = struct{}{}
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.inFlight, key)
		d.mu.Unlock()
	}()

	req := SendRequest{
		Message:        text,
		ConversationID: tok.conversationID,
		UseRAG:         cfg.UseRetrievalAugmentation,
		UseMainSystem:  cfg.UseMainBackend,
		ProviderName:   cfg.ProviderName,
	}

	issued := d.now()
	res, err := d.api.SendMessage(ctx, req)
	if err != nil {
		d.logger.Warn(dispatcherModule, "Send failed", map[string]interface{}{
			"conversation": key,
			"error":        err.Error(),
		})
		return nil, &SendFailedError{Text: text, ConversationID: tok.conversationID, Err: err}
	}

	user := entity.Message{
		ID:        d.newID(),
		Role:      constant.ChatMessageRoleUser,
		Content:   text,
		CreatedAt: issued,
	}
	assistant := entity.Message{
		ID:        d.newID(),
		Role:      constant.ChatMessageRoleAssistant,
		Content:   res.Response,
		Sources:   res.Sources,
		CreatedAt: d.now(),
	}

	conversationID := res.ConversationID
	if conversationID == "" {
		conversationID = tok.conversationID
	}

	applied, promoted := d.store.applySend(tok, conversationID, issued, user, assistant)
	if conversationID != tok.conversationID {
		d.directory.announce(entity.ConversationSummary{
			ID:        conversationID,
			Title:     mapper.TitleFromMessage(text),
			UpdatedAt: assistant.CreatedAt,
		})
	} else {
		d.directory.Invalidate()
	}

	if !applied {
		d.logger.Info(dispatcherModule, "Discarding answer for a conversation no longer in focus", map[string]interface{}{
			"issued_for":      key,
			"conversation_id": conversationID,
		})
	}

	user.Pending, assistant.Pending = applied, applied
	return &Outcome{
		ConversationID: conversationID,
		Provider:       res.Provider,
		User:           user,
		Assistant:      assistant,
		Promoted:       promoted,
		Discarded:      !applied,
	}, nil
}
