package service

import (
	"context"
	"time"

	"docsearch-console/internal/entity"
	"docsearch-console/internal/mapper"
	"docsearch-console/internal/pkg/logger"
	"docsearch-console/pkg/chat"
	"docsearch-console/pkg/events"
)

const chatServiceModule = "ChatService"

type ChatServiceOptions struct {
	DirectoryCacheTTL time.Duration
	ProviderCacheTTL  time.Duration
	ReconcileSkew     time.Duration
}

// IChatService is the console's chat view: one focused conversation, its
// session toggles and the conversation list.
type IChatService interface {
	Settings() *chat.Settings
	Reset()

	Providers(ctx context.Context) ([]entity.Provider, error)
	Conversations(ctx context.Context) ([]entity.ConversationSummary, error)
	Select(ctx context.Context, conversationId string) error
	StartNew()
	Delete(ctx context.Context, conversationId string) error
	Send(ctx context.Context, text string) (*chat.Outcome, error)

	History() chat.Snapshot
	ActiveConversation() string
	Sending() bool
	Subscribe(o chat.Observer) func()
	SubscribeConversations(fn func()) func()
}

type chatService struct {
	settings   *chat.Settings
	store      *chat.Store
	directory  *chat.Directory
	dispatcher *chat.Dispatcher
	catalog    *chat.ProviderCatalog
	publisher  events.Publisher
	logger     logger.ILogger
}

func NewChatService(api chat.API, publisher events.Publisher, log logger.ILogger, opts ChatServiceOptions) IChatService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	var storeOpts []chat.StoreOption
	if opts.ReconcileSkew > 0 {
		storeOpts = append(storeOpts, chat.WithReconcileSkew(opts.ReconcileSkew))
	}

	settings := chat.NewSettings()
	store := chat.NewStore(api, log, storeOpts...)
	directory := chat.NewDirectory(api, store, log, opts.DirectoryCacheTTL)

	return &chatService{
		settings:   settings,
		store:      store,
		directory:  directory,
		dispatcher: chat.NewDispatcher(api, store, directory, settings, log),
		catalog:    chat.NewProviderCatalog(api, settings, opts.ProviderCacheTTL),
		publisher:  publisher,
		logger:     log,
	}
}

func (s *chatService) Settings() *chat.Settings {
	return s.settings
}

// Reset returns to a freshly opened view: default toggles, unsaved conversation.
func (s *chatService) Reset() {
	s.settings.Reset()
	s.directory.StartNew()
}

func (s *chatService) Providers(ctx context.Context) ([]entity.Provider, error) {
	return s.catalog.Available(ctx)
}

func (s *chatService) Conversations(ctx context.Context) ([]entity.ConversationSummary, error) {
	return s.directory.List(ctx)
}

func (s *chatService) Select(ctx context.Context, conversationId string) error {
	if err := s.directory.Select(ctx, conversationId); err != nil {
		return err
	}

	snap := s.store.Snapshot()
	s.publish(ctx, events.ConversationSelected, map[string]interface{}{"conversation_id": conversationId})
	s.publish(ctx, events.HistoryLoaded, map[string]interface{}{
		"conversation_id": conversationId,
		"messages":        len(snap.Messages),
	})
	return nil
}

func (s *chatService) StartNew() {
	s.directory.StartNew()
}

func (s *chatService) Delete(ctx context.Context, conversationId string) error {
	if err := s.directory.Delete(ctx, conversationId); err != nil {
		return err
	}
	s.publish(ctx, events.ConversationDeleted, map[string]interface{}{"conversation_id": conversationId})
	return nil
}

// Send dispatches text and, once the answer is shown, reloads the history so
// the optimistic turns are confirmed by the backend copy.
func (s *chatService) Send(ctx context.Context, text string) (*chat.Outcome, error) {
	out, err := s.dispatcher.Send(ctx, text)
	if err != nil {
		return nil, err
	}

	if out.Promoted {
		s.publish(ctx, events.ConversationCreated, map[string]interface{}{
			"conversation_id": out.ConversationID,
			"title":           mapper.TitleFromMessage(text),
		})
	}
	s.publish(ctx, events.MessageExchanged, map[string]interface{}{
		"conversation_id": out.ConversationID,
		"provider":        out.Provider,
		"sources":         len(out.Assistant.Sources),
		"discarded":       out.Discarded,
	})

	if !out.Discarded && out.ConversationID != "" {
		if err := s.store.LoadHistory(ctx, out.ConversationID); err != nil {
			s.logger.Warn(chatServiceModule, "History refresh after send failed", map[string]interface{}{
				"conversation_id": out.ConversationID,
				"error":           err.Error(),
			})
		}
	}
	return out, nil
}

func (s *chatService) History() chat.Snapshot {
	return s.store.Snapshot()
}

func (s *chatService) ActiveConversation() string {
	return s.store.ActiveID()
}

func (s *chatService) Sending() bool {
	return s.dispatcher.InFlight()
}

func (s *chatService) Subscribe(o chat.Observer) func() {
	return s.store.Subscribe(o)
}

func (s *chatService) SubscribeConversations(fn func()) func() {
	return s.directory.Subscribe(fn)
}

func (s *chatService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if err := s.publisher.Publish(ctx, events.NewChatEvent(eventType, data)); err != nil {
		s.logger.Warn(chatServiceModule, "Event publish failed", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}
