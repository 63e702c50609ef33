package chat

import (
	"context"

	"docsearch-console/internal/entity"
)

// API is the backend contract the chat view consumes. pkg/apiclient provides
// the HTTP implementation; tests substitute their own.
type API interface {
	ListProviders(ctx context.Context, mainSystem bool) ([]entity.Provider, error)
	ListConversations(ctx context.Context) ([]entity.ConversationSummary, error)
	GetHistory(ctx context.Context, conversationID string) ([]entity.Message, error)
	SendMessage(ctx context.Context, req SendRequest) (*SendResult, error)

	// DeleteConversation returns an error matching ErrNotFound when the id is already gone.
	DeleteConversation(ctx context.Context, conversationID string) error
}

// SendRequest carries one user message and the session toggles in effect when
// it was issued. Empty ConversationID means "start a new conversation", empty
// ProviderName means "backend default".
type SendRequest struct {
	Message        string
	ConversationID string
	UseRAG         bool
	UseMainSystem  bool
	ProviderName   string
}

type SendResult struct {
	Response       string
	Sources        []entity.Source
	ConversationID string
	Provider       string
}
