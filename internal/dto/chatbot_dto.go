package dto

import (
	"time"
)

type SourceDTO struct {
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"`
	Content    string  `json:"content,omitempty"`
	ChunkIndex int     `json:"chunk_index,omitempty"`
}

type ConversationDTO struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GetAllConversationsResponse struct {
	Conversations []ConversationDTO `json:"conversations"`
}

type ChatHistoryMessageDTO struct {
	Id        string      `json:"id,omitempty"`
	Role      string      `json:"role"`
	Content   string      `json:"content"`
	Sources   []SourceDTO `json:"sources,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

type GetChatHistoryResponse struct {
	Messages []ChatHistoryMessageDTO `json:"messages"`
}

type SendChatRequest struct {
	Message        string  `json:"message" validate:"required"`
	ConversationId *string `json:"conversation_id,omitempty"`
	UseRag         bool    `json:"use_rag"`
	UseMainSystem  bool    `json:"use_main_system"`
	ProviderName   *string `json:"provider_name,omitempty"`
}

type SendChatResponse struct {
	Response       string      `json:"response"`
	ConversationId string      `json:"conversation_id"`
	Sources        []SourceDTO `json:"sources,omitempty"`
	Provider       string      `json:"provider"`
}

type ProviderDTO struct {
	Id           string `json:"id"`
	ProviderName string `json:"provider_name"`
	ModelName    string `json:"model_name,omitempty"`
	IsMainSystem bool   `json:"is_main_system"`
	IsActive     bool   `json:"is_active"`
}

type GetProvidersResponse struct {
	Providers []ProviderDTO `json:"providers"`
}

// ErrorResponse is the body of every non-2xx answer. The original backend uses
// "detail", the mock backend uses "message"; both are accepted.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
}
