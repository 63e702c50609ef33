package mapper

import (
	"strings"
	"unicode/utf8"

	"docsearch-console/internal/constant"
	"docsearch-console/internal/dto"
	"docsearch-console/internal/entity"
	"docsearch-console/internal/model"
)

// TitleFromMessage derives a listing title from the first message of a conversation.
func TitleFromMessage(text string) string {
	title := strings.Join(strings.Fields(text), " ")
	if title == "" {
		return constant.DefaultConversationTitle
	}
	if utf8.RuneCountInString(title) <= constant.ConversationTitleMaxRunes {
		return title
	}
	runes := []rune(title)
	return string(runes[:constant.ConversationTitleMaxRunes]) + "..."
}

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Conversation Mappers

func (m *ChatMapper) ConversationToEntity(c dto.ConversationDTO) entity.ConversationSummary {
	return entity.ConversationSummary{
		ID:        c.Id,
		Title:     c.Title,
		UpdatedAt: c.UpdatedAt,
	}
}

func (m *ChatMapper) ConversationsToEntities(cs []dto.ConversationDTO) []entity.ConversationSummary {
	out := make([]entity.ConversationSummary, 0, len(cs))
	for _, c := range cs {
		out = append(out, m.ConversationToEntity(c))
	}
	return out
}

// Message Mappers

func (m *ChatMapper) MessageToEntity(msg dto.ChatHistoryMessageDTO) entity.Message {
	return entity.Message{
		ID:        msg.Id,
		Role:      NormalizeRole(msg.Role),
		Content:   msg.Content,
		Sources:   m.SourcesToEntities(msg.Sources),
		CreatedAt: msg.CreatedAt,
	}
}

func (m *ChatMapper) MessagesToEntities(msgs []dto.ChatHistoryMessageDTO) []entity.Message {
	out := make([]entity.Message, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, m.MessageToEntity(msg))
	}
	return out
}

func (m *ChatMapper) MessageToDTO(msg entity.Message) dto.ChatHistoryMessageDTO {
	return dto.ChatHistoryMessageDTO{
		Id:        msg.ID,
		Role:      msg.Role,
		Content:   msg.Content,
		Sources:   m.SourcesToDTOs(msg.Sources),
		CreatedAt: msg.CreatedAt,
	}
}

// Source Mappers

func (m *ChatMapper) SourcesToEntities(srcs []dto.SourceDTO) []entity.Source {
	if len(srcs) == 0 {
		return nil
	}
	out := make([]entity.Source, 0, len(srcs))
	for _, s := range srcs {
		out = append(out, entity.Source{
			DocumentID: s.DocumentID,
			Score:      s.Score,
			Content:    s.Content,
			ChunkIndex: s.ChunkIndex,
		})
	}
	return out
}

func (m *ChatMapper) SourcesToDTOs(srcs []entity.Source) []dto.SourceDTO {
	if len(srcs) == 0 {
		return nil
	}
	out := make([]dto.SourceDTO, 0, len(srcs))
	for _, s := range srcs {
		out = append(out, dto.SourceDTO{
			DocumentID: s.DocumentID,
			Score:      s.Score,
			Content:    s.Content,
			ChunkIndex: s.ChunkIndex,
		})
	}
	return out
}

// Provider Mappers

func (m *ChatMapper) ProvidersToEntities(ps []dto.ProviderDTO) []entity.Provider {
	out := make([]entity.Provider, 0, len(ps))
	for _, p := range ps {
		out = append(out, entity.Provider{
			ID:           p.Id,
			Name:         p.ProviderName,
			ModelName:    p.ModelName,
			IsMainSystem: p.IsMainSystem,
			IsActive:     p.IsActive,
		})
	}
	return out
}

// NormalizeRole folds provider-specific spellings ("model", "Assistant") into
// the two roles the chat view knows about.
func NormalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == constant.ChatMessageRoleModel {
		return constant.ChatMessageRoleAssistant
	}
	return r
}

// Mock backend mappers

func (m *ChatMapper) SessionToConversationDTO(s *model.ChatSession) dto.ConversationDTO {
	return dto.ConversationDTO{
		Id:        s.Id,
		Title:     s.Title,
		UpdatedAt: s.UpdatedAt,
	}
}

func (m *ChatMapper) ChatMessageModelToDTO(msg model.ChatMessage) dto.ChatHistoryMessageDTO {
	return dto.ChatHistoryMessageDTO{
		Id:        msg.Id.String(),
		Role:      msg.Role,
		Content:   msg.Content,
		Sources:   m.ChatSourcesToDTOs(msg.Sources),
		CreatedAt: msg.CreatedAt,
	}
}

func (m *ChatMapper) ChatSourcesToDTOs(srcs []model.ChatSource) []dto.SourceDTO {
	if len(srcs) == 0 {
		return nil
	}
	out := make([]dto.SourceDTO, 0, len(srcs))
	for _, s := range srcs {
		out = append(out, dto.SourceDTO{
			DocumentID: s.DocumentId,
			Score:      s.Score,
			Content:    s.Content,
			ChunkIndex: s.ChunkIndex,
		})
	}
	return out
}
