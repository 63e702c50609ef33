package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"docsearch-console/internal/constant"
	"docsearch-console/internal/dto"
	"docsearch-console/internal/mapper"
	"docsearch-console/internal/model"
	"docsearch-console/internal/pkg/logger"
	"docsearch-console/internal/repository/contract"
	"docsearch-console/pkg/search"

	"github.com/google/uuid"
)

var ErrConversationNotFound = errors.New("conversation not found")

const (
	chatbotModule      = "ChatbotService"
	defaultHistorySize = 50
	retrievalTopK      = 3
	sourcePreviewRunes = 200
)

// IChatbotService is the chat side of the mock backend.
type IChatbotService interface {
	SendChat(ctx context.Context, userId string, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
	GetAllConversations(ctx context.Context, userId string) (*dto.GetAllConversationsResponse, error)
	GetChatHistory(ctx context.Context, userId, conversationId string, limit int) (*dto.GetChatHistoryResponse, error)
	DeleteConversation(ctx context.Context, userId, conversationId string) error
}

type chatbotService struct {
	sessions  contract.ChatSessionRepository
	providers IProviderService
	retriever *search.Retriever
	mapper    *mapper.ChatMapper
	logger    logger.ILogger
	now       func() time.Time
}

func NewChatbotService(
	sessions contract.ChatSessionRepository,
	providers IProviderService,
	retriever *search.Retriever,
	log logger.ILogger,
) IChatbotService {
	return &chatbotService{
		sessions:  sessions,
		providers: providers,
		retriever: retriever,
		mapper:    mapper.NewChatMapper(),
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *chatbotService) SendChat(ctx context.Context, userId string, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	var providerName string
	if req.ProviderName != nil {
		providerName = *req.ProviderName
	}

	provider, err := s.providers.Resolve(ctx, providerName, req.UseMainSystem)
	if err != nil {
		return nil, err
	}

	var sources []model.ChatSource
	if req.UseRag {
		for _, hit := range s.retriever.Search(req.Message, retrievalTopK) {
			sources = append(sources, model.ChatSource{
				DocumentId: hit.Chunk.DocumentId,
				ChunkIndex: hit.Chunk.ChunkIndex,
				Content:    preview(hit.Chunk.Content),
				Score:      hit.Score,
			})
		}
	}

	conversationId, err := s.ensureSession(ctx, userId, req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	answer := composeAnswer(provider, req.Message, sources)
	_, err = s.sessions.AppendMessages(ctx, userId, conversationId,
		model.ChatMessage{Id: uuid.New(), Role: constant.ChatMessageRoleUser, Content: req.Message, CreatedAt: now},
		model.ChatMessage{Id: uuid.New(), Role: constant.ChatMessageRoleAssistant, Content: answer, Sources: sources, CreatedAt: now},
	)
	if err != nil {
		return nil, fmt.Errorf("append messages: %w", err)
	}

	s.logger.Info(chatbotModule, "Chat answered", map[string]interface{}{
		"user_id":         userId,
		"conversation_id": conversationId,
		"provider":        provider.ProviderName,
		"sources":         len(sources),
	})

	label := providerName
	if label == "" {
		label = constant.DefaultProviderLabel
	}
	return &dto.SendChatResponse{
		Response:       answer,
		ConversationId: conversationId,
		Sources:        s.mapper.ChatSourcesToDTOs(sources),
		Provider:       label,
	}, nil
}

// ensureSession returns the id to append to, creating the session when the
// request names none or names one this user does not have yet.
func (s *chatbotService) ensureSession(ctx context.Context, userId string, req *dto.SendChatRequest) (string, error) {
	if req.ConversationId != nil && *req.ConversationId != "" {
		id := *req.ConversationId
		if _, err := s.sessions.FindOne(ctx, userId, id); err == nil {
			return id, nil
		}
		return id, s.createSession(ctx, userId, id, req.Message)
	}

	now := s.now()
	for attempt := 0; attempt < 5; attempt++ {
		id := conversationID(now.Add(time.Duration(attempt) * time.Microsecond))
		if err := s.createSession(ctx, userId, id, req.Message); err == nil {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not allocate a conversation id")
}

func (s *chatbotService) createSession(ctx context.Context, userId, id, firstMessage string) error {
	now := s.now()
	return s.sessions.Create(ctx, &model.ChatSession{
		Id:        id,
		UserId:    userId,
		Title:     mapper.TitleFromMessage(firstMessage),
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *chatbotService) GetAllConversations(ctx context.Context, userId string) (*dto.GetAllConversationsResponse, error) {
	sessions, err := s.sessions.FindAllByUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	res := &dto.GetAllConversationsResponse{Conversations: make([]dto.ConversationDTO, 0, len(sessions))}
	for _, session := range sessions {
		res.Conversations = append(res.Conversations, s.mapper.SessionToConversationDTO(session))
	}
	return res, nil
}

func (s *chatbotService) GetChatHistory(ctx context.Context, userId, conversationId string, limit int) (*dto.GetChatHistoryResponse, error) {
	session, err := s.sessions.FindOne(ctx, userId, conversationId)
	if errors.Is(err, contract.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultHistorySize
	}
	msgs := session.Messages
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	res := &dto.GetChatHistoryResponse{Messages: make([]dto.ChatHistoryMessageDTO, 0, len(msgs))}
	for _, msg := range msgs {
		res.Messages = append(res.Messages, s.mapper.ChatMessageModelToDTO(msg))
	}
	return res, nil
}

func (s *chatbotService) DeleteConversation(ctx context.Context, userId, conversationId string) error {
	err := s.sessions.Delete(ctx, userId, conversationId)
	if errors.Is(err, contract.ErrRecordNotFound) {
		return ErrConversationNotFound
	}
	if err != nil {
		return err
	}

	s.logger.Info(chatbotModule, "Conversation deleted", map[string]interface{}{
		"user_id":         userId,
		"conversation_id": conversationId,
	})
	return nil
}

func conversationID(t time.Time) string {
	return fmt.Sprintf("conv_%d.%06d", t.Unix(), t.Nanosecond()/int(time.Microsecond))
}

func composeAnswer(provider *model.LlmProvider, question string, sources []model.ChatSource) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s/%s] ", provider.ProviderName, provider.ModelName)
	if len(sources) == 0 {
		fmt.Fprintf(&sb, "No reference documents were used. You asked: %s", strings.TrimSpace(question))
		return sb.String()
	}

	docs := make([]string, 0, len(sources))
	for _, src := range sources {
		docs = append(docs, fmt.Sprintf("%s#%d", src.DocumentId, src.ChunkIndex))
	}
	fmt.Fprintf(&sb, "Based on %d reference passage(s) (%s): %s", len(sources), strings.Join(docs, ", "), sources[0].Content)
	return sb.String()
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= sourcePreviewRunes {
		return content
	}
	return string([]rune(content)[:sourcePreviewRunes]) + "..."
}
