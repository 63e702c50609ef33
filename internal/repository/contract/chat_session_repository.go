package contract

import (
	"context"
	"errors"

	"docsearch-console/internal/model"
)

var ErrRecordNotFound = errors.New("record not found")

// ChatSessionRepository scopes every lookup by owner.
type ChatSessionRepository interface {
	Create(ctx context.Context, session *model.ChatSession) error
	AppendMessages(ctx context.Context, userId, id string, msgs ...model.ChatMessage) (*model.ChatSession, error)
	FindOne(ctx context.Context, userId, id string) (*model.ChatSession, error)
	FindAllByUser(ctx context.Context, userId string) ([]*model.ChatSession, error)
	Delete(ctx context.Context, userId, id string) error
}
