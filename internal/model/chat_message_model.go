package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id        uuid.UUID
	Role      string
	Content   string
	Sources   []ChatSource
	CreatedAt time.Time
}

// ChatSource is a retrieved document chunk attached to an assistant turn.
type ChatSource struct {
	DocumentId string
	ChunkIndex int
	Content    string
	Score      float64
}
