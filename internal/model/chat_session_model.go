package model

import (
	"time"
)

// ChatSession is one conversation held by the mock backend. Id follows the
// backend's "conv_<unix seconds>" scheme.
type ChatSession struct {
	Id        string
	UserId    string // owner; sessions are never visible across users
	Title     string
	Messages  []ChatMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *ChatSession) Clone() *ChatSession {
	c := *s
	c.Messages = append([]ChatMessage(nil), s.Messages...)
	return &c
}
