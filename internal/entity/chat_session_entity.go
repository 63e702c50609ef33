package entity

import "time"

type ConversationSummary struct {
	ID        string
	Title     string
	UpdatedAt time.Time
}
