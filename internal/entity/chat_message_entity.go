package entity

import "time"

// Message is one turn of the focused conversation.
type Message struct {
	// ID is the server id for persisted turns and a local uuid for optimistic ones.
	ID        string
	Role      string
	Content   string
	Sources   []Source
	CreatedAt time.Time

	// Pending marks a turn appended optimistically and not yet seen in a history load.
	Pending bool
}
