package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event defines the contract for all chat session events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "chat.message.exchanged").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

const (
	ConversationSelected = "chat.conversation.selected"
	ConversationCreated  = "chat.conversation.created"
	ConversationDeleted  = "chat.conversation.deleted"
	MessageExchanged     = "chat.message.exchanged"
	HistoryLoaded        = "chat.history.loaded"
)

type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func NewChatEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

// Encode is the wire form shared by every transport.
func Encode(e Event) ([]byte, error) {
	data, err := json.Marshal(BaseEvent{Type: e.EventType(), Data: e.Payload(), OccurredAt: e.Timestamp()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event %s: %w", e.EventType(), err)
	}
	return data, nil
}

func Decode(data []byte) (BaseEvent, error) {
	var e BaseEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return BaseEvent{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if e.Type == "" {
		return BaseEvent{}, fmt.Errorf("event without type")
	}
	return e, nil
}
