package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyMessage is wrapped by ValidationError for whitespace-only input.
	ErrEmptyMessage = errors.New("message is empty")

	ErrMissingConversationID = errors.New("conversation id is empty")

	// ErrSendInFlight rejects a send while another one for the same conversation is outstanding.
	ErrSendInFlight = errors.New("a message is already being sent for this conversation")

	// ErrNotFound is returned by API implementations when the conversation no longer exists.
	ErrNotFound = errors.New("conversation not found")
)

// ValidationError is raised locally, before any request is issued.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SendFailedError keeps the text the user typed so it can be resent as is.
type SendFailedError struct {
	Text           string
	ConversationID string
	Err            error
}

func (e *SendFailedError) Error() string {
	return fmt.Sprintf("send message: %v", e.Err)
}

func (e *SendFailedError) Unwrap() error { return e.Err }

// HistoryLoadError leaves the store at its last known good state; reselecting
// the conversation retries.
type HistoryLoadError struct {
	ConversationID string
	Err            error
}

func (e *HistoryLoadError) Error() string {
	return fmt.Sprintf("load history for %s: %v", e.ConversationID, e.Err)
}

func (e *HistoryLoadError) Unwrap() error { return e.Err }
