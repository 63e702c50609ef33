package apiclient

import (
	"errors"
	"net/http"
	"testing"

	"docsearch-console/pkg/chat"

	"github.com/stretchr/testify/assert"
)

func TestNewStatusError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "detail field", status: 404, body: `{"detail":"Conversation not found"}`, message: "Conversation not found"},
		{name: "message field", status: 400, body: `{"success":false,"message":"bad input"}`, message: "bad input"},
		{name: "detail wins over message", status: 400, body: `{"message":"a","detail":"b"}`, message: "b"},
		{name: "plain text body", status: 502, body: "upstream down\n", message: "upstream down"},
		{name: "empty body", status: 503, body: "", message: http.StatusText(503)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newStatusError(tt.status, []byte(tt.body))
			assert.Equal(t, tt.status, err.StatusCode)
			assert.Equal(t, tt.message, err.Message)
		})
	}
}

func TestStatusErrorMatching(t *testing.T) {
	notFound := newStatusError(http.StatusNotFound, nil)
	assert.True(t, errors.Is(notFound, chat.ErrNotFound))
	assert.False(t, IsUnauthorized(notFound))

	unauthorized := newStatusError(http.StatusUnauthorized, nil)
	assert.False(t, errors.Is(unauthorized, chat.ErrNotFound))
	assert.True(t, IsUnauthorized(unauthorized))
}
