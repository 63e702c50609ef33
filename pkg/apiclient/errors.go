package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"docsearch-console/internal/dto"
	"docsearch-console/pkg/chat"
)

// StatusError is returned for every non-2xx answer.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// Is lets a 404 match chat.ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == chat.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized
}

func newStatusError(status int, body []byte) *StatusError {
	var payload dto.ErrorResponse
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = payload.Detail
		if msg == "" {
			msg = payload.Message
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &StatusError{StatusCode: status, Message: msg}
}
