package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"docsearch-console/internal/bootstrap"
	"docsearch-console/internal/config"
	"docsearch-console/internal/dto"
	"docsearch-console/internal/pkg/logger"
	"docsearch-console/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	cfg := &config.Config{Mock: config.MockConfig{
		Port:      "0",
		JWTSecret: "test-secret",
		Username:  "admin",
		Password:  "admin123",
	}}
	container, err := bootstrap.NewMockContainer(context.Background(), cfg, logger.NewNopLogger())
	require.NoError(t, err)
	return server.New(cfg, container).GetApp()
}

func call(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func login(t *testing.T, app *fiber.App) string {
	t.Helper()
	status, raw := call(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "admin", Password: "admin123"})
	require.Equal(t, http.StatusOK, status, string(raw))

	var res dto.TokenResponse
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.Equal(t, "bearer", res.TokenType)
	return res.AccessToken
}

func TestLoginFailures(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name   string
		body   interface{}
		status int
	}{
		{name: "wrong password", body: dto.LoginRequest{Username: "admin", Password: "x"}, status: http.StatusUnauthorized},
		{name: "missing password", body: dto.LoginRequest{Username: "admin"}, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := call(t, app, http.MethodPost, "/api/auth/login", "", tt.body)
			assert.Equal(t, tt.status, status)

			var res dto.ErrorResponse
			require.NoError(t, json.Unmarshal(raw, &res))
			assert.False(t, res.Success)
			assert.NotEmpty(t, res.Detail)
		})
	}
}

func TestChatRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/api/chat/conversations", "/api/llm/providers"} {
		status, _ := call(t, app, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)

		status, _ = call(t, app, http.MethodGet, path, "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
	}
}

func TestChatFlow(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app)

	status, raw := call(t, app, http.MethodPost, "/api/chat/", token, map[string]interface{}{
		"message":         "When must security incidents be reported?",
		"use_rag":         true,
		"use_main_system": true,
	})
	require.Equal(t, http.StatusOK, status, string(raw))

	var sent dto.SendChatResponse
	require.NoError(t, json.Unmarshal(raw, &sent))
	assert.NotEmpty(t, sent.ConversationId)
	assert.Equal(t, "default", sent.Provider)
	require.NotEmpty(t, sent.Sources)
	assert.Equal(t, "security-policy", sent.Sources[0].DocumentID)

	status, raw = call(t, app, http.MethodGet, "/api/chat/conversations", token, nil)
	require.Equal(t, http.StatusOK, status)
	var list dto.GetAllConversationsResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list.Conversations, 1)
	assert.Equal(t, sent.ConversationId, list.Conversations[0].Id)

	status, raw = call(t, app, http.MethodGet, "/api/chat/history?conversation_id="+sent.ConversationId+"&limit=1", token, nil)
	require.Equal(t, http.StatusOK, status)
	var history dto.GetChatHistoryResponse
	require.NoError(t, json.Unmarshal(raw, &history))
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "assistant", history.Messages[0].Role)

	status, _ = call(t, app, http.MethodDelete, "/api/chat/conversations/"+sent.ConversationId, token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, raw = call(t, app, http.MethodDelete, "/api/chat/conversations/"+sent.ConversationId, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	var missing dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &missing))
	assert.Equal(t, "conversation not found", missing.Detail)
}

func TestChatValidation(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{name: "empty message", method: http.MethodPost, path: "/api/chat/", body: map[string]interface{}{"message": ""}, status: http.StatusBadRequest},
		{name: "history without id", method: http.MethodGet, path: "/api/chat/history", status: http.StatusBadRequest},
		{name: "history of unknown id", method: http.MethodGet, path: "/api/chat/history?conversation_id=conv_x", status: http.StatusNotFound},
		{name: "bad provider flag", method: http.MethodGet, path: "/api/llm/providers?is_main_system=maybe", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := call(t, app, tt.method, tt.path, token, tt.body)
			assert.Equal(t, tt.status, status, string(raw))
		})
	}
}

func TestListProviders(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app)

	status, raw := call(t, app, http.MethodGet, "/api/llm/providers?is_main_system=false", token, nil)
	require.Equal(t, http.StatusOK, status)

	var res dto.GetProvidersResponse
	require.NoError(t, json.Unmarshal(raw, &res))
	require.Len(t, res.Providers, 2)
	for _, p := range res.Providers {
		assert.False(t, p.IsMainSystem)
	}
}
