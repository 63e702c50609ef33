package main

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"docsearch-console/internal/bootstrap"
	"docsearch-console/internal/config"
	"docsearch-console/internal/pkg/logger"
	"docsearch-console/internal/server"
	"docsearch-console/internal/service"
	"docsearch-console/pkg/apiclient"
	"docsearch-console/pkg/events"

	"github.com/fatih/color"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fiberTransport struct {
	app *fiber.App
}

func (t fiberTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.app.Test(req, -1)
}

func newTestSession(t *testing.T) (*session, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true
	ctx := context.Background()
	log := logger.NewNopLogger()

	mockCfg := &config.Config{Mock: config.MockConfig{JWTSecret: "secret", Username: "admin", Password: "pw"}}
	container, err := bootstrap.NewMockContainer(ctx, mockCfg, log)
	require.NoError(t, err)
	app := server.New(mockCfg, container).GetApp()

	client := apiclient.New("http://mock.local/api", "", 5*time.Second, log, apiclient.WithTransport(fiberTransport{app: app}))
	_, err = client.Login(ctx, "admin", "pw")
	require.NoError(t, err)

	bus := events.NewLocalBus(nil)
	t.Cleanup(func() { _ = bus.Close() })

	svc := service.NewChatService(client, bus, log, service.ChatServiceOptions{})
	out := &bytes.Buffer{}
	return newSession(svc, bus, out), out
}

// startSession returns a session already attached to the chat state, for
// tests that drive handle directly.
func startSession(t *testing.T) (*session, *bytes.Buffer) {
	t.Helper()
	s, out := newTestSession(t)
	t.Cleanup(s.attach())
	return s, out
}

func TestSessionRun(t *testing.T) {
	s, out := newTestSession(t)

	input := strings.Join([]string{
		"/rag off",
		"hello there",
		"/list",
		"/new",
		"/open #1",
		"/quit",
		"never sent",
	}, "\n")

	require.NoError(t, s.run(context.Background(), strings.NewReader(input)))

	text := out.String()
	assert.Contains(t, text, "rag=off backend=main provider=default")
	assert.Contains(t, text, "via default, saved as conv_")
	assert.Contains(t, text, "assistant: [openai/gpt-4o-mini] No reference documents were used. You asked: hello there")
	assert.Contains(t, text, "#1")
	// Shown once when sent and once when reopened; the refresh after the send
	// confirms the turns without printing them again.
	assert.Equal(t, 2, strings.Count(text, "you: hello there"))
	assert.Equal(t, 2, strings.Count(text, "You asked: hello there"))
	assert.NotContains(t, text, "never sent")
}

func TestSessionCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("provider must be active on the current backend", func(t *testing.T) {
		s, _ := startSession(t)

		_, err := s.handle(ctx, "/provider anthropic")
		assert.Error(t, err)

		_, err = s.handle(ctx, "/provider OpenAI")
		require.NoError(t, err)
		assert.Equal(t, "openai", s.chat.Settings().Snapshot().ProviderName)
	})

	t.Run("switching backend clears the provider", func(t *testing.T) {
		s, out := startSession(t)
		s.chat.Settings().SetProvider("openai")

		_, err := s.handle(ctx, "/main off")
		require.NoError(t, err)
		cfg := s.chat.Settings().Snapshot()
		assert.False(t, cfg.UseMainBackend)
		assert.Equal(t, "", cfg.ProviderName)

		_, err = s.handle(ctx, "/providers")
		require.NoError(t, err)
		assert.Contains(t, out.String(), "ollama")
		assert.Contains(t, out.String(), "huggingface")
	})

	t.Run("send with a provider and retrieval", func(t *testing.T) {
		s, out := startSession(t)

		_, err := s.handle(ctx, "/main off")
		require.NoError(t, err)
		_, err = s.handle(ctx, "/provider ollama")
		require.NoError(t, err)
		_, err = s.handle(ctx, "How is termination notice handled?")
		require.NoError(t, err)

		assert.Contains(t, out.String(), "you: How is termination notice handled?")
		assert.Contains(t, out.String(), "assistant: [ollama/llama3]")
		assert.Contains(t, out.String(), "vendor-contract#1")
		assert.Contains(t, out.String(), "via ollama, saved as ")
	})

	t.Run("delete by list index", func(t *testing.T) {
		s, out := startSession(t)

		_, err := s.handle(ctx, "first question")
		require.NoError(t, err)
		id := s.chat.ActiveConversation()
		require.NotEmpty(t, id)

		_, err = s.handle(ctx, "/list")
		require.NoError(t, err)
		_, err = s.handle(ctx, "/delete #1")
		require.NoError(t, err)

		assert.Contains(t, out.String(), "Deleted "+id)
		assert.Equal(t, "", s.chat.ActiveConversation())
	})

	t.Run("reopening the active conversation prints it again", func(t *testing.T) {
		s, out := startSession(t)

		_, err := s.handle(ctx, "/rag off")
		require.NoError(t, err)
		_, err = s.handle(ctx, "only question")
		require.NoError(t, err)
		id := s.chat.ActiveConversation()

		_, err = s.handle(ctx, "/open "+id)
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(out.String(), "you: only question"))
	})

	t.Run("list index refused after the listing changed", func(t *testing.T) {
		s, _ := startSession(t)

		_, err := s.handle(ctx, "/rag off")
		require.NoError(t, err)
		_, err = s.handle(ctx, "first")
		require.NoError(t, err)
		_, err = s.handle(ctx, "/list")
		require.NoError(t, err)
		_, err = s.handle(ctx, "/new")
		require.NoError(t, err)
		_, err = s.handle(ctx, "second")
		require.NoError(t, err)

		_, err = s.handle(ctx, "/open #1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "run it again")

		_, err = s.handle(ctx, "/list")
		require.NoError(t, err)
		_, err = s.handle(ctx, "/open #1")
		assert.NoError(t, err)
	})

	t.Run("events published during the session are listed", func(t *testing.T) {
		s, out := startSession(t)
		stop, err := s.watch(ctx)
		require.NoError(t, err)
		defer stop()

		_, err = s.handle(ctx, "/rag off")
		require.NoError(t, err)
		_, err = s.handle(ctx, "hello events")
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			return len(s.recentEvents()) >= 2
		}, 2*time.Second, 10*time.Millisecond)

		_, err = s.handle(ctx, "/events")
		require.NoError(t, err)
		assert.Contains(t, out.String(), "chat.conversation.created")
		assert.Contains(t, out.String(), "chat.message.exchanged")
	})

	t.Run("invalid input", func(t *testing.T) {
		s, _ := startSession(t)

		tests := []string{"/open", "/open #3", "/rag maybe", "/retry", "/bogus"}
		for _, line := range tests {
			quit, err := s.handle(ctx, line)
			assert.Error(t, err, line)
			assert.False(t, quit, line)
		}
	})

	t.Run("blank line is ignored", func(t *testing.T) {
		s, out := startSession(t)
		quit, err := s.handle(ctx, "   ")
		assert.NoError(t, err)
		assert.False(t, quit)
		assert.Empty(t, out.String())
	})
}

func TestParseSwitch(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{in: "on", want: true},
		{in: "OFF", want: false},
		{in: "yes", want: true},
		{in: "0", want: false},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseSwitch(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
