package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"docsearch-console/internal/constant"
	"docsearch-console/internal/dto"
	"docsearch-console/internal/entity"
	"docsearch-console/internal/mapper"
	"docsearch-console/internal/pkg/logger"
	"docsearch-console/pkg/chat"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

const clientModule = "APIClient"

// Client talks to the document search backend over its JSON API.
type Client struct {
	baseURL string
	timeout time.Duration
	base    http.RoundTripper
	logger  logger.ILogger
	mapper  *mapper.ChatMapper
	tracer  trace.Tracer

	mu   sync.RWMutex
	http *http.Client
}

var _ chat.API = (*Client)(nil)

type Option func(*Client)

// WithTransport replaces the underlying round tripper. The bearer token is
// still injected on top of it.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.base = rt
	}
}

func New(baseURL, token string, timeout time.Duration, log logger.ILogger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		base:    http.DefaultTransport,
		logger:  log,
		mapper:  mapper.NewChatMapper(),
		tracer:  otel.Tracer("docsearch-console/apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.SetToken(token)
	return c
}

// SetToken swaps the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) {
	transport := c.base
	if token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.base,
		}
	}

	c.mu.Lock()
	c.http = &http.Client{Timeout: c.timeout, Transport: transport}
	c.mu.Unlock()
}

// Login exchanges credentials for an access token and starts using it.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var res dto.TokenResponse
	err := c.do(ctx, http.MethodPost, constant.EndpointLogin, nil, dto.LoginRequest{Username: username, Password: password}, &res)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if res.AccessToken == "" {
		return "", fmt.Errorf("login: empty access token")
	}
	c.SetToken(res.AccessToken)
	return res.AccessToken, nil
}

func (c *Client) ListProviders(ctx context.Context, mainSystem bool) ([]entity.Provider, error) {
	q := url.Values{"is_main_system": {strconv.FormatBool(mainSystem)}}

	var res dto.GetProvidersResponse
	if err := c.do(ctx, http.MethodGet, constant.EndpointProviders, q, nil, &res); err != nil {
		return nil, err
	}
	return c.mapper.ProvidersToEntities(res.Providers), nil
}

func (c *Client) ListConversations(ctx context.Context) ([]entity.ConversationSummary, error) {
	var res dto.GetAllConversationsResponse
	if err := c.do(ctx, http.MethodGet, constant.EndpointConversations, nil, nil, &res); err != nil {
		return nil, err
	}
	return c.mapper.ConversationsToEntities(res.Conversations), nil
}

func (c *Client) GetHistory(ctx context.Context, conversationID string) ([]entity.Message, error) {
	q := url.Values{"conversation_id": {conversationID}}

	var res dto.GetChatHistoryResponse
	if err := c.do(ctx, http.MethodGet, constant.EndpointHistory, q, nil, &res); err != nil {
		return nil, err
	}
	return c.mapper.MessagesToEntities(res.Messages), nil
}

func (c *Client) SendMessage(ctx context.Context, req chat.SendRequest) (*chat.SendResult, error) {
	body := dto.SendChatRequest{
		Message:       req.Message,
		UseRag:        req.UseRAG,
		UseMainSystem: req.UseMainSystem,
	}
	if req.ConversationID != "" {
		body.ConversationId = &req.ConversationID
	}
	if req.ProviderName != "" {
		body.ProviderName = &req.ProviderName
	}

	var res dto.SendChatResponse
	if err := c.do(ctx, http.MethodPost, constant.EndpointChat, nil, body, &res); err != nil {
		return nil, err
	}
	return &chat.SendResult{
		Response:       res.Response,
		Sources:        c.mapper.SourcesToEntities(res.Sources),
		ConversationID: res.ConversationId,
		Provider:       res.Provider,
	}, nil
}

func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	path := constant.EndpointConversations + "/" + url.PathEscape(conversationID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, method+" "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	client := c.http
	c.mu.RUnlock()

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug(clientModule, "Request completed", map[string]interface{}{
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := newStatusError(resp.StatusCode, raw)
		span.SetStatus(codes.Error, statusErr.Message)
		return statusErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
