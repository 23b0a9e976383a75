package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/afittestide/orchat/storage"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Completer returns the assistant reply for a conversation
type Completer interface {
	Complete(ctx context.Context, modelID string, messages []storage.Message) (string, error)
}

// ErrorKind classifies completion failures
type ErrorKind int

const (
	ErrAPI ErrorKind = iota
	ErrUnauthorized
	ErrModelNotFound
	ErrRateLimited
	ErrNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnauthorized:
		return "unauthorized"
	case ErrModelNotFound:
		return "not_found"
	case ErrRateLimited:
		return "rate_limited"
	case ErrNetwork:
		return "network"
	default:
		return "api"
	}
}

// CompletionError is returned for every failed completion call
type CompletionError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Model   string
}

func (e *CompletionError) Error() string {
	switch e.Kind {
	case ErrUnauthorized:
		return "Invalid API key. Please check your OPENROUTER_API_KEY."
	case ErrModelNotFound:
		return fmt.Sprintf("Model %q not found. Please check the model ID.", e.Model)
	case ErrRateLimited:
		return "Rate limit exceeded. Please wait and try again."
	case ErrNetwork:
		return "Network error: " + e.Message
	default:
		return "API Error: " + e.Message
	}
}

// openRouterTransport adds OpenRouter attribution headers and turns
// non-2xx responses into *CompletionError
type openRouterTransport struct {
	apiKey  string
	referer string
	title   string
	base    http.RoundTripper
}

func (t *openRouterTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone request to avoid mutating caller's request
	r := req.Clone(req.Context())
	if t.referer != "" {
		r.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		r.Header.Set("X-Title", t.title)
	}
	if r.Header.Get("Authorization") == "" && t.apiKey != "" {
		r.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(r)
	if err != nil {
		return nil, &CompletionError{Kind: ErrNetwork, Message: err.Error()}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	cerr := &CompletionError{
		Kind:    kindForStatus(resp.StatusCode),
		Status:  resp.StatusCode,
		Message: errorMessage(resp.StatusCode, body),
	}
	slog.Debug("openrouter request failed", "url", r.URL.Path, "status", resp.StatusCode, "kind", cerr.Kind)
	return nil, cerr
}

func kindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrModelNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrAPI
	}
}

// errorMessage extracts {"error":{"message":...}} from an error body
func errorMessage(status int, body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("%d %s", status, http.StatusText(status))
}

// classifyError maps any error from the client stack onto *CompletionError
func classifyError(err error, modelID string) *CompletionError {
	var cerr *CompletionError
	if errors.As(err, &cerr) {
		out := *cerr
		if out.Kind == ErrModelNotFound && out.Model == "" {
			out.Model = modelID
		}
		return &out
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return &CompletionError{Kind: ErrNetwork, Message: err.Error(), Model: modelID}
	}
	return &CompletionError{Kind: ErrAPI, Message: err.Error(), Model: modelID}
}

// OpenRouterClient talks to OpenRouter through its OpenAI compatible API
type OpenRouterClient struct {
	llm         llms.Model
	httpClient  *http.Client
	baseURL     string
	temperature float64
	maxTokens   int
}

// NewOpenRouterClient builds a client from the OpenRouter configuration
func NewOpenRouterClient(cfg OpenRouterConfig, apiKey, defaultModel string) (*OpenRouterClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	httpClient := &http.Client{
		Transport: &openRouterTransport{
			apiKey:  apiKey,
			referer: cfg.Referer,
			title:   cfg.Title,
			base:    http.DefaultTransport,
		},
	}

	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(defaultModel),
		openai.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenRouter client: %w", err)
	}

	return &OpenRouterClient{
		llm:         llm,
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Complete sends the conversation to modelID and returns the first choice
func (c *OpenRouterClient) Complete(ctx context.Context, modelID string, messages []storage.Message) (string, error) {
	content := toMessageContent(messages)

	opts := []llms.CallOption{llms.WithModel(modelID)}
	if c.temperature > 0 {
		opts = append(opts, llms.WithTemperature(c.temperature))
	}
	if c.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.maxTokens))
	}

	slog.Debug("completion request", "model", modelID, "messages", len(content))
	resp, err := c.llm.GenerateContent(ctx, content, opts...)
	if err != nil {
		cerr := classifyError(err, modelID)
		slog.Warn("completion failed", "model", modelID, "kind", cerr.Kind, "error", err)
		return "", cerr
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", &CompletionError{Kind: ErrAPI, Message: "empty response", Model: modelID}
	}
	return resp.Choices[0].Content, nil
}

// TestConnection checks that the API is reachable with the configured key
func (c *OpenRouterClient) TestConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("failed to build connection test request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyError(err, "")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func toMessageContent(messages []storage.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		out = append(out, llms.TextParts(chatMessageType(m.Role), m.Content))
	}
	return out
}

func chatMessageType(role string) llms.ChatMessageType {
	switch role {
	case storage.RoleSystem:
		return llms.ChatMessageTypeSystem
	case storage.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
