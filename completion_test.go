package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/afittestide/orchat/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Path    string
	Headers http.Header
	Body    map[string]any
}

// newOpenRouterServer fakes the chat completions endpoint
func newOpenRouterServer(t *testing.T, status int, body string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var payload map[string]any
		_ = json.Unmarshal(raw, &payload)
		mu.Lock()
		requests = append(requests, recordedRequest{Path: r.URL.Path, Headers: r.Header.Clone(), Body: payload})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func chatCompletionBody(content string) string {
	return fmt.Sprintf(`{"id":"gen-1","object":"chat.completion","created":1,"model":"openai/gpt-4",`+
		`"choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}],`+
		`"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`, content)
}

func newTestClient(t *testing.T, baseURL string) *OpenRouterClient {
	t.Helper()
	client, err := NewOpenRouterClient(OpenRouterConfig{
		BaseURL:     baseURL,
		Referer:     "https://example.com/orchat",
		Title:       "orchat-test",
		Temperature: 0.5,
		MaxTokens:   128,
	}, "sk-test", "openai/gpt-4")
	require.NoError(t, err)
	return client
}

func TestNewOpenRouterClientRequiresKey(t *testing.T) {
	_, err := NewOpenRouterClient(OpenRouterConfig{BaseURL: defaultBaseURL}, "", "openai/gpt-4")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestCompleteSuccess(t *testing.T) {
	srv, requests := newOpenRouterServer(t, http.StatusOK, chatCompletionBody("Hi there!"))
	client := newTestClient(t, srv.URL)

	messages := []storage.Message{
		{Role: storage.RoleSystem, Content: "You are a helpful AI assistant."},
		{Role: storage.RoleUser, Content: "Hello"},
	}
	reply, err := client.Complete(context.Background(), "anthropic/claude-3-sonnet", messages)
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", reply)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "/chat/completions", req.Path)
	assert.Equal(t, "Bearer sk-test", req.Headers.Get("Authorization"))
	assert.Equal(t, "https://example.com/orchat", req.Headers.Get("HTTP-Referer"))
	assert.Equal(t, "orchat-test", req.Headers.Get("X-Title"))
	assert.Equal(t, "anthropic/claude-3-sonnet", req.Body["model"])

	sent, ok := req.Body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, sent, 2)
	first := sent[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
}

func TestCompleteErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		kind     ErrorKind
		contains string
	}{
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"error":{"message":"No auth credentials found"}}`,
			kind:     ErrUnauthorized,
			contains: "Invalid API key",
		},
		{
			name:     "model not found",
			status:   http.StatusNotFound,
			body:     `{"error":{"message":"Model not found"}}`,
			kind:     ErrModelNotFound,
			contains: `Model "vendor/missing" not found`,
		},
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			body:     `{"error":{"message":"slow down"}}`,
			kind:     ErrRateLimited,
			contains: "Rate limit exceeded",
		},
		{
			name:     "server error with message",
			status:   http.StatusBadGateway,
			body:     `{"error":{"message":"upstream unavailable"}}`,
			kind:     ErrAPI,
			contains: "API Error: upstream unavailable",
		},
		{
			name:     "server error without body",
			status:   http.StatusInternalServerError,
			body:     ``,
			kind:     ErrAPI,
			contains: "API Error: 500 Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newOpenRouterServer(t, tt.status, tt.body)
			client := newTestClient(t, srv.URL)

			_, err := client.Complete(context.Background(), "vendor/missing", []storage.Message{
				{Role: storage.RoleUser, Content: "hi"},
			})
			require.Error(t, err)

			var cerr *CompletionError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.kind, cerr.Kind)
			assert.Equal(t, tt.status, cerr.Status)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestCompleteNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := newTestClient(t, url)
	_, err := client.Complete(context.Background(), "openai/gpt-4", []storage.Message{
		{Role: storage.RoleUser, Content: "hi"},
	})
	require.Error(t, err)

	var cerr *CompletionError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ErrNetwork, cerr.Kind)
	assert.True(t, strings.HasPrefix(err.Error(), "Network error: "))
}

func TestTestConnection(t *testing.T) {
	srv, requests := newOpenRouterServer(t, http.StatusOK, `{"data":[]}`)
	client := newTestClient(t, srv.URL)
	require.NoError(t, client.TestConnection(context.Background()))
	require.Len(t, *requests, 1)
	assert.Equal(t, "/models", (*requests)[0].Path)

	bad, _ := newOpenRouterServer(t, http.StatusUnauthorized, `{"error":{"message":"bad key"}}`)
	client = newTestClient(t, bad.URL)
	err := client.TestConnection(context.Background())
	var cerr *CompletionError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ErrUnauthorized, cerr.Kind)
}

func TestClassifyError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", &CompletionError{Kind: ErrModelNotFound, Status: 404})
	cerr := classifyError(wrapped, "a/b")
	assert.Equal(t, ErrModelNotFound, cerr.Kind)
	assert.Equal(t, "a/b", cerr.Model)

	cerr = classifyError(errors.New("boom"), "a/b")
	assert.Equal(t, ErrAPI, cerr.Kind)
	assert.Equal(t, "API Error: boom", cerr.Error())
}

func TestChatMessageType(t *testing.T) {
	content := toMessageContent([]storage.Message{
		{Role: storage.RoleSystem, Content: "s"},
		{Role: storage.RoleUser, Content: "u"},
		{Role: storage.RoleAssistant, Content: "a"},
	})
	require.Len(t, content, 3)
	assert.Equal(t, "system", string(content[0].Role))
	assert.Equal(t, "human", string(content[1].Role))
	assert.Equal(t, "ai", string(content[2].Role))
}
