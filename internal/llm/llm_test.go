package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/campushub/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var testMessages = []Message{
	{Role: RoleSystem, Content: "be brief"},
	{Role: RoleUser, Content: "any study rooms?"},
}

func TestOllama_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mistral", req.Model)
		assert.False(t, req.Stream)
		assert.Equal(t, testMessages, req.Messages)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": "  Try **Wells Library**.  "},
		})
	}))
	defer srv.Close()

	client := NewOllama(srv.URL+"/", "mistral", srv.Client(), zap.NewNop())
	text, err := client.Chat(context.Background(), testMessages)
	require.NoError(t, err)
	assert.Equal(t, "Try **Wells Library**.", text)
	assert.Equal(t, "ollama/mistral", client.Name())
}

func TestOllama_ErrorStatusIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewOllama(srv.URL, "", nil, zap.NewNop()).Chat(context.Background(), testMessages)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Contains(t, err.Error(), "status 500")
}

func TestOllama_EmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"   "}}`))
	}))
	defer srv.Close()

	_, err := NewOllama(srv.URL, "", nil, zap.NewNop()).Chat(context.Background(), testMessages)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOllama_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewOllama(url, "", nil, zap.NewNop()).Chat(context.Background(), testMessages)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOllama_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewOllama(srv.URL, "", &http.Client{Timeout: 50 * time.Millisecond}, zap.NewNop())
	_, err := client.Chat(context.Background(), testMessages)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAI_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-local", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "qwen", req.Model)
		assert.Len(t, req.Messages, 2)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hello there"}}]}`))
	}))
	defer srv.Close()

	// a trailing /v1 in the configured base must not be doubled
	client := NewOpenAI(srv.URL+"/v1", "qwen", "sk-local", srv.Client(), zap.NewNop())
	text, err := client.Chat(context.Background(), testMessages)
	require.NoError(t, err)
	assert.Equal(t, "Hello there", text)
}

func TestOpenAI_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI(srv.URL, "", "", nil, zap.NewNop()).Chat(context.Background(), testMessages)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	client, err := New(ctx, config.ConciergeConfig{Provider: "ollama"}, nil)
	require.NoError(t, err)
	assert.Nil(t, client)

	client, err = New(ctx, config.ConciergeConfig{Provider: "gemini"}, nil)
	require.NoError(t, err)
	assert.Nil(t, client)

	client, err = New(ctx, config.ConciergeConfig{Provider: "ollama", BaseURL: "http://llm:11434"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Ollama{}, client)

	client, err = New(ctx, config.ConciergeConfig{Provider: "OpenAI", BaseURL: "http://llm:8000"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, client)

	_, err = New(ctx, config.ConciergeConfig{Provider: "watson", BaseURL: "http://x"}, nil)
	assert.Error(t, err)
}

func TestToGenAI(t *testing.T) {
	system, contents := toGenAI([]Message{
		{Role: RoleSystem, Content: "rule one"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleSystem, Content: "rule two"},
	})

	assert.Equal(t, "rule one\n\nrule two", system)
	require.Len(t, contents, 2)
	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
	assert.Equal(t, "hello", contents[1].Parts[0].Text)
}
