package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const defaultOllamaModel = "llama3.2"

// Ollama talks to a local Ollama runtime through /api/chat.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

func NewOllama(baseURL, model string, client *http.Client, logger *zap.Logger) *Ollama {
	if model == "" {
		model = defaultOllamaModel
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  client,
		logger:  logger,
	}
}

type ollamaRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaResponse struct {
	Message Message `json:"message"`
	Error   string  `json:"error,omitempty"`
}

func (o *Ollama) Name() string { return "ollama/" + o.model }

func (o *Ollama) Chat(ctx context.Context, messages []Message) (string, error) {
	var out ollamaResponse
	err := postJSON(ctx, o.client, o.baseURL+"/api/chat", nil, ollamaRequest{
		Model:    o.model,
		Messages: messages,
	}, &out)
	if err != nil {
		o.logger.Warn("ollama chat failed", zap.String("model", o.model), zap.Error(err))
		return "", err
	}
	if out.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrUnavailable, out.Error)
	}

	text := strings.TrimSpace(out.Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	return text, nil
}
