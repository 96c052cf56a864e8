package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI covers any server speaking the OpenAI chat completions API
// (vLLM, LM Studio, llama.cpp server).
type OpenAI struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

func NewOpenAI(baseURL, model, apiKey string, client *http.Client, logger *zap.Logger) *OpenAI {
	if model == "" {
		model = defaultOpenAIModel
	}
	if client == nil {
		client = http.DefaultClient
	}
	base := strings.TrimRight(baseURL, "/")
	base = strings.TrimSuffix(base, "/v1")
	return &OpenAI{
		baseURL: base,
		model:   model,
		apiKey:  apiKey,
		client:  client,
		logger:  logger,
	}
}

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

func (o *OpenAI) Name() string { return "openai/" + o.model }

func (o *OpenAI) Chat(ctx context.Context, messages []Message) (string, error) {
	headers := map[string]string{}
	if o.apiKey != "" {
		headers["Authorization"] = "Bearer " + o.apiKey
	}

	var out openAIResponse
	err := postJSON(ctx, o.client, o.baseURL+"/v1/chat/completions", headers, openAIRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: 0.3,
	}, &out)
	if err != nil {
		o.logger.Warn("openai chat failed", zap.String("model", o.model), zap.Error(err))
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrUnavailable)
	}

	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	return text, nil
}
