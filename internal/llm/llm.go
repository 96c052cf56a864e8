package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Domenick1991/campushub/config"
	"github.com/Domenick1991/campushub/internal/logging"
	"go.uber.org/zap"
)

// ErrUnavailable marks transport failures, timeouts and non-2xx answers.
var ErrUnavailable = errors.New("local AI runtime unavailable")

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Client sends one chat exchange and returns the assistant text.
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Name() string
}

// New builds the configured provider. A nil client with a nil error means the
// concierge runs without a model.
func New(ctx context.Context, cfg config.ConciergeConfig, logger *zap.Logger) (Client, error) {
	logger = logging.OrNop(logger)
	httpClient := &http.Client{Timeout: cfg.Timeout()}

	switch strings.ToLower(cfg.Provider) {
	case "", "ollama":
		if cfg.BaseURL == "" {
			return nil, nil
		}
		return NewOllama(cfg.BaseURL, cfg.Model, httpClient, logger), nil
	case "openai":
		if cfg.BaseURL == "" {
			return nil, nil
		}
		return NewOpenAI(cfg.BaseURL, cfg.Model, cfg.APIKey, httpClient, logger), nil
	case "gemini":
		if cfg.APIKey == "" {
			return nil, nil
		}
		g, err := NewGemini(ctx, cfg.APIKey, cfg.Model, logger)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown concierge provider %q", cfg.Provider)
	}
}

func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, truncate(string(raw), 200))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
