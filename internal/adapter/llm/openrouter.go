// Package llm contains the OpenRouter-backed gateway for all model calls.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codecompass-ai/codecompass/internal/port"
	"github.com/codecompass-ai/codecompass/pkg/retry"
)

// Defaults mirror the production OpenRouter setup.
const (
	DefaultBaseURL     = "https://openrouter.ai/api/v1"
	DefaultModel       = "deepseek/deepseek-v3-base:free"
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 2000
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// Config holds the OpenRouter endpoint configuration. Zero values fall back
// to the package defaults.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Referer     string
	Title       string
	Temperature float64
	MaxTokens   int
	MaxAttempts int
	BaseDelay   time.Duration
}

// OpenRouterClient implements port.LLMClient against the OpenRouter
// chat-completions endpoint. Model, temperature, and token budget are fixed
// here so every caller shares one failure/backoff contract.
type OpenRouterClient struct {
	cfg        Config
	policy     retry.Policy
	httpClient *http.Client
}

// NewOpenRouterClient creates a new gateway client.
func NewOpenRouterClient(cfg Config) *OpenRouterClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}

	return &OpenRouterClient{
		cfg: cfg,
		// Transport failures and non-2xx responses retry alike.
		policy:     retry.Policy{MaxAttempts: cfg.MaxAttempts, BaseDelay: cfg.BaseDelay},
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// ModelName returns the fixed model identifier.
func (c *OpenRouterClient) ModelName() string {
	return c.cfg.Model
}

// Complete sends the messages and returns the first choice's content.
// Exhausted retries surface as *port.LLMError.
func (c *OpenRouterClient) Complete(ctx context.Context, messages []port.Message) (string, error) {
	var text string
	attempts := 0
	err := c.policy.Do(ctx, func() error {
		attempts++
		out, err := c.complete(ctx, messages)
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		return "", &port.LLMError{Attempts: attempts, Err: err}
	}
	return text, nil
}

func (c *OpenRouterClient) complete(ctx context.Context, messages []port.Message) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"model":       c.cfg.Model,
		"messages":    messages,
		"temperature": c.cfg.Temperature,
		"max_tokens":  c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openrouter API error (%d): %s", resp.StatusCode, string(body))
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openrouter: empty choices")
	}
	return out.Choices[0].Message.Content, nil
}
