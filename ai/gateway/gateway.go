// Package gateway wraps the OpenAI-compatible chat and image endpoints
// behind small interfaces the pipelines can mock in tests.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/lanternworks/lanternworks/internal/profile"
)

// CallStats carries token usage and timing for a single model call.
type CallStats struct {
	PromptTokens     int   `json:"prompt_tokens"`
	CompletionTokens int   `json:"completion_tokens"`
	TotalTokens      int   `json:"total_tokens"`
	TotalDurationMs  int64 `json:"total_duration_ms"`
}

// Service is the text-generation interface used by the briefing and
// storytelling pipelines. Each call is a single user prompt, no history.
type Service interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, *CallStats, error)
}

// Config represents gateway configuration.
type Config struct {
	Provider string // openai, deepseek, siliconflow, openrouter, ollama
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  int // Request timeout in seconds (default: 120)
}

// ConfigFromProfile derives the chat gateway config from the runtime profile.
func ConfigFromProfile(p *profile.Profile) *Config {
	return &Config{
		Provider: p.LLMProvider,
		Model:    p.LLMModel,
		APIKey:   p.LLMAPIKey,
		BaseURL:  p.LLMBaseURL,
		Timeout:  p.LLMTimeout,
	}
}

type service struct {
	client   *openai.Client
	model    string
	provider string
	timeout  int
}

// NewService creates a chat completion gateway for the configured provider.
func NewService(cfg *Config) (Service, error) {
	client, err := newClient(cfg.Provider, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120
	}

	return &service{
		client:   client,
		model:    cfg.Model,
		provider: cfg.Provider,
		timeout:  timeout,
	}, nil
}

func newClient(provider, apiKey, baseURL string) (*openai.Client, error) {
	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.HTTPClient = newHTTPClient()

	switch provider {
	case "openai":
		if baseURL != "" {
			clientConfig.BaseURL = baseURL
		}

	case "deepseek":
		if baseURL == "" {
			baseURL = "https://api.deepseek.com"
		}
		clientConfig.BaseURL = baseURL

	case "siliconflow":
		if baseURL == "" {
			baseURL = "https://api.siliconflow.cn/v1"
		}
		clientConfig.BaseURL = baseURL

	case "openrouter":
		if baseURL == "" {
			baseURL = "https://openrouter.ai/api/v1"
		}
		clientConfig.BaseURL = baseURL

	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1"
		}
		clientConfig.BaseURL = baseURL

	default:
		// Generic fallback for any other OpenAI-compatible provider.
		slog.Info("using generic OpenAI-compatible provider", "provider", provider)
		if baseURL != "" {
			clientConfig.BaseURL = baseURL
		}
	}

	return openai.NewClientWithConfig(clientConfig), nil
}

func (s *service) Complete(ctx context.Context, prompt string, maxTokens int) (string, *CallStats, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	slog.Debug("gateway: completion request",
		"model", s.model,
		"prompt_length", len(prompt),
		"max_tokens", maxTokens,
	)

	startTime := time.Now()

	req := openai.ChatCompletionRequest{
		Model:     s.model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("gateway: completion request failed", "error", err)
		return "", nil, fmt.Errorf("model completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		slog.Warn("gateway: empty response from model")
		return "", nil, fmt.Errorf("empty response from model")
	}

	totalDuration := time.Since(startTime)
	stats := &CallStats{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		TotalDurationMs:  totalDuration.Milliseconds(),
	}

	slog.Debug("gateway: completion response received",
		"content_length", len(resp.Choices[0].Message.Content),
		"total_tokens", stats.TotalTokens,
		"duration_ms", totalDuration.Milliseconds(),
	)

	return resp.Choices[0].Message.Content, stats, nil
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}
