package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"take-a-paw/internal/platform/httpclient"
	"take-a-paw/internal/ports/llm"
)

var (
	ErrNotConfigured = errors.New("openai generator not configured")
	ErrEmptyResponse = errors.New("openai returned no choices")
)

const defaultBaseURL = "https://api.openai.com/v1"

// Config del generador OpenAI (chat completions).
type Config struct {
	APIKey  string
	Model   string
	BaseURL string // override para tests
	Timeout time.Duration
}

// Generator implementa llm.Generator.
type Generator struct {
	apiKey string
	model  string
	http   *httpclient.Client
}

func NewGenerator(cfg Config) *Generator {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	hc, err := httpclient.NewWithBaseURL(base, timeout)
	if err != nil {
		hc = httpclient.New(timeout)
		hc.BaseURL = defaultBaseURL
	}
	return &Generator{
		apiKey: strings.TrimSpace(cfg.APIKey),
		model:  model,
		http:   hc,
	}
}

func (g *Generator) IsConfigured() bool {
	return g != nil && g.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *Generator) Generate(ctx context.Context, req llm.Request) (string, error) {
	if !g.IsConfigured() {
		return "", ErrNotConfigured
	}

	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body := chatRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	headers := map[string]string{
		"Authorization": "Bearer " + g.apiKey,
	}

	var out chatResponse
	if err := g.http.DoJSON(ctx, "POST", "/chat/completions", headers, body, &out); err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return out.Choices[0].Message.Content, nil
}
