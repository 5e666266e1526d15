package llm

import (
	"context"
	"fmt"
	"strings"
)

const anthropicVersion = "2023-06-01"

// AnthropicClient вызывает Messages API Anthropic.
type AnthropicClient struct {
	settings Settings
	t        *transport
}

// Name возвращает имя провайдера.
func (c *AnthropicClient) Name() string { return Anthropic }

// Model возвращает используемую модель.
func (c *AnthropicClient) Model() string { return c.settings.Model }

// Complete отправляет диалог. Системные сообщения передаются отдельным полем system.
func (c *AnthropicClient) Complete(ctx context.Context, r Request) (string, error) {
	const op = "llm.AnthropicClient.Complete"

	in := anthropicRequest{
		Model:       c.settings.Model,
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
	}
	var system []string
	for _, m := range r.Messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		in.Messages = append(in.Messages, m)
	}
	in.System = strings.Join(system, "\n\n")
	if in.MaxTokens <= 0 {
		in.MaxTokens = 1024
	}

	var out anthropicResponse
	err := c.t.postJSON(ctx, c.settings.BaseURL+"/messages", map[string]string{
		"x-api-key":         c.settings.APIKey,
		"anthropic-version": anthropicVersion,
	}, in, &out)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("%s: llm api error: %s", op, out.Error.Message)
	}
	for _, block := range out.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("%s: %w", op, ErrEmptyResponse)
}

type anthropicRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
