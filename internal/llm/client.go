// Package llm - клиенты провайдеров генерации текста: OpenAI-совместимые
// (OpenAI, Blackbox), Anthropic и Google Gemini.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyResponse - провайдер ответил без текста.
var ErrEmptyResponse = errors.New("llm empty response")

// Message - сообщение диалога.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request - параметры генерации.
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// HTTPClient вызывает OpenAI-совместимый /chat/completions.
type HTTPClient struct {
	settings Settings
	t        *transport
}

// Name возвращает имя провайдера.
func (c *HTTPClient) Name() string { return c.t.provider }

// Model возвращает используемую модель.
func (c *HTTPClient) Model() string { return c.settings.Model }

// Complete отправляет диалог и возвращает текст первого варианта ответа.
func (c *HTTPClient) Complete(ctx context.Context, r Request) (string, error) {
	const op = "llm.HTTPClient.Complete"

	var cr chatResponse
	err := c.t.postJSON(ctx, c.settings.BaseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + c.settings.APIKey},
		chatRequest{
			Model:       c.settings.Model,
			Messages:    r.Messages,
			Temperature: r.Temperature,
			MaxTokens:   r.MaxTokens,
		}, &cr)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if cr.Error != nil {
		return "", fmt.Errorf("%s: llm api error: %s", op, cr.Error.Message)
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyResponse)
	}
	return cr.Choices[0].Message.Content, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
