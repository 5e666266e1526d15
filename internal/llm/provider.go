package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Имена поддерживаемых провайдеров.
const (
	OpenAI    = "openai"
	Anthropic = "anthropic"
	Gemini    = "gemini"
	Blackbox  = "blackbox"
)

var (
	// ErrUnknownProvider - провайдер с таким именем не поддерживается.
	ErrUnknownProvider = errors.New("unknown llm provider")
	// ErrNotConfigured - для провайдера не задан ключ API.
	ErrNotConfigured = errors.New("llm provider is not configured")
)

// Provider - сервис генерации текста.
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, r Request) (string, error)
}

// Settings - параметры подключения к провайдеру. Пустые Model и BaseURL
// заменяются значениями по умолчанию для провайдера.
type Settings struct {
	APIKey  string
	Model   string
	BaseURL string
}

type defaults struct {
	baseURL string
	model   string
}

var providerDefaults = map[string]defaults{
	OpenAI:    {baseURL: "https://api.openai.com/v1", model: "gpt-4o-mini"},
	Anthropic: {baseURL: "https://api.anthropic.com/v1", model: "claude-3-5-sonnet-20241022"},
	Gemini:    {baseURL: "https://generativelanguage.googleapis.com/v1beta", model: "gemini-1.5-flash-latest"},
	Blackbox:  {baseURL: "https://api.blackbox.ai", model: "blackboxai/openai/gpt-4o"},
}

// Names возвращает имена всех поддерживаемых провайдеров в порядке предпочтения.
func Names() []string {
	return []string{OpenAI, Anthropic, Gemini, Blackbox}
}

// Known сообщает, поддерживается ли провайдер name.
func Known(name string) bool {
	_, ok := providerDefaults[name]
	return ok
}

// NewProvider создаёт клиент провайдера name.
func NewProvider(name string, s Settings, timeout time.Duration) (Provider, error) {
	const op = "llm.NewProvider"

	d, ok := providerDefaults[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownProvider, name)
	}
	if s.APIKey == "" {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrNotConfigured, name)
	}
	if s.BaseURL == "" {
		s.BaseURL = d.baseURL
	}
	if s.Model == "" {
		s.Model = d.model
	}
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")
	t := newTransport(name, timeout)

	switch name {
	case Anthropic:
		return &AnthropicClient{settings: s, t: t}, nil
	case Gemini:
		return &GeminiClient{settings: s, t: t}, nil
	default:
		return &HTTPClient{settings: s, t: t}, nil
	}
}
