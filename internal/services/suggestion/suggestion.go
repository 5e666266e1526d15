// Package suggestion формирует подсказки по улучшению резюме через LLM.
package suggestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/cvmanager/cvmanager/internal/llm"
)

// SystemPrompt задаёт роль модели.
const SystemPrompt = "Eres un experto en recursos humanos y redacción de CVs profesionales. " +
	"Ayudas a optimizar CVs para que sean más efectivos y atractivos para reclutadores. " +
	"Responde en español de forma clara y concisa."

const (
	temperature = 0.7
	maxTokens   = 2000
)

// Сообщения об ошибках провайдера в результатах сравнения.
const (
	MsgProviderUnknown       = "Proveedor de IA desconocido"
	MsgProviderNotConfigured = "Proveedor de IA no configurado"
	MsgProviderFailed        = "Error al procesar la solicitud con IA"
)

var (
	// ErrEmptyPrompt - не передан запрос пользователя.
	ErrEmptyPrompt = errors.New("prompt is required")
	// ErrNoProviders - для сравнения не выбран ни один провайдер.
	ErrNoProviders = errors.New("at least one provider is required")
)

// Providers - реестр настроенных провайдеров.
type Providers interface {
	Get(name string) (llm.Provider, error)
	Available() []string
	Default() string
}

// Suggestion - ответ одного провайдера.
type Suggestion struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Text     string `json:"suggestion"`
}

// Comparison - результат одного провайдера при сравнении. При ошибке
// Success = false, а Error содержит сообщение для пользователя.
type Comparison struct {
	Success    bool   `json:"success"`
	Provider   string `json:"provider"`
	Model      string `json:"model,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Service запрашивает у модели подсказки по резюме.
type Service struct {
	providers Providers
}

// New создаёт Service.
func New(p Providers) *Service {
	return &Service{providers: p}
}

// Available возвращает настроенные провайдеры и провайдер по умолчанию.
func (s *Service) Available() ([]string, string) {
	return s.providers.Available(), s.providers.Default()
}

// Optimize возвращает подсказку провайдера по запросу пользователя и текущим
// данным резюме. Пустое имя провайдера означает провайдер по умолчанию.
func (s *Service) Optimize(ctx context.Context, provider, prompt string, cvData json.RawMessage) (*Suggestion, error) {
	const op = "suggestion.Optimize"

	req, err := buildRequest(prompt, cvData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p, err := s.providers.Get(provider)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, err := p.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Suggestion{Provider: p.Name(), Model: p.Model(), Text: out}, nil
}

// Compare опрашивает провайдеров параллельно. Ошибка одного провайдера не
// прерывает остальных и попадает в его элемент результата. Порядок результатов
// совпадает с порядком providers, повторы убираются.
func (s *Service) Compare(ctx context.Context, providers []string, prompt string, cvData json.RawMessage) ([]Comparison, error) {
	const op = "suggestion.Compare"

	names := unique(providers)
	if len(names) == 0 {
		return nil, ErrNoProviders
	}
	req, err := buildRequest(prompt, cvData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	results := make([]Comparison, len(names))
	var g errgroup.Group
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			results[i] = s.compareOne(ctx, name, req)
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func (s *Service) compareOne(ctx context.Context, name string, req llm.Request) Comparison {
	res := Comparison{Provider: name}
	p, err := s.providers.Get(name)
	switch {
	case errors.Is(err, llm.ErrUnknownProvider):
		res.Error = MsgProviderUnknown
		return res
	case err != nil:
		res.Error = MsgProviderNotConfigured
		return res
	}
	res.Model = p.Model()
	out, err := p.Complete(ctx, req)
	if err != nil {
		res.Error = MsgProviderFailed
		return res
	}
	res.Success = true
	res.Suggestion = out
	return res
}

func buildRequest(prompt string, cvData json.RawMessage) (llm.Request, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return llm.Request{}, ErrEmptyPrompt
	}
	data, err := indent(cvData)
	if err != nil {
		return llm.Request{}, err
	}
	return llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: prompt + "\n\nDatos del CV actual:\n" + data},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

func unique(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func indent(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "{}", nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("invalid cv data: %w", err)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
