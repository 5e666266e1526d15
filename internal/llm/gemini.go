package llm

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// GeminiClient вызывает generateContent Google Gemini.
type GeminiClient struct {
	settings Settings
	t        *transport
}

// Name возвращает имя провайдера.
func (c *GeminiClient) Name() string { return Gemini }

// Model возвращает используемую модель.
func (c *GeminiClient) Model() string { return c.settings.Model }

// Complete отправляет диалог. Системные сообщения уходят в systemInstruction,
// ответы ассистента передаются с ролью model.
func (c *GeminiClient) Complete(ctx context.Context, r Request) (string, error) {
	const op = "llm.GeminiClient.Complete"

	in := geminiRequest{
		GenerationConfig: geminiGenerationConfig{
			Temperature:     r.Temperature,
			MaxOutputTokens: r.MaxTokens,
		},
	}
	var system []string
	for _, m := range r.Messages {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "assistant":
			in.Contents = append(in.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			in.Contents = append(in.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}
	if len(system) > 0 {
		in.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: strings.Join(system, "\n\n")}}}
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.settings.BaseURL, url.PathEscape(c.settings.Model), url.QueryEscape(c.settings.APIKey))

	var out geminiResponse
	if err := c.t.postJSON(ctx, endpoint, nil, in, &out); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("%s: llm api error: %s", op, out.Error.Message)
	}
	if len(out.Candidates) == 0 {
		return "", fmt.Errorf("%s: no candidates: %w", op, ErrEmptyResponse)
	}
	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyResponse)
	}
	return sb.String(), nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
