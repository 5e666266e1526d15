package suggestion

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cvmanager/cvmanager/internal/llm"
)

type ProviderMock struct {
	mock.Mock
	name  string
	model string
}

func newProviderMock(name string) *ProviderMock {
	return &ProviderMock{name: name, model: name + "-model"}
}

func (m *ProviderMock) Name() string  { return m.name }
func (m *ProviderMock) Model() string { return m.model }

func (m *ProviderMock) Complete(ctx context.Context, r llm.Request) (string, error) {
	args := m.Called(ctx, r)
	return args.String(0), args.Error(1)
}

func TestOptimize(t *testing.T) {
	p := newProviderMock(llm.OpenAI)
	p.On("Complete", mock.Anything, mock.MatchedBy(func(r llm.Request) bool {
		return len(r.Messages) == 2 &&
			r.Messages[0].Role == "system" && r.Messages[0].Content == SystemPrompt &&
			r.Messages[1].Content == "Mejora mi resumen\n\nDatos del CV actual:\n{\n  \"fullName\": \"Ana\"\n}" &&
			r.Temperature == 0.7 && r.MaxTokens == 2000
	})).Return("Sugerencia", nil).Once()

	out, err := New(llm.NewRegistry(llm.OpenAI, p)).
		Optimize(context.Background(), "", "  Mejora mi resumen ", json.RawMessage(`{"fullName":"Ana"}`))
	require.NoError(t, err)
	assert.Equal(t, &Suggestion{Provider: llm.OpenAI, Model: "openai-model", Text: "Sugerencia"}, out)
	p.AssertExpectations(t)
}

func TestOptimize_SelectsProvider(t *testing.T) {
	openai := newProviderMock(llm.OpenAI)
	gemini := newProviderMock(llm.Gemini)
	gemini.On("Complete", mock.Anything, mock.Anything).Return("desde gemini", nil).Once()

	out, err := New(llm.NewRegistry(llm.OpenAI, openai, gemini)).
		Optimize(context.Background(), llm.Gemini, "p", nil)
	require.NoError(t, err)
	assert.Equal(t, llm.Gemini, out.Provider)
	assert.Equal(t, "desde gemini", out.Text)
	openai.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestOptimize_Errors(t *testing.T) {
	t.Run("empty prompt", func(t *testing.T) {
		p := newProviderMock(llm.OpenAI)
		_, err := New(llm.NewRegistry(llm.OpenAI, p)).Optimize(context.Background(), "", "   ", nil)
		require.ErrorIs(t, err, ErrEmptyPrompt)
		p.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})

	t.Run("invalid cv data", func(t *testing.T) {
		_, err := New(llm.NewRegistry(llm.OpenAI, newProviderMock(llm.OpenAI))).
			Optimize(context.Background(), "", "p", json.RawMessage(`{`))
		require.Error(t, err)
	})

	t.Run("provider not configured", func(t *testing.T) {
		_, err := New(llm.NewRegistry(llm.OpenAI)).Optimize(context.Background(), llm.Anthropic, "p", nil)
		require.ErrorIs(t, err, llm.ErrNotConfigured)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := New(llm.NewRegistry(llm.OpenAI)).Optimize(context.Background(), "mistral", "p", nil)
		require.ErrorIs(t, err, llm.ErrUnknownProvider)
	})

	t.Run("provider failure", func(t *testing.T) {
		p := newProviderMock(llm.OpenAI)
		p.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("timeout")).Once()
		_, err := New(llm.NewRegistry(llm.OpenAI, p)).Optimize(context.Background(), "", "p", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "suggestion.Optimize")
	})
}

func TestCompare(t *testing.T) {
	openai := newProviderMock(llm.OpenAI)
	openai.On("Complete", mock.Anything, mock.Anything).Return("uno", nil).Once()
	anthropic := newProviderMock(llm.Anthropic)
	anthropic.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("status=529")).Once()
	svc := New(llm.NewRegistry(llm.OpenAI, openai, anthropic))

	got, err := svc.Compare(context.Background(),
		[]string{llm.Anthropic, llm.OpenAI, llm.Gemini, "mistral", llm.OpenAI, " "}, "p", json.RawMessage(`{}`))
	require.NoError(t, err)

	assert.Equal(t, []Comparison{
		{Success: false, Provider: llm.Anthropic, Model: "anthropic-model", Error: MsgProviderFailed},
		{Success: true, Provider: llm.OpenAI, Model: "openai-model", Suggestion: "uno"},
		{Success: false, Provider: llm.Gemini, Error: MsgProviderNotConfigured},
		{Success: false, Provider: "mistral", Error: MsgProviderUnknown},
	}, got)
	openai.AssertExpectations(t)
	anthropic.AssertExpectations(t)
}

func TestCompare_Errors(t *testing.T) {
	svc := New(llm.NewRegistry(llm.OpenAI, newProviderMock(llm.OpenAI)))

	_, err := svc.Compare(context.Background(), nil, "p", nil)
	require.ErrorIs(t, err, ErrNoProviders)

	_, err = svc.Compare(context.Background(), []string{llm.OpenAI}, " ", nil)
	require.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestAvailable(t *testing.T) {
	svc := New(llm.NewRegistry(llm.Blackbox, newProviderMock(llm.Blackbox), newProviderMock(llm.OpenAI)))

	available, def := svc.Available()
	assert.Equal(t, []string{llm.OpenAI, llm.Blackbox}, available)
	assert.Equal(t, llm.Blackbox, def)
}
