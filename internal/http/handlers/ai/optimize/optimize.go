// Package optimize возвращает подсказку модели по улучшению резюме.
//
// Маршрут закрыт проверкой подписки и ограничением частоты запросов.
package optimize

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/cvmanager/cvmanager/internal/http/response"
	"github.com/cvmanager/cvmanager/internal/lib/sl"
	"github.com/cvmanager/cvmanager/internal/llm"
	"github.com/cvmanager/cvmanager/internal/services/suggestion"
)

// MsgFailed - сбой обращения к модели.
const MsgFailed = suggestion.MsgProviderFailed

// Request - тело запроса. Пустой Provider означает провайдер по умолчанию.
type Request struct {
	Prompt   string          `json:"prompt" validate:"required,max=4000"`
	CVData   json.RawMessage `json:"cvData"`
	Provider string          `json:"provider" validate:"max=32"`
}

// Result - ответ с подсказкой.
type Result struct {
	Success    bool   `json:"success"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Suggestion string `json:"suggestion"`
}

// Service описывает генерацию подсказки.
type Service interface {
	Optimize(ctx context.Context, provider, prompt string, cvData json.RawMessage) (*suggestion.Suggestion, error)
}

// Handler обрабатывает POST /api/ai/optimize.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Подсказка по резюме
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Запрос и данные резюме"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 429 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /ai/optimize [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ai.optimize"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.MsgInvalidBody))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	res, err := h.service.Optimize(r.Context(), req.Provider, req.Prompt, req.CVData)
	switch {
	case errors.Is(err, llm.ErrUnknownProvider):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(suggestion.MsgProviderUnknown))
		return
	case errors.Is(err, llm.ErrNotConfigured):
		log.Warn("llm provider is not configured", slog.String("provider", req.Provider))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error(suggestion.MsgProviderNotConfigured))
		return
	case err != nil:
		log.Error("llm request failed", sl.Err(err), slog.String("provider", req.Provider))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(MsgFailed))
		return
	}

	render.JSON(w, r, response.OKWithData(Result{
		Success:    true,
		Provider:   res.Provider,
		Model:      res.Model,
		Suggestion: res.Text,
	}))
}
