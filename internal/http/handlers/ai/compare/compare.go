// Package compare запрашивает подсказку по резюме сразу у нескольких провайдеров.
//
// Маршрут закрыт проверкой подписки и ограничением частоты запросов.
package compare

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/cvmanager/cvmanager/internal/http/response"
	"github.com/cvmanager/cvmanager/internal/lib/sl"
	"github.com/cvmanager/cvmanager/internal/services/suggestion"
)

// Request - тело запроса.
type Request struct {
	Providers []string        `json:"providers" validate:"required,min=1,max=4,dive,required,max=32"`
	Prompt    string          `json:"prompt" validate:"required,max=4000"`
	CVData    json.RawMessage `json:"cvData"`
}

// Service описывает сравнение провайдеров.
type Service interface {
	Compare(ctx context.Context, providers []string, prompt string, cvData json.RawMessage) ([]suggestion.Comparison, error)
}

// Handler обрабатывает POST /api/ai/compare.
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
// @Summary Сравнение подсказок нескольких провайдеров
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Провайдеры, запрос и данные резюме"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 429 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /ai/compare [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ai.compare"
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

	results, err := h.service.Compare(r.Context(), req.Providers, req.Prompt, req.CVData)
	if err != nil {
		log.Error("provider comparison failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(suggestion.MsgProviderFailed))
		return
	}
	for _, res := range results {
		if !res.Success {
			log.Warn("provider failed in comparison", slog.String("provider", res.Provider), slog.String("error", res.Error))
		}
	}

	render.JSON(w, r, response.OKWithData(results))
}
