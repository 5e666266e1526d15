// Package status возвращает решение по подписке текущего пользователя.
//
// Ответ всегда 200: отказ передаётся полем allowed=false вместе с сообщением,
// чтобы интерфейс мог его показать.
package status

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/cvmanager/cvmanager/internal/http/middlewarectx"
	"github.com/cvmanager/cvmanager/internal/http/response"
	"github.com/cvmanager/cvmanager/internal/lib/sl"
	"github.com/cvmanager/cvmanager/internal/services/lifecycle"
)

// Evaluator проверяет подписку.
type Evaluator interface {
	Evaluate(ctx context.Context, userID string) lifecycle.Decision
}

// Handler обрабатывает GET /api/subscription/status.
type Handler struct {
	log       *slog.Logger
	evaluator Evaluator
}

// New создаёт Handler.
func New(log *slog.Logger, evaluator Evaluator) *Handler {
	return &Handler{log: log, evaluator: evaluator}
}

// ServeHTTP godoc
// @Summary Статус подписки
// @Tags Subscription
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /subscription/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.status"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserID(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(response.MsgUnauthorized))
		return
	}

	d := h.evaluator.Evaluate(r.Context(), userID)
	if d.Outcome == lifecycle.OutcomeError {
		log.Error("subscription check failed", slog.String("user_id", userID), sl.Err(d.Err))
	}
	render.JSON(w, r, response.OKWithData(d))
}
