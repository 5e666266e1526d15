// Package verifypayment отмечает оплату подписки администратором.
//
// Сам переход в active выполняет оценщик жизненного цикла по окончании пробного периода.
package verifypayment

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/cvmanager/cvmanager/internal/http/response"
	"github.com/cvmanager/cvmanager/internal/lib/sl"
	"github.com/cvmanager/cvmanager/internal/models"
	"github.com/cvmanager/cvmanager/internal/storage"
)

const (
	// MsgNotFound - подписки нет.
	MsgNotFound = "Suscripción no encontrada"
	// MsgVerified - оплата отмечена.
	MsgVerified = "Pago verificado"
)

// Repository отмечает оплату и читает подписку.
type Repository interface {
	SetPaymentVerified(ctx context.Context, id string, at time.Time) error
	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
}

// Result - ответ с обновлённой подпиской.
type Result struct {
	Message      string               `json:"message"`
	Subscription *models.Subscription `json:"subscription"`
}

// Handler обрабатывает POST /api/admin/subscriptions/{id}/verify-payment.
type Handler struct {
	log  *slog.Logger
	repo Repository
	now  func() time.Time
}

// New создаёт Handler.
func New(log *slog.Logger, repo Repository) *Handler {
	return &Handler{log: log, repo: repo, now: time.Now}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.verifypayment"
	id := chi.URLParam(r, "id")
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("subscription_id", id),
	)

	err := h.repo.SetPaymentVerified(r.Context(), id, h.now().UTC())
	if errors.Is(err, storage.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(MsgNotFound))
		return
	}
	if err != nil {
		log.Error("failed to verify payment", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}

	sub, err := h.repo.GetSubscription(r.Context(), id)
	if err != nil {
		log.Error("failed to reload subscription", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}

	log.Info("payment verified", slog.String("status", string(sub.Status)))
	render.JSON(w, r, response.OKWithData(Result{Message: MsgVerified, Subscription: sub}))
}
