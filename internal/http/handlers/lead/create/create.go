// Package create принимает заявку на пробный период.
//
// Заявка создаёт лида, пользователя, подписку в статусе trial и, при необходимости,
// счёт. Стоимость считается по каталогу тарифов один раз и больше не пересчитывается.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/cvmanager/cvmanager/internal/billing"
	"github.com/cvmanager/cvmanager/internal/http/response"
	"github.com/cvmanager/cvmanager/internal/lib/password"
	"github.com/cvmanager/cvmanager/internal/lib/sl"
	"github.com/cvmanager/cvmanager/internal/models"
	"github.com/cvmanager/cvmanager/internal/services/intake"
)

const (
	// MsgUsernameTaken - имя пользователя занято.
	MsgUsernameTaken = "El nombre de usuario ya está en uso"
	// MsgUnknownPlan - тариф отсутствует в каталоге.
	MsgUnknownPlan = "Plan no válido"
)

// Service описывает приём заявки.
type Service interface {
	Submit(ctx context.Context, req models.LeadRequest) (*models.TrialBundle, error)
}

// Result - ответ на принятую заявку.
type Result struct {
	LeadID         string                    `json:"lead_id"`
	UserID         string                    `json:"user_id"`
	SubscriptionID string                    `json:"subscription_id"`
	Plan           models.Plan               `json:"plan"`
	Status         models.SubscriptionStatus `json:"status"`
	TrialEnd       time.Time                 `json:"trial_end"`
	BasePrice      string                    `json:"base_price"`
	Tax            string                    `json:"tax"`
	Total          string                    `json:"total"`
	InvoiceID      string                    `json:"invoice_id,omitempty"`
}

// Handler обрабатывает POST /api/leads.
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
// @Summary Заявка на пробный период
// @Tags Leads
// @Accept json
// @Produce json
// @Param request body models.LeadRequest true "Заявка"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /leads [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lead.create"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.LeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.MsgInvalidBody))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	b, err := h.service.Submit(r.Context(), req)
	switch {
	case errors.Is(err, intake.ErrUsernameTaken):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error(MsgUsernameTaken))
		return
	case errors.Is(err, password.ErrTooLong):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(response.MsgPasswordTooLong))
		return
	case errors.Is(err, billing.ErrUnknownPlan):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(MsgUnknownPlan))
		return
	case err != nil:
		log.Error("failed to submit lead", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}

	res := Result{
		LeadID:         b.Lead.ID,
		UserID:         b.User.ID,
		SubscriptionID: b.Subscription.ID,
		Plan:           b.Subscription.Plan,
		Status:         b.Subscription.Status,
		TrialEnd:       b.Subscription.TrialEnd,
		BasePrice:      billing.FormatAmount(b.Subscription.BasePrice),
		Tax:            billing.FormatAmount(b.Subscription.TaxAmount),
		Total:          billing.FormatAmount(b.Subscription.Total),
	}
	if b.Invoice != nil {
		res.InvoiceID = b.Invoice.ID
	}

	log.Info("lead accepted", slog.String("subscription_id", res.SubscriptionID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(res))
}
