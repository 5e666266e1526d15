// Package verifyemail реализует подтверждение почты по токену из письма.
package verifyemail

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/cvmanager/cvmanager/internal/http/response"
	"github.com/cvmanager/cvmanager/internal/lib/sl"
	"github.com/cvmanager/cvmanager/internal/services/auth"
)

const (
	// MsgInvalidToken - токен неизвестен или уже использован.
	MsgInvalidToken = "Token inválido o expirado"
	// MsgVerified - почта подтверждена.
	MsgVerified = "Correo verificado correctamente"
)

// Service описывает подтверждение почты.
type Service interface {
	VerifyEmail(ctx context.Context, token string) error
}

// Handler обрабатывает GET /api/verify-email/{token}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verifyemail"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	err := h.service.VerifyEmail(r.Context(), chi.URLParam(r, "token"))
	if errors.Is(err, auth.ErrInvalidVerificationToken) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(MsgInvalidToken))
		return
	}
	if err != nil {
		log.Error("failed to verify email", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}

	log.Info("email verified")
	render.JSON(w, r, response.OKWithData(map[string]string{"message": MsgVerified}))
}
