// Package remove реализует удаление резюме владельцем.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/cvmanager/cvmanager/internal/http/middlewarectx"
	"github.com/cvmanager/cvmanager/internal/http/response"
	"github.com/cvmanager/cvmanager/internal/lib/sl"
	"github.com/cvmanager/cvmanager/internal/services/cv"
)

const (
	// MsgNotFound - резюме нет или оно принадлежит другому пользователю.
	MsgNotFound = "CV no encontrado o no autorizado"
	// MsgDeleted - резюме удалено.
	MsgDeleted = "CV eliminado"
)

// Service описывает удаление резюме.
type Service interface {
	Delete(ctx context.Context, userID, id string) error
}

// Handler обрабатывает DELETE /api/cvs/{id}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить резюме
// @Tags CVs
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID резюме"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /cvs/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cv.remove"
	id := chi.URLParam(r, "id")
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("cv_id", id),
	)

	userID, ok := middlewarectx.UserID(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(response.MsgUnauthorized))
		return
	}

	err := h.service.Delete(r.Context(), userID, id)
	if errors.Is(err, cv.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(MsgNotFound))
		return
	}
	if err != nil {
		log.Error("failed to delete cv", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}

	log.Info("cv deleted")
	render.JSON(w, r, response.OKWithData(map[string]string{"message": MsgDeleted}))
}
