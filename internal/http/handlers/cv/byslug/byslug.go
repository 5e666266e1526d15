// Package byslug возвращает резюме по slug авторизованному пользователю.
package byslug

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
	"github.com/cvmanager/cvmanager/internal/models"
	"github.com/cvmanager/cvmanager/internal/services/cv"
)

// MsgNotFound - резюме с таким slug нет.
const MsgNotFound = "CV no encontrado"

// Service описывает поиск резюме по slug.
type Service interface {
	BySlug(ctx context.Context, slug string) (*models.CV, error)
}

// Handler обрабатывает GET /api/cv-by-slug/{slug}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cv.byslug"
	slugValue := chi.URLParam(r, "slug")
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("slug", slugValue),
	)

	found, err := h.service.BySlug(r.Context(), slugValue)
	if errors.Is(err, cv.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(MsgNotFound))
		return
	}
	if err != nil {
		log.Error("failed to get cv by slug", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}
	render.JSON(w, r, response.OKWithData(found))
}
