// Package update реализует изменение резюме владельцем.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/cvmanager/cvmanager/internal/http/middlewarectx"
	"github.com/cvmanager/cvmanager/internal/http/response"
	"github.com/cvmanager/cvmanager/internal/lib/sl"
	"github.com/cvmanager/cvmanager/internal/services/cv"
)

const (
	// MsgNotFound - резюме нет или оно принадлежит другому пользователю.
	MsgNotFound = "CV no encontrado o no autorizado"
	// MsgInvalidData - data не является JSON-объектом.
	MsgInvalidData = "Los datos del CV deben ser un objeto JSON"
	// MsgUpdated - резюме обновлено.
	MsgUpdated = "CV actualizado"
)

// Request - тело запроса.
type Request struct {
	Name     string          `json:"name" validate:"required,max=200"`
	Data     json.RawMessage `json:"data"`
	IsPublic bool            `json:"is_public"`
}

// Service описывает изменение резюме.
type Service interface {
	Update(ctx context.Context, userID string, in cv.Input) error
}

// Handler обрабатывает PUT /api/cvs/{id}.
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
// @Summary Обновить резюме
// @Tags CVs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID резюме"
// @Param request body Request true "Резюме"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /cvs/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cv.update"
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

	err := h.service.Update(r.Context(), userID, cv.Input{ID: id, Name: req.Name, Data: req.Data, IsPublic: req.IsPublic})
	switch {
	case errors.Is(err, cv.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(MsgNotFound))
		return
	case errors.Is(err, cv.ErrInvalidData):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(MsgInvalidData))
		return
	case err != nil:
		log.Error("failed to update cv", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}

	log.Info("cv updated")
	render.JSON(w, r, response.OKWithData(map[string]string{"message": MsgUpdated}))
}
