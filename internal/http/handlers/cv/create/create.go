// Package create реализует создание резюме.
//
// Новое резюме закрыто (is_public=false) и получает случайный slug.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/cvmanager/cvmanager/internal/http/middlewarectx"
	"github.com/cvmanager/cvmanager/internal/http/response"
	"github.com/cvmanager/cvmanager/internal/lib/sl"
	"github.com/cvmanager/cvmanager/internal/models"
	"github.com/cvmanager/cvmanager/internal/services/cv"
)

const (
	// MsgInvalidData - data не является JSON-объектом.
	MsgInvalidData = "Los datos del CV deben ser un objeto JSON"
	// MsgIDTaken - резюме с таким id уже есть.
	MsgIDTaken = "Ya existe un CV con ese identificador"
)

// Request - тело запроса.
type Request struct {
	ID   string          `json:"id,omitempty" validate:"max=100"`
	Name string          `json:"name" validate:"required,max=200"`
	Data json.RawMessage `json:"data"`
}

// Service описывает создание резюме.
type Service interface {
	Create(ctx context.Context, userID string, in cv.Input) (*models.CV, error)
}

// Handler обрабатывает POST /api/cvs.
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
// @Summary Создать резюме
// @Tags CVs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Резюме"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /cvs [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cv.create"
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

	created, err := h.service.Create(r.Context(), userID, cv.Input{ID: req.ID, Name: req.Name, Data: req.Data})
	if errors.Is(err, cv.ErrInvalidData) {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(MsgInvalidData))
		return
	}
	if errors.Is(err, cv.ErrIDTaken) {
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error(MsgIDTaken))
		return
	}
	if err != nil {
		log.Error("failed to create cv", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}

	log.Info("cv created", slog.String("cv_id", created.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]string{
		"id":   created.ID,
		"slug": created.Slug,
	}))
}
