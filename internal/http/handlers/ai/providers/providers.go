// Package providers перечисляет провайдеров подсказок, для которых задан ключ API.
package providers

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/cvmanager/cvmanager/internal/http/response"
)

// Result - настроенные провайдеры.
type Result struct {
	Providers []string `json:"providers"`
	Default   string   `json:"default"`
}

// Service описывает список провайдеров.
type Service interface {
	Available() ([]string, string)
}

// Handler обрабатывает GET /api/ai/providers.
type Handler struct {
	service Service
}

// New создаёт Handler.
func New(service Service) *Handler {
	return &Handler{service: service}
}

// ServeHTTP godoc
// @Summary Доступные провайдеры подсказок
// @Tags AI
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /ai/providers [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	available, def := h.service.Available()
	render.JSON(w, r, response.OKWithData(Result{Providers: available, Default: def}))
}
