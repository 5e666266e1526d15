// Package cvmanager собирает HTTP API: зависимости, маршруты и сервер.
package cvmanager

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Handlers - обработчики всех маршрутов API.
type Handlers struct {
	Health        http.Handler
	Register      http.Handler
	Login         http.Handler
	VerifyEmail   http.Handler
	Lead          http.Handler
	ListCVs       http.Handler
	CreateCV      http.Handler
	UpdateCV      http.Handler
	DeleteCV      http.Handler
	CVBySlug      http.Handler
	PublicCV      http.Handler
	Status        http.Handler
	Optimize      http.Handler
	Compare       http.Handler
	AIProviders   http.Handler
	VerifyPayment http.Handler
	Sweep         http.Handler
}

// Middleware - проверки, которыми закрыты группы маршрутов.
type Middleware struct {
	Auth  func(http.Handler) http.Handler
	Gate  func(http.Handler) http.Handler
	Limit func(http.Handler) http.Handler
	Admin func(http.Handler) http.Handler
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, h Handlers, m Middleware) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Method(http.MethodGet, "/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
	r.Method(http.MethodGet, "/cv/{slug}", h.PublicCV)

	r.Route("/api", func(r chi.Router) {
		// Открытые маршруты
		r.Method(http.MethodPost, "/register", h.Register)
		r.Method(http.MethodPost, "/login", h.Login)
		r.Method(http.MethodGet, "/verify-email/{token}", h.VerifyEmail)
		r.Method(http.MethodPost, "/leads", h.Lead)

		r.Group(func(r chi.Router) {
			r.Use(m.Auth)
			r.Method(http.MethodGet, "/cvs", h.ListCVs)
			r.Method(http.MethodPost, "/cvs", h.CreateCV)
			r.Method(http.MethodPut, "/cvs/{id}", h.UpdateCV)
			r.Method(http.MethodDelete, "/cvs/{id}", h.DeleteCV)
			r.Method(http.MethodGet, "/cv-by-slug/{slug}", h.CVBySlug)
			r.Method(http.MethodGet, "/subscription/status", h.Status)
			r.Method(http.MethodGet, "/ai/providers", h.AIProviders)

			r.Group(func(r chi.Router) {
				r.Use(m.Gate, m.Limit)
				r.Method(http.MethodPost, "/ai/optimize", h.Optimize)
				r.Method(http.MethodPost, "/ai/compare", h.Compare)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(m.Admin)
			r.Method(http.MethodPost, "/subscriptions/{id}/verify-payment", h.VerifyPayment)
			r.Method(http.MethodPost, "/sweep", h.Sweep)
		})
	})
}
