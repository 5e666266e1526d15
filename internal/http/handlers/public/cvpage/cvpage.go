// Package cvpage отдаёт публичную HTML-страницу опубликованного резюме.
package cvpage

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/cvmanager/cvmanager/internal/lib/sl"
	"github.com/cvmanager/cvmanager/internal/models"
	"github.com/cvmanager/cvmanager/internal/services/cv"
)

const (
	// MsgNotFound - резюме нет или оно не опубликовано.
	MsgNotFound = "CV no encontrado o no público"
	// MsgLoadFailed - ошибка загрузки или отрисовки.
	MsgLoadFailed = "Error al cargar CV"
	// CacheControl - заголовок кеширования публичной страницы.
	CacheControl = "public, max-age=300"
)

//go:embed templates/cv.html
var templatesFS embed.FS

var page = template.Must(template.ParseFS(templatesFS, "templates/cv.html"))

// Service описывает поиск опубликованного резюме.
type Service interface {
	Public(ctx context.Context, slug string) (*models.CV, error)
}

// Handler обрабатывает GET /cv/{slug}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

type experience struct {
	Role             string
	Company          string
	Dates            string
	Responsibilities []string
}

type view struct {
	models.CVContent
	Skills      []string
	Tools       []string
	Experiences []experience
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.public.cvpage"
	slugValue := chi.URLParam(r, "slug")
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("slug", slugValue),
	)

	found, err := h.service.Public(r.Context(), slugValue)
	if errors.Is(err, cv.ErrNotFound) {
		writeText(w, http.StatusNotFound, MsgNotFound)
		return
	}
	if err != nil {
		log.Error("failed to load public cv", sl.Err(err))
		writeText(w, http.StatusInternalServerError, MsgLoadFailed)
		return
	}

	var content models.CVContent
	if err := json.Unmarshal(found.Data, &content); err != nil {
		log.Error("failed to decode cv data", sl.Err(err))
		writeText(w, http.StatusInternalServerError, MsgLoadFailed)
		return
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, newView(content)); err != nil {
		log.Error("failed to render cv", sl.Err(err))
		writeText(w, http.StatusInternalServerError, MsgLoadFailed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", CacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func newView(c models.CVContent) view {
	v := view{
		CVContent: c,
		Skills:    splitList(c.Skills, ","),
		Tools:     splitList(c.Tools, ","),
	}
	for _, e := range c.Experiences {
		v.Experiences = append(v.Experiences, experience{
			Role:             e.Role,
			Company:          e.Company,
			Dates:            e.Dates,
			Responsibilities: splitList(e.Responsibilities, "\n"),
		})
	}
	return v
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
