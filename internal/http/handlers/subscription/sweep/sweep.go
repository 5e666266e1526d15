// Package sweep запускает обход просроченных пробных периодов по запросу администратора.
package sweep

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/cvmanager/cvmanager/internal/http/response"
	"github.com/cvmanager/cvmanager/internal/lib/sl"
)

// Sweeper выполняет обход.
type Sweeper interface {
	SweepExpiredTrials(ctx context.Context, now time.Time) (int, error)
}

// Handler обрабатывает POST /api/admin/sweep.
type Handler struct {
	log     *slog.Logger
	sweeper Sweeper
	now     func() time.Time
}

// New создаёт Handler.
func New(log *slog.Logger, sweeper Sweeper) *Handler {
	return &Handler{log: log, sweeper: sweeper, now: time.Now}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.sweep"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	processed, err := h.sweeper.SweepExpiredTrials(r.Context(), h.now().UTC())
	if err != nil {
		log.Error("sweep failed", sl.Err(err), slog.Int("processed", processed))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}

	log.Info("sweep done", slog.Int("processed", processed))
	render.JSON(w, r, response.OKWithData(map[string]int{"processedCount": processed}))
}
