package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/cvmanager/cvmanager/internal/http/response"
	"github.com/cvmanager/cvmanager/internal/lib/sl"
	"github.com/cvmanager/cvmanager/internal/services/lifecycle"
)

// Evaluator проверяет подписку пользователя.
type Evaluator interface {
	Evaluate(ctx context.Context, userID string) lifecycle.Decision
}

// DenialRecorder учитывает отказы в доступе.
type DenialRecorder interface {
	Denied(reason string)
}

// SubscriptionGate пропускает запрос, только если подписка пользователя разрешает доступ.
// Отказ и ошибка хранилища одинаково дают 403 с сообщением решения.
func SubscriptionGate(evaluator Evaluator, denials DenialRecorder, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SubscriptionGate"
			log := log.With(
				sl.Op(op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			userID, ok := UserID(r.Context())
			if !ok {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(response.MsgUnauthorized))
				return
			}

			d := evaluator.Evaluate(r.Context(), userID)
			if !d.Allowed {
				if d.Outcome == lifecycle.OutcomeError {
					log.Error("subscription check failed", slog.String("user_id", userID), sl.Err(d.Err))
				} else {
					log.Info("access denied", slog.String("user_id", userID), slog.String("status", string(d.Status)))
				}
				if denials != nil {
					denials.Denied(reason(d))
				}
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error(d.Message))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func reason(d lifecycle.Decision) string {
	switch {
	case d.Outcome == lifecycle.OutcomeError:
		return "error"
	case d.Status == "":
		return "no_subscription"
	default:
		return string(d.Status)
	}
}
