// Package middlewarectx содержит HTTP middleware: проверку токена сессии,
// проверку подписки, ограничение частоты запросов и доступ администратора.
//
// Auth кладёт в контекст идентификатор и имя пользователя; остальные middleware
// и обработчики читают их через UserID.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/cvmanager/cvmanager/internal/http/response"
	"github.com/cvmanager/cvmanager/internal/lib/sessiontoken"
	"github.com/cvmanager/cvmanager/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// User - ключ для идентификатора пользователя в контексте.
	User Key = "user_id"
	// Username - ключ для имени пользователя в контексте.
	Username Key = "username"
)

// TokenParser проверяет заголовок Authorization.
type TokenParser interface {
	Parse(header string) (*sessiontoken.Claims, error)
}

// Auth возвращает middleware, который пропускает только запросы с валидным
// токеном сессии, иначе отвечает 401.
func Auth(tokens TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Auth"
			claims, err := tokens.Parse(r.Header.Get("Authorization"))
			if err != nil {
				log.Info("unauthenticated request",
					sl.Op(op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					sl.Err(err),
				)
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(response.MsgUnauthorized))
				return
			}
			ctx := WithUser(r.Context(), claims.UserID, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUser кладёт пользователя в контекст.
func WithUser(ctx context.Context, userID, username string) context.Context {
	ctx = context.WithValue(ctx, User, userID)
	return context.WithValue(ctx, Username, username)
}

// UserID возвращает идентификатор пользователя из контекста.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(User).(string)
	return id, ok && id != ""
}
