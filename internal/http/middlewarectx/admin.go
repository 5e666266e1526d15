package middlewarectx

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/cvmanager/cvmanager/internal/http/response"
)

// AdminKeyHeader - заголовок с ключом администратора.
const AdminKeyHeader = "X-Admin-Key"

// MsgForbidden - ответ на запрос без прав администратора.
const MsgForbidden = "Acceso denegado"

// AdminKey пропускает запрос, только если заголовок X-Admin-Key совпадает с key.
// Пустой key закрывает административные маршруты полностью.
func AdminKey(key string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(AdminKeyHeader)
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				log.Warn("admin access denied", slog.String("path", r.URL.Path))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error(MsgForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
