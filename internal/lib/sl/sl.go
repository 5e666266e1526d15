// Package sl содержит вспомогательные функции для логгера slog:
// единообразные атрибуты для ошибок и имён операций.
package sl

import (
	"io"
	"log/slog"
	"os"
)

const envProd = "prod"

// SetupLogger создаёт логгер для окружения env: JSON уровня Info в prod,
// иначе текстовый уровня Debug.
func SetupLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env)
}

func newLogger(w io.Writer, env string) *slog.Logger {
	if env == envProd {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Err возвращает атрибут "error" с текстом ошибки.
//
//	log.Error("failed to load subscription", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Op возвращает атрибут "op" с именем операции.
func Op(op string) slog.Attr {
	return slog.String("op", op)
}
