package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func up(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]Pinger
		wantStatus int
		wantBody   string
	}{
		{
			name:       "all up",
			checks:     map[string]Pinger{"postgres": pingFunc(up), "redis": pingFunc(up)},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"OK","data":{"postgres":"up","redis":"up"}}`,
		},
		{
			name:       "redis down",
			checks:     map[string]Pinger{"postgres": pingFunc(up), "redis": pingFunc(down)},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"status":"Error","error":"unhealthy","data":{"postgres":"up","redis":"down"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			New(slog.New(slog.NewTextHandler(io.Discard, nil)), tt.checks).
				ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
		})
	}
}
