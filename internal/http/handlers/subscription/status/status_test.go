package status

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cvmanager/cvmanager/internal/http/middlewarectx"
	"github.com/cvmanager/cvmanager/internal/models"
	"github.com/cvmanager/cvmanager/internal/services/lifecycle"
)

type EvaluatorMock struct {
	mock.Mock
}

func (m *EvaluatorMock) Evaluate(ctx context.Context, userID string) lifecycle.Decision {
	return m.Called(ctx, userID).Get(0).(lifecycle.Decision)
}

func TestStatusHandler(t *testing.T) {
	trialEnd := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		decision lifecycle.Decision
		want     map[string]any
	}{
		{
			name:     "trial",
			decision: lifecycle.Decision{Allowed: true, Status: models.StatusTrial, TrialEnd: &trialEnd},
			want:     map[string]any{"allowed": true, "status": "trial", "trialEnd": "2024-03-11T12:00:00Z"},
		},
		{
			name:     "denied still 200",
			decision: lifecycle.Decision{Status: models.StatusExpired, Message: lifecycle.MsgTrialExpired, Outcome: lifecycle.OutcomeDenied},
			want:     map[string]any{"allowed": false, "status": "expired", "message": lifecycle.MsgTrialExpired},
		},
		{
			name: "error hides details",
			decision: lifecycle.Decision{Message: lifecycle.MsgVerifyFailed, Outcome: lifecycle.OutcomeError,
				Err: errors.New("pq: connection refused")},
			want: map[string]any{"allowed": false, "message": lifecycle.MsgVerifyFailed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := new(EvaluatorMock)
			ev.On("Evaluate", mock.Anything, "u1").Return(tt.decision).Once()

			req := httptest.NewRequest(http.MethodGet, "/api/subscription/status", nil)
			req = req.WithContext(middlewarectx.WithUser(req.Context(), "u1", "ana"))
			rr := httptest.NewRecorder()
			New(slog.New(slog.NewTextHandler(io.Discard, nil)), ev).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			var resp struct {
				Data map[string]any `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Data)
		})
	}
}
