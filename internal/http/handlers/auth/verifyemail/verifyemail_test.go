package verifyemail

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cvmanager/cvmanager/internal/http/response"
	"github.com/cvmanager/cvmanager/internal/services/auth"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) VerifyEmail(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func TestVerifyEmailHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{name: "verified", wantStatus: http.StatusOK},
		{name: "unknown token", err: auth.ErrInvalidVerificationToken, wantStatus: http.StatusBadRequest, wantError: MsgInvalidToken},
		{name: "store failure", err: errors.New("db down"), wantStatus: http.StatusInternalServerError, wantError: response.MsgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			svc.On("VerifyEmail", mock.Anything, "tok123").Return(tt.err).Once()

			r := chi.NewRouter()
			r.Get("/api/verify-email/{token}", New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/verify-email/tok123", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			var resp response.Response
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantError, resp.Error)
			svc.AssertExpectations(t)
		})
	}
}
