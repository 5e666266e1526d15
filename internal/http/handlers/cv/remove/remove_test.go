package remove

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

	"github.com/cvmanager/cvmanager/internal/http/middlewarectx"
	"github.com/cvmanager/cvmanager/internal/http/response"
	"github.com/cvmanager/cvmanager/internal/services/cv"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Delete(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func TestRemoveHandler(t *testing.T) {
	tests := []struct {
		name       string
		svcErr     error
		wantStatus int
		wantError  string
	}{
		{name: "deleted", wantStatus: http.StatusOK},
		{name: "not owned", svcErr: cv.ErrNotFound, wantStatus: http.StatusNotFound, wantError: MsgNotFound},
		{name: "store failure", svcErr: errors.New("db down"), wantStatus: http.StatusInternalServerError, wantError: response.MsgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			svc.On("Delete", mock.Anything, "u1", "c1").Return(tt.svcErr).Once()

			r := chi.NewRouter()
			r.Delete("/api/cvs/{id}", New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP)
			req := httptest.NewRequest(http.MethodDelete, "/api/cvs/c1", nil)
			req = req.WithContext(middlewarectx.WithUser(req.Context(), "u1", "ana"))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			var resp response.Response
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantError, resp.Error)
			svc.AssertExpectations(t)
		})
	}
}
