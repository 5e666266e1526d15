package providers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type serviceStub struct {
	available []string
	def       string
}

func (s serviceStub) Available() ([]string, string) {
	return s.available, s.def
}

func TestProvidersHandler(t *testing.T) {
	tests := []struct {
		name     string
		svc      serviceStub
		wantBody string
	}{
		{
			name:     "configured",
			svc:      serviceStub{available: []string{"openai", "gemini"}, def: "openai"},
			wantBody: `{"status":"OK","data":{"providers":["openai","gemini"],"default":"openai"}}`,
		},
		{
			name:     "none configured",
			svc:      serviceStub{available: []string{}, def: "openai"},
			wantBody: `{"status":"OK","data":{"providers":[],"default":"openai"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			New(tt.svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/ai/providers", nil))

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
		})
	}
}
