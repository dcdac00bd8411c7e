package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"paytrack/internal/handlers"
	"paytrack/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(key string) *gin.Engine {
	return New(Handlers{
		Auth:     handlers.NewAuthHandler(nil, nil),
		Payment:  handlers.NewPaymentHandler(nil, nil),
		Analysis: handlers.NewAnalysisHandler(nil, nil),
		Sync:     handlers.NewSyncHandler(nil, nil),
		Pipeline: handlers.NewPipelineHandler(nil, nil),
	}, Options{PipelineAPIKey: key, AnalysisLimiter: middleware.NewRateLimiter(1)})
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, http.NoBody))
	return rec
}

func TestNew(t *testing.T) {
	r := newTestRouter("")

	t.Run("health", func(t *testing.T) {
		if rec := serve(r, http.MethodGet, "/api/health"); rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		rec := serve(r, http.MethodOptions, "/api/v1/payments")
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("expected CORS headers")
		}
	})

	protected := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/profile"},
		{http.MethodGet, "/api/v1/payments"},
		{http.MethodPost, "/api/v1/payments"},
		{http.MethodGet, "/api/v1/payments/summary"},
		{http.MethodPost, "/api/v1/payments/0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b/confirm"},
		{http.MethodPost, "/api/v1/analysis"},
		{http.MethodPost, "/api/v1/sync/push"},
		{http.MethodPost, "/api/v1/sync/pull"},
	}
	for _, tt := range protected {
		t.Run("auth_required "+tt.method+" "+tt.path, func(t *testing.T) {
			if rec := serve(r, tt.method, tt.path); rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}

	t.Run("pipeline_not_configured", func(t *testing.T) {
		if rec := serve(r, http.MethodGet, "/api/v1/pipeline/due-today"); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})

	t.Run("pipeline_wrong_key", func(t *testing.T) {
		if rec := serve(newTestRouter("secret"), http.MethodGet, "/api/v1/pipeline/due-today"); rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}
