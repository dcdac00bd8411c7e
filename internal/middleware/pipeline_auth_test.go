package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

const dueTodayPath = "/api/v1/pipeline/due-today"

func init() {
	gin.SetMode(gin.TestMode)
}

// setupPipelineRouter mounts a due-today stand-in behind the middleware and
// reports whether it was reached.
func setupPipelineRouter(apiKey string, reached *bool) *gin.Engine {
	r := gin.New()
	pipeline := r.Group("/api/v1/pipeline")
	pipeline.Use(PipelineAuthMiddleware(apiKey))
	pipeline.GET("/due-today", func(c *gin.Context) {
		*reached = true
		c.JSON(http.StatusOK, gin.H{
			"users": []gin.H{{"user_id": "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b", "payments": []gin.H{{"name": "Electricity"}}}},
			"count": 1,
		})
	})
	return r
}

func doPipelineRequest(r *gin.Engine, path, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return result
}

func TestPipelineAuthMiddleware(t *testing.T) {
	const key = "secret-pipeline-key"

	tests := []struct {
		name          string
		configuredKey string
		path          string
		requestKey    string
		wantStatus    int
		wantErrorCode string
	}{
		{"valid_api_key", key, dueTodayPath, key, http.StatusOK, ""},
		{"invalid_api_key", key, dueTodayPath, "wrong-key", http.StatusUnauthorized, "INVALID_API_KEY"},
		{"missing_api_key", key, dueTodayPath, "", http.StatusUnauthorized, "INVALID_API_KEY"},
		{"partial_match_rejected", key, dueTodayPath, "secret-pipeline", http.StatusUnauthorized, "INVALID_API_KEY"},
		{"key_in_query_ignored", key, dueTodayPath + "?api_key=" + key, "", http.StatusUnauthorized, "INVALID_API_KEY"},
		{"not_configured", "", dueTodayPath, "any-key", http.StatusServiceUnavailable, "PIPELINE_NOT_CONFIGURED"},
		{"not_configured_without_key", "", dueTodayPath, "", http.StatusServiceUnavailable, "PIPELINE_NOT_CONFIGURED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			router := setupPipelineRouter(tt.configuredKey, &reached)
			rec := doPipelineRequest(router, tt.path, tt.requestKey)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := parseBody(t, rec)

			if tt.wantErrorCode != "" {
				if reached {
					t.Error("due-today handler must not run on a rejected request")
				}
				errObj, ok := body["error"].(map[string]interface{})
				if !ok {
					t.Fatal("expected error object in response")
				}
				if code, _ := errObj["code"].(string); code != tt.wantErrorCode {
					t.Errorf("error code = %q, want %q", code, tt.wantErrorCode)
				}
				if msg, _ := errObj["message"].(string); msg == "" {
					t.Error("expected an error message")
				}
				return
			}

			if !reached {
				t.Fatal("expected the due-today handler to be reached")
			}
			users, ok := body["users"].([]interface{})
			if !ok || len(users) != 1 || body["count"] != float64(1) {
				t.Errorf("unexpected due-today payload %v", body)
			}
		})
	}
}
