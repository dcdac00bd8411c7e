package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"paytrack/internal/analysis"
	"paytrack/internal/cloudsync"
	"paytrack/internal/handlers"
	"paytrack/internal/logger"
	"paytrack/internal/middleware"
	"paytrack/internal/repository"
	"paytrack/internal/router"
	"paytrack/internal/services"
	"paytrack/internal/testutil"
	"paytrack/internal/validator"
)

const pipelineKey = "integration-pipeline-key"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB        *gorm.DB
	Repo      *repository.PaymentRepository
	Sync      *cloudsync.Service
	Transport *cloudsync.FileTransport
	Router    *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite database and a temporary sync directory.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	transport, err := cloudsync.NewFileTransport(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create sync transport: %v", err)
	}

	// Services
	paymentRepo := repository.NewPaymentRepository(db)
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	paymentService := services.NewPaymentService(paymentRepo, time.UTC)
	analysisService := analysis.NewService(analysis.NewRuleAnalyzer(), time.Minute, time.UTC)
	syncService := cloudsync.NewService(paymentRepo, transport)

	engine := router.New(router.Handlers{
		Auth:     handlers.NewAuthHandler(userService, auditService),
		Payment:  handlers.NewPaymentHandler(paymentService, auditService),
		Analysis: handlers.NewAnalysisHandler(paymentService, analysisService),
		Sync:     handlers.NewSyncHandler(syncService, auditService),
		Pipeline: handlers.NewPipelineHandler(paymentService, paymentRepo),
	}, router.Options{
		PipelineAPIKey:  pipelineKey,
		AnalysisLimiter: middleware.NewRateLimiter(2),
	})

	return &testApp{DB: db, Repo: paymentRepo, Sync: syncService, Transport: transport, Router: engine}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// createPayment posts body to /payments and returns the created payment.
func (app *testApp) createPayment(t *testing.T, token, body string) map[string]interface{} {
	t.Helper()
	rec := app.request("POST", "/api/v1/payments", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create payment failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["payment"].(map[string]interface{})
}

// serve runs a prepared request through the router.
func (app *testApp) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// newPipelineRequest builds a GET request carrying the pipeline API key.
func newPipelineRequest(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	req.Header.Set("X-API-Key", pipelineKey)
	return req
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	return string(data)
}
