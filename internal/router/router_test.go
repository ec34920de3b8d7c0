package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/jobportal-admin/internal/auth"
	"github.com/justsurfingit/jobportal-admin/internal/captcha"
	"github.com/justsurfingit/jobportal-admin/internal/config"
	"github.com/justsurfingit/jobportal-admin/internal/database/dbtest"
	"github.com/justsurfingit/jobportal-admin/internal/dtos"
	"github.com/justsurfingit/jobportal-admin/internal/handlers"
	"github.com/justsurfingit/jobportal-admin/internal/logger/loggertest"
	"github.com/justsurfingit/jobportal-admin/internal/middleware"
	"github.com/justsurfingit/jobportal-admin/internal/models"
	"github.com/justsurfingit/jobportal-admin/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
	redis  *miniredis.Miniredis
}

func testConfig() *config.Config {
	return &config.Config{
		Auth:      config.AuthConfig{JWTSecret: "test-secret", TokenTTLMinutes: 60, RequireSession: true, BcryptCost: auth.MinBcryptCost},
		RateLimit: config.RateLimitConfig{Enabled: true, Requests: 100, WindowSeconds: 60},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		Accounts:  config.AccountsConfig{DeletePolicy: config.DeletePolicyOrphan},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	db := dbtest.NewSQLite(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := loggertest.New(t)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	revocations := auth.NewRevocationStore(rdb)

	adminService := services.NewAdminService(db, captcha.Disabled{}, auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		tokens, revocations, cfg.Accounts.DeletePolicy, log)
	jobService := services.NewJobService(db, log)
	applicationService := services.NewApplicationService(db, cfg.Applications.EmptyIsNotFound, log)
	llmService := &services.LLMService{Logger: log}

	engine := New(Deps{
		Config:       cfg,
		Logger:       log,
		Redis:        rdb,
		Sessions:     middleware.NewSessionAuth(tokens, revocations, cfg.Auth.RequireSession, log),
		Admins:       handlers.NewAdminHandler(adminService, log),
		Jobs:         handlers.NewJobHandler(llmService, jobService, log),
		Applications: handlers.NewApplicationHandler(applicationService, log),
		Health:       handlers.NewHealthHandler(db, rdb),
	})
	return &testServer{engine: engine, db: db, redis: mr}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, name, email, password string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/register-admin", "", gin.H{"adminName": name, "email": email, "password": password})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/login-admin", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp dtos.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	var body dtos.ErrorResponse
	decode(t, w, &body)
	return body.Code
}

func TestEndToEnd_PostListDelete(t *testing.T) {
	s := newTestServer(t, testConfig())
	token := s.login(t, "Acme HR", "hr@acme.com", "p1")

	w := s.do(t, http.MethodPost, "/save-job", token, gin.H{"adminemail": "hr@acme.com", "title": "Engineer", "salary": 90000})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created dtos.JobCreatedResponse
	decode(t, w, &created)
	assert.Equal(t, "Job Posted Successfully!", created.Message)
	assert.Equal(t, int64(1), created.ID)

	w = s.do(t, http.MethodGet, "/jobs?email=hr@acme.com", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var jobs []map[string]interface{}
	decode(t, w, &jobs)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Engineer", jobs[0]["title"])
	assert.Equal(t, "hr@acme.com", jobs[0]["adminemail"])
	assert.Equal(t, float64(1), jobs[0]["id"])
	assert.Equal(t, "Acme HR", jobs[0]["company"])

	w = s.do(t, http.MethodDelete, "/jobs/1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Job deleted successfully"}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/jobs?email=hr@acme.com", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(t, http.MethodDelete, "/jobs/1", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t, testConfig())
	token := s.login(t, "Acme HR", "hr@acme.com", "p1")

	t.Run("duplicate registration", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/register-admin", "", gin.H{"adminName": "x", "email": "hr@acme.com", "password": "p"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "DUPLICATE_ACCOUNT", errorCode(t, w))
	})

	t.Run("validation", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/register-admin", "", gin.H{"adminName": "x", "email": "not-an-email", "password": "p"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_FAILED", errorCode(t, w))
	})

	t.Run("bad login", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/login-admin", "", gin.H{"email": "hr@acme.com", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, w))
	})

	t.Run("profile", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/admin/hr@acme.com", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "password")
		var admin map[string]interface{}
		decode(t, w, &admin)
		assert.Equal(t, "Acme HR", admin["adminName"])

		w = s.do(t, http.MethodPut, "/admin/update/hr@acme.com", token, gin.H{"phone": "555-0100"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "555-0100")
	})

	t.Run("other admin is forbidden", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/admin/ceo@globex.com", token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("no session", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/admin/hr@acme.com", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("password change", func(t *testing.T) {
		w := s.do(t, http.MethodPut, "/admin/update-password/hr@acme.com", token, gin.H{"currentPassword": "p1", "newPassword": "p1"})
		assert.Equal(t, "SAME_PASSWORD", errorCode(t, w))

		w = s.do(t, http.MethodPut, "/admin/update-password/hr@acme.com", token, gin.H{"currentPassword": "p1", "newPassword": "p2"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Password updated successfully."}`, w.Body.String())
	})
}

func TestLogoutRevokesSession(t *testing.T) {
	s := newTestServer(t, testConfig())
	token := s.login(t, "Acme HR", "hr@acme.com", "p1")

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/logout-admin", token, nil).Code)

	w := s.do(t, http.MethodGet, "/admin/hr@acme.com", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDeleteAccount(t *testing.T) {
	s := newTestServer(t, testConfig())
	token := s.login(t, "Acme HR", "hr@acme.com", "p1")

	w := s.do(t, http.MethodDelete, "/admin/delete/hr@acme.com", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Account deleted successfully"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/login-admin", "", gin.H{"email": "hr@acme.com", "password": "p1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApplicationRoutes(t *testing.T) {
	s := newTestServer(t, testConfig())
	token := s.login(t, "Acme HR", "hr@acme.com", "p1")

	app := &models.JobApplication{
		Username: "jdoe", Email: "jdoe@example.com", JobID: "1", JobTitle: "Engineer", Company: "Acme HR",
		Resume: models.Resume{Data: []byte("%PDF-1.4"), ContentType: "application/pdf", Name: "jdoe.pdf"},
	}
	require.NoError(t, s.db.Create(app).Error)
	require.NoError(t, s.db.Create(&models.JobApplication{
		Username: "other", Email: "other@example.com", JobID: "9", JobTitle: "Sales", Company: "Globex",
		Resume: models.Resume{Data: []byte("x"), ContentType: "application/pdf", Name: "o.pdf"},
	}).Error)

	t.Run("list", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/job-applications?company=Acme%20HR", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var apps []map[string]interface{}
		decode(t, w, &apps)
		require.Len(t, apps, 1)
		assert.Equal(t, app.ID, apps[0]["_id"])
		assert.Equal(t, true, apps[0]["hasResume"])
		assert.NotContains(t, w.Body.String(), "%PDF")
	})

	t.Run("list other company", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/job-applications?company=Globex", token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("count", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/applications-count", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"totalApplications":1,"newApplications":1}`, w.Body.String())
	})

	t.Run("update status", func(t *testing.T) {
		w := s.do(t, http.MethodPut, "/job-applications/"+app.ID, token, gin.H{"status": "Reviewed"})
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Message     string                `json:"message"`
			Application models.JobApplication `json:"application"`
		}
		decode(t, w, &body)
		assert.Equal(t, "Application status updated.", body.Message)
		assert.Equal(t, models.StatusReviewed, body.Application.Status)

		w = s.do(t, http.MethodPut, "/job-applications/"+app.ID, token, gin.H{"status": "Hired"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_STATUS", errorCode(t, w))
	})

	t.Run("update other company's application", func(t *testing.T) {
		var globex models.JobApplication
		require.NoError(t, s.db.Where("company = ?", "Globex").First(&globex).Error)

		w := s.do(t, http.MethodPut, "/job-applications/"+globex.ID, token, gin.H{"status": "Rejected"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(t, w))

		require.NoError(t, s.db.Where("id = ?", globex.ID).First(&globex).Error)
		assert.Equal(t, models.StatusPending, globex.Status)
	})

	t.Run("resume", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/resume/jdoe@example.com", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="jdoe.pdf"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "%PDF-1.4", w.Body.String())

		w = s.do(t, http.MethodGet, "/resume/other@example.com", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSessionsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.RequireSession = false
	s := newTestServer(t, cfg)

	w := s.do(t, http.MethodPost, "/save-job", "", gin.H{"adminemail": "hr@acme.com", "title": "Engineer"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/jobs?email=hr@acme.com", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/jobs", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_PARAMETER", errorCode(t, w))
}

func TestJobExtractionUnconfigured(t *testing.T) {
	s := newTestServer(t, testConfig())
	token := s.login(t, "Acme HR", "hr@acme.com", "p1")

	w := s.do(t, http.MethodPost, "/jobs/extract", token, gin.H{"raw_html": "<p>Go dev</p>"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", errorCode(t, w))
}

func TestRateLimitedLogin(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Requests = 2
	s := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodPost, "/login-admin", "", gin.H{"email": "x@y.z", "password": "p"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := s.do(t, http.MethodPost, "/login-admin", "", gin.H{"email": "x@y.z", "password": "p"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"database":"ok","redis":"ok"}}`, w.Body.String())

	s.redis.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/health", nil).WithContext(ctx)
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestEmailCaseDoesNotSplitAccounts(t *testing.T) {
	s := newTestServer(t, testConfig())
	token := s.login(t, "Acme HR", "hr@acme.com", "p1")

	w := s.do(t, http.MethodPost, "/save-job", token, gin.H{"title": "Engineer"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/register-admin", "", gin.H{"adminName": "Mallory", "email": "HR@ACME.COM", "password": "p2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "DUPLICATE_ACCOUNT", errorCode(t, w))

	w = s.do(t, http.MethodPost, "/login-admin", "", gin.H{"email": "HR@Acme.com", "password": "p1"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp dtos.LoginResponse
	decode(t, w, &resp)
	assert.Equal(t, "hr@acme.com", resp.Admin.Email)

	w = s.do(t, http.MethodGet, "/admin/HR@ACME.COM", resp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"hr@acme.com"`)

	var admins int64
	require.NoError(t, s.db.Model(&models.Admin{}).Count(&admins).Error)
	assert.Equal(t, int64(1), admins)
}

func TestSessionCannotReachAnotherAccount(t *testing.T) {
	s := newTestServer(t, testConfig())
	victim := s.login(t, "Acme HR", "hr@acme.com", "p1")
	w := s.do(t, http.MethodPost, "/save-job", victim, gin.H{"title": "Engineer"})
	require.Equal(t, http.StatusCreated, w.Code)

	attacker := s.login(t, "Mallory", "mallory@evil.com", "p2")

	for _, path := range []string{"/admin/hr@acme.com", "/admin/HR@ACME.COM", "/jobs?email=HR@ACME.COM"} {
		w := s.do(t, http.MethodGet, path, attacker, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}

	w = s.do(t, http.MethodPut, "/admin/update/HR@ACME.COM", attacker, gin.H{"address": "pwned"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodDelete, "/admin/delete/HR@ACME.COM", attacker, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/save-job", attacker, gin.H{"adminemail": "HR@acme.com", "title": "Fake"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var victimAdmin models.Admin
	require.NoError(t, s.db.Where("email = ?", "hr@acme.com").First(&victimAdmin).Error)
	assert.Empty(t, victimAdmin.Address)
}
