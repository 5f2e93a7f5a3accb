package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/BailinYe/Resume-Modifier-sub002/config"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/controller"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/model"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/repository"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/service"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/db"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/middleware"
)

type recordingSender struct {
	tokens []string
}

func (s *recordingSender) SendPasswordReset(toEmail, rawToken string, expiresAt time.Time) error {
	s.tokens = append(s.tokens, rawToken)
	return nil
}

type memoryAuditRepo struct {
	events []model.AuditEvent
}

func (r *memoryAuditRepo) Record(event *model.AuditEvent) error {
	r.events = append(r.events, *event)
	return nil
}

func (r *memoryAuditRepo) List(filter repository.AuditEventFilter) ([]model.AuditEvent, error) {
	return r.events, nil
}

type staticCompleter struct {
	answer string
}

func (c *staticCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.answer, nil
}

type TestServer struct {
	Router    *gin.Engine
	DB        *gorm.DB
	Mail      *recordingSender
	Completer *staticCompleter
}

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(testDB)
	resetTokenRepo := repository.NewResetTokenRepository(testDB)
	resumeRepo := repository.NewResumeRepository(testDB)
	auditRepo := &memoryAuditRepo{}
	limiter := repository.NewRateLimitRepository(testDB)

	mail := &recordingSender{}
	completer := &staticCompleter{answer: `{"score": 72, "feedback": "Tighten the summary."}`}

	resetCfg := config.PasswordResetConfig{
		TokenExpiry:      24 * time.Hour,
		TokenLength:      64,
		UserLimitPerHour: 5,
		IPLimitPerHour:   10,
		CleanupInterval:  6 * time.Hour,
		CleanupGrace:     24 * time.Hour,
	}

	authService := service.NewAuthService(userRepo, "test-secret", 15*time.Minute, 7*24*time.Hour, false)
	resetService := service.NewPasswordResetService(testDB, userRepo, resetTokenRepo, auditRepo, limiter, mail, resetCfg)
	resumeService := service.NewResumeService(resumeRepo)
	aiService := service.NewAIService(completer, resumeRepo, resumeService)

	authController := controller.NewAuthController(authService, resetService)
	resumeController := controller.NewResumeController(resumeService, aiService, nil)

	authMiddleware := middleware.NewAuthMiddleware("test-secret", false)

	router := gin.New()

	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/forgot-password", authController.ForgotPassword)
		auth.POST("/validate-reset-token", authController.ValidateResetToken)
		auth.POST("/reset-password", authController.ResetPassword)
		auth.GET("/me", authMiddleware.Authenticate(), authController.Me)
	}

	resumes := router.Group("/api/v1/resumes")
	resumes.Use(authMiddleware.Authenticate())
	{
		resumes.POST("", resumeController.Create)
		resumes.GET("", resumeController.List)
		resumes.GET("/:id", resumeController.Get)
		resumes.POST("/:id/score", resumeController.Score)
	}

	return &TestServer{
		Router:    router,
		DB:        testDB,
		Mail:      mail,
		Completer: completer,
	}
}

func (ts *TestServer) do(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func registerAndLogin(t *testing.T, ts *TestServer, email, password string) string {
	w := ts.do(t, "POST", "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
		"name":     "Test User",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	tokens := decode(t, w)["tokens"].(map[string]interface{})
	return tokens["access_token"].(string)
}

func TestPasswordResetJourney(t *testing.T) {
	ts := setupIntegrationTest(t)
	defer db.CleanupTestDB(ts.DB)

	registerAndLogin(t, ts, "journey@example.com", "OldPass1!")

	// Request a reset link.
	w := ts.do(t, "POST", "/api/v1/auth/forgot-password", "", map[string]string{
		"email": "journey@example.com",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, ts.Mail.tokens, 1)
	rawToken := ts.Mail.tokens[0]

	// The link target checks the token before showing the form.
	w = ts.do(t, "POST", "/api/v1/auth/validate-reset-token", "", map[string]string{
		"token": rawToken,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["valid"])

	// Complete the reset.
	w = ts.do(t, "POST", "/api/v1/auth/reset-password", "", map[string]string{
		"token":        rawToken,
		"new_password": "NewPass2@",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])

	// The old password no longer works, the new one does.
	w = ts.do(t, "POST", "/api/v1/auth/login", "", map[string]string{
		"email":    "journey@example.com",
		"password": "OldPass1!",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, "POST", "/api/v1/auth/login", "", map[string]string{
		"email":    "journey@example.com",
		"password": "NewPass2@",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// A consumed token cannot be replayed.
	w = ts.do(t, "POST", "/api/v1/auth/reset-password", "", map[string]string{
		"token":        rawToken,
		"new_password": "Another3#",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResumeScoringJourney(t *testing.T) {
	ts := setupIntegrationTest(t)
	defer db.CleanupTestDB(ts.DB)

	token := registerAndLogin(t, ts, "writer@example.com", "GoodPass1!")

	w := ts.do(t, "POST", "/api/v1/resumes", token, map[string]string{
		"title":   "Backend Engineer",
		"content": `{"skills": ["Go", "PostgreSQL"]}`,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	resume := decode(t, w)["resume"].(map[string]interface{})
	resumeID := int(resume["id"].(float64))

	w = ts.do(t, "POST", "/api/v1/resumes/"+strconv.Itoa(resumeID)+"/score", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(72), decode(t, w)["score"])

	// The stored resume carries the score afterwards.
	w = ts.do(t, "GET", "/api/v1/resumes/"+strconv.Itoa(resumeID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stored := decode(t, w)["resume"].(map[string]interface{})
	assert.Equal(t, float64(72), stored["score"])
}

func TestUnauthorizedAccess(t *testing.T) {
	ts := setupIntegrationTest(t)
	defer db.CleanupTestDB(ts.DB)

	protectedRoutes := []string{
		"/api/v1/auth/me",
		"/api/v1/resumes",
	}

	for _, route := range protectedRoutes {
		t.Run(route, func(t *testing.T) {
			w := ts.do(t, "GET", route, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
