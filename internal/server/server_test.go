package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inspection-service/internal/cache"
	"inspection-service/internal/classifier"
	"inspection-service/internal/detector"
	"inspection-service/internal/handler"
	"inspection-service/internal/models"
	"inspection-service/internal/notifier"
	"inspection-service/internal/repository"
	"inspection-service/internal/service"
)

const secret = "server-test-secret"

func newTestServer(t *testing.T, jwtSecret string) *Server {
	t.Helper()
	logger := zap.NewNop()
	repo := repository.NewMemoryAlertRepository()
	c := cache.NewMemoryCache()
	versions := service.NewStatsVersions(c, logger)
	inspector := service.NewInspector(classifier.NewClassifier(detector.NewSet(), 0), repo, nil, notifier.Nop{}, versions, service.InspectorConfig{}, logger)

	return NewServer(":0", Handlers{
		Classify: handler.NewClassifyHandler(inspector, logger),
		Alerts:   handler.NewAlertHandler(service.NewAlertService(repo, versions, logger), logger),
		Stats:    handler.NewStatsHandler(service.NewStatsService(repo, c, versions, time.Minute, logger), logger),
		Health:   handler.NewHealthHandler(repo, nil, logger),
	}, Options{Mode: gin.TestMode, JWTSecret: jwtSecret}, logger)
}

func token(t *testing.T, subject string) string {
	t.Helper()
	claims := models.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func request(s *Server, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_AuthenticatedRoutes(t *testing.T) {
	s := newTestServer(t, secret)
	alice := token(t, "alice")

	w := request(s, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = request(s, http.MethodPost, "/api/v1/dlp/check", `{"text":"Password: hunter22"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = request(s, http.MethodPost, "/api/v1/dlp/check", `{"text":"Password: hunter22"}`, alice)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = request(s, http.MethodPost, "/api/v1/dlp/check", `{"text":"hi","user_id":"bob"}`, alice)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = request(s, http.MethodGet, "/api/v1/alerts", "", alice)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = request(s, http.MethodGet, "/api/v1/stats/bob", "", alice)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = request(s, http.MethodGet, "/api/v1/stats/alice", "", alice)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_OpenRoutesWithoutSecret(t *testing.T) {
	s := newTestServer(t, "")

	w := request(s, http.MethodPost, "/api/v1/spam/check", `{"text":"hello","user_id":"bob"}`, "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = request(s, http.MethodGet, "/api/v1/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
