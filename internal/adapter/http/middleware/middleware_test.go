package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmanager/internal/core/domain"
	"taskmanager/pkg/auth"
	"taskmanager/pkg/config"
	ct "taskmanager/pkg/context"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func sessionRouter(jwt *auth.JWT) *gin.Engine {
	router := gin.New()
	router.Use(CurrentMiddleware())
	router.GET("/me", SessionAuth(jwt, nil), func(c *gin.Context) {
		principal := GetPrincipal(c)

		c.JSON(http.StatusOK, gin.H{
			"principal": principal.UserID,
			"gin":       c.GetString(ct.UserIDKey),
			"current":   GetCurrent(c).UserID(),
		})
	})

	return router
}

func TestSessionAuth(t *testing.T) {
	jwt := auth.NewJWT("test-secret", time.Hour)
	token, err := jwt.IssueSession(domain.User{ID: "user_1", Email: "ana@example.com", Name: "ana"})
	require.NoError(t, err)

	router := sessionRouter(jwt)

	t.Run("cookie", func(t *testing.T) {
		g := NewWithT(t)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		g.Expect(w.Code).To(Equal(http.StatusOK))
		g.Expect(w.Body.String()).To(MatchJSON(`{"principal":"ana@example.com","gin":"ana@example.com","current":"ana@example.com"}`))
	})

	t.Run("bearer", func(t *testing.T) {
		g := NewWithT(t)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		g.Expect(w.Code).To(Equal(http.StatusOK))
	})

	t.Run("missing", func(t *testing.T) {
		g := NewWithT(t)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

		g.Expect(w.Code).To(Equal(http.StatusUnauthorized))
		g.Expect(w.Body.String()).To(MatchJSON(`{"error":"Unauthorized"}`))
	})

	t.Run("forged", func(t *testing.T) {
		g := NewWithT(t)

		forged, err := auth.NewJWT("other-secret", time.Hour).IssueSession(domain.User{Email: "ana@example.com"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: forged})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		g.Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	t.Run("stale cookie with valid bearer", func(t *testing.T) {
		g := NewWithT(t)

		stale, err := auth.NewJWT("rotated-secret", time.Hour).IssueSession(domain.User{Email: "old@example.com"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: stale})
		req.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		g.Expect(w.Code).To(Equal(http.StatusOK))
		g.Expect(w.Body.String()).To(ContainSubstring(`"principal":"ana@example.com"`))
	})

	t.Run("stale cookie without bearer", func(t *testing.T) {
		g := NewWithT(t)

		stale, err := auth.NewJWT("rotated-secret", time.Hour).IssueSession(domain.User{Email: "old@example.com"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: stale})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		g.Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
}

func TestGetPrincipal_WithoutSession(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.False(t, GetPrincipal(c).IsAuthenticated())
}

func TestCurrentMiddleware_RequestID(t *testing.T) {
	router := gin.New()
	router.Use(CurrentMiddleware())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, ct.GetCurrent(c.Request.Context()).RequestID())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Body.String())
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))
}

func TestCORSMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware([]string{"http://localhost:3000"}))
	router.GET("/tasks", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Origin", "http://evil.example")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

type recordedRequest struct {
	method, path, status string
}

type fakeMetrics struct {
	mu       sync.Mutex
	requests []recordedRequest
	active   int
}

func (f *fakeMetrics) RecordRequest(ctx context.Context, method, path, status string, duration time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{method, path, status})
}

func (f *fakeMetrics) IncrementActiveConnections(ctx context.Context) { f.active++ }
func (f *fakeMetrics) DecrementActiveConnections(ctx context.Context) { f.active-- }

func TestMetricsMiddleware_RecordsStatusAsNumber(t *testing.T) {
	metrics := &fakeMetrics{}

	router := gin.New()
	router.Use(MetricsMiddleware(metrics))
	router.GET("/tasks/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tasks/abc", nil))

	assert.Equal(t, []recordedRequest{{"GET", "/tasks/:id", "404"}}, metrics.requests)
	assert.Zero(t, metrics.active)
}

func TestEnvironmentMiddleware(t *testing.T) {
	for env, expected := range map[string]bool{config.EnvDevelopment: true, config.EnvProduction: false} {
		router := gin.New()
		router.Use(EnvironmentMiddleware(&config.AppConfig{Environment: env}))
		router.GET("/", func(c *gin.Context) {
			assert.Equal(t, expected, c.GetBool("development"))
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
}
