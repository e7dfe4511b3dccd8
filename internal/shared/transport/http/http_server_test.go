package http

import (
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Paddlers/internal/shared/security"
	"Paddlers/internal/shared/transport"
	"Paddlers/internal/shared/transport/http/middleware"
)

func TestNewHttpServer_Healthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewHttpServer(":0", gin.New(), nil)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, "/healthz", nil))
	assert.Equal(t, nethttp.StatusOK, w.Code)
}

func TestServer_Readyz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewHttpServer(":0", gin.New(), nil)
	probe := func() int {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, "/readyz", nil))
		return w.Code
	}

	assert.Equal(t, nethttp.StatusServiceUnavailable, probe())
	s.SetReady(true)
	assert.Equal(t, nethttp.StatusOK, probe())
	s.SetReady(false)
	assert.Equal(t, nethttp.StatusServiceUnavailable, probe())
}

func TestNewHttpServer_鉴权与限流(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "s")
	s := NewHttpServer(":0", gin.New(), nil)
	g := s.API().Group("", middleware.Auth(), middleware.RateLimit(transport.NewPlayerLimiter(1, 1)))
	g.GET("/me", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{"code": 0, "data": middleware.PlayerID(c)})
	})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, "/api/v1/me", nil))
	assert.Equal(t, nethttp.StatusUnauthorized, w.Code)

	token, err := security.Award(5, time.Hour)
	require.NoError(t, err)
	call := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(nethttp.MethodGet, "/api/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		return w
	}
	first := call()
	assert.Equal(t, nethttp.StatusOK, first.Code)
	assert.JSONEq(t, `{"code":0,"data":5}`, first.Body.String())
	assert.Equal(t, nethttp.StatusTooManyRequests, call().Code)
}

func TestCors_预检请求(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewHttpServer(":0", gin.New(), nil)
	req := httptest.NewRequest(nethttp.MethodOptions, "/api/v1/villages/1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, nethttp.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
