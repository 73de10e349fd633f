package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/vfemart/pkg/cache/lru"
	"github.com/lk2023060901/vfemart/pkg/logger"
	weberrors "github.com/lk2023060901/vfemart/pkg/web/errors"
)

func newLimitedEngine(t *testing.T, cfg *RateLimitConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg.Limiters = lru.Config{MaxSize: 16, TTL: time.Minute, CleanupInterval: -1}
	rl := NewRateLimiter(cfg, logger.NewNoop())
	t.Cleanup(func() { _ = rl.Close() })

	r := gin.New()
	r.Use(RateLimit(rl))
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.POST("/api/v1/reports", ok)
	r.POST("/api/v1/bindings", ok)
	r.GET("/api/v1/brands", ok)
	r.GET("/health", ok)
	return r
}

func send(r *gin.Engine, method, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = ip + ":4000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitPerIP(t *testing.T) {
	r := newLimitedEngine(t, &RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 0.001,
		Burst:             2,
		PerIP:             true,
		Paths:             []string{"/api/v1/reports", "/api/v1/bindings"},
	})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, send(r, http.MethodPost, "/api/v1/reports", "10.0.0.1").Code)
	}
	w := send(r, http.MethodPost, "/api/v1/reports", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limited")
	assert.Contains(t, w.Body.String(), strconv.Itoa(weberrors.CodeResourceExhausted))

	// 同一 IP 的各受限路径共用令牌
	assert.Equal(t, http.StatusTooManyRequests, send(r, http.MethodPost, "/api/v1/bindings", "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send(r, http.MethodPost, "/api/v1/reports", "10.0.0.2").Code)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, send(r, http.MethodGet, "/api/v1/brands", "10.0.0.1").Code)
	}
}

func TestRateLimitPerPathAndSkip(t *testing.T) {
	r := newLimitedEngine(t, &RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 0.001,
		Burst:             1,
		PerIP:             true,
		PerPath:           true,
		SkipPaths:         []string{"/health"},
	})

	assert.Equal(t, http.StatusOK, send(r, http.MethodPost, "/api/v1/reports", "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send(r, http.MethodPost, "/api/v1/bindings", "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, send(r, http.MethodPost, "/api/v1/reports", "10.0.0.1").Code)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, send(r, http.MethodGet, "/health", "10.0.0.1").Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	r := newLimitedEngine(t, &RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, send(r, http.MethodPost, "/api/v1/reports", "10.0.0.1").Code)
	}
}

func TestRateLimitWaitMode(t *testing.T) {
	r := newLimitedEngine(t, &RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 0.001,
		Burst:             1,
		PerIP:             true,
		WaitMode:          true,
		WaitTimeout:       20 * time.Millisecond,
	})
	assert.Equal(t, http.StatusOK, send(r, http.MethodPost, "/api/v1/reports", "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, send(r, http.MethodPost, "/api/v1/reports", "10.0.0.1").Code)
}

func TestRateLimiterKeys(t *testing.T) {
	rl := NewRateLimiter(&RateLimitConfig{
		RequestsPerSecond: 0.001,
		Burst:             1,
		Limiters:          lru.Config{MaxSize: 1, CleanupInterval: -1},
	}, logger.NewNoop())
	defer rl.Close()

	require.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	require.True(t, rl.Allow("b"))
	// 容量为 1，b 挤掉了 a 的限流器
	assert.True(t, rl.Allow("a"))
	assert.Equal(t, 1, rl.limiters.Len())
}
