package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"github.com/lk2023060901/vfemart/pkg/logger"
	"github.com/lk2023060901/vfemart/pkg/otel"
)

func TestTracing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := tracetest.NewSpanRecorder()
	tp, err := otel.New(&otel.Config{Enabled: true, ExporterType: otel.ExporterTypeNoop}, otel.WithSpanProcessor(recorder))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Close() })

	var fields []zap.Field
	r := gin.New()
	r.Use(Tracing(tp, "vfe"))
	r.GET("/api/v1/items/:brand/:item", func(c *gin.Context) {
		fields = logger.DefaultContextExtractor(c.Request.Context())
		c.String(http.StatusNotFound, "missing")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/items/1/2", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "GET /api/v1/items/:brand/:item", span.Name())
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Contains(t, span.Attributes(), attribute.Int("http.status_code", http.StatusNotFound))
	assert.Contains(t, span.Attributes(), attribute.String("http.route", "/api/v1/items/:brand/:item"))

	require.Len(t, fields, 1)
	assert.Equal(t, "trace_id", fields[0].Key)
	assert.Equal(t, span.SpanContext().TraceID().String(), fields[0].String)
}

func TestTracingDisabledProvider(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tp, err := otel.New(&otel.Config{Enabled: false})
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())

	r := gin.New()
	r.Use(Tracing(tp, "vfe"))
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(&CORSConfig{AllowOrigins: []string{"https://app.example.com"}}))
	r.GET("/api/v1/brands", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/brands", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/brands", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
