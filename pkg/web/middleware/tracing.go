package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/vfemart/pkg/logger"
	"github.com/lk2023060901/vfemart/pkg/otel"
)

// Tracing 为每个请求创建 Server Span，并把 trace_id 写入日志上下文
func Tracing(tp *otel.TracerProvider, serviceName string) gin.HandlerFunc {
	tracer := tp.Tracer("web")
	propagator := otel.GetTextMapPropagator()

	return func(c *gin.Context) {
		ctx := propagator.Extract(c.Request.Context(), otel.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		spanName := fmt.Sprintf("%s %s", c.Request.Method, route)
		if route == "" {
			spanName = fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path)
		}

		ctx, span := tracer.Start(ctx, spanName,
			otel.WithSpanKind(otel.SpanKindServer),
			otel.WithAttributes(
				otel.String("http.method", c.Request.Method),
				otel.String("http.path", c.Request.URL.Path),
				otel.String("http.route", route),
				otel.String("service.name", serviceName),
			),
		)
		defer span.End()

		if sc := span.SpanContext(); sc.IsValid() {
			ctx = logger.ContextWithFields(ctx, "trace_id", sc.TraceID().String())
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(otel.Int("http.status_code", status))
		if sub := GetSubject(c); sub != "" {
			span.SetAttributes(otel.String("enduser.id", sub))
		}
		if status >= 400 {
			span.SetStatus(otel.CodeError, fmt.Sprintf("HTTP status %d", status))
		} else {
			span.SetStatus(otel.CodeOk, "")
		}
		if len(c.Errors) > 0 {
			span.RecordError(c.Errors.Last().Err)
		}
	}
}
