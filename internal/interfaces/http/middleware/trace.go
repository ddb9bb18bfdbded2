package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"article-forge-api/pkg/logger"
	"article-forge-api/pkg/tracer"
)

// Trace OpenTelemetry 追踪中间件，skipPaths（健康检查、指标抓取）不产生 Span
func Trace(serviceName string, skipPaths ...string) []gin.HandlerFunc {
	filter := func(r *http.Request) bool {
		return !slices.Contains(skipPaths, r.URL.Path)
	}
	return []gin.HandlerFunc{
		otelgin.Middleware(serviceName, otelgin.WithFilter(filter)),
		traceContext(),
	}
}

// traceContext 把 trace_id/span_id 写入日志上下文与响应头
func traceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if traceID := tracer.TraceID(ctx); traceID != "" {
			ctx = logger.WithContext(ctx, logger.TraceIDKey, traceID)
			ctx = logger.WithContext(ctx, logger.SpanIDKey, tracer.SpanID(ctx))
			c.Request = c.Request.WithContext(ctx)
			c.Header("X-Trace-ID", traceID)
		}
		c.Next()
	}
}
