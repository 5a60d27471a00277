// Package middleware 提供 Gin 与 gRPC 的通用中间件（request id、日志、panic recover、限流、指标）
package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wyfcoding/derivpricing/pkg/logger"
)

const (
	HeaderXRequestID = "X-Request-ID"
	HeaderXTraceID   = "X-Trace-ID"
)

// RequestID 生成或透传 request id 与 trace id，写入请求 context 与响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		traceID := c.GetHeader(HeaderXTraceID)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Request = c.Request.WithContext(withIDs(c.Request.Context(), requestID, traceID))
		c.Header(HeaderXRequestID, requestID)
		c.Next()
	}
}

func withIDs(ctx context.Context, requestID, traceID string) context.Context {
	ctx = logger.WithRequestID(ctx, requestID)
	ctx = logger.WithTraceID(ctx, traceID)
	return logger.WithSpanID(ctx, uuid.NewString())
}

// GinLoggingMiddleware Gin 日志中间件
func GinLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"client_ip", c.ClientIP(),
			"status_code", status,
			"response_size", c.Writer.Size(),
			"duration", time.Since(start),
		}
		if status >= 500 {
			logger.Error(ctx, "HTTP request completed", args...)
			return
		}
		logger.Info(ctx, "HTTP request completed", args...)
	}
}

// GinCORSMiddleware Gin CORS 中间件
func GinCORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
