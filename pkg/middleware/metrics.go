package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/derivpricing/pkg/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// HTTPMetricsMiddleware 采集 HTTP 请求指标，path 取路由模板
func HTTPMetricsMiddleware(collector metrics.MetricsCollector, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		collector.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start).Seconds())
	}
}

// GRPCMetricsInterceptor 采集 gRPC 请求指标
func GRPCMetricsInterceptor(collector metrics.MetricsCollector) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		collector.RecordGRPCRequest(info.FullMethod, status.Code(err).String(), time.Since(start).Seconds())
		return resp, err
	}
}
