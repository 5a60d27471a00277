package middleware

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/derivpricing/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	mdRequestID = "x-request-id"
	mdTraceID   = "x-trace-id"
)

// GRPCLoggingInterceptor gRPC 日志拦截器，request id 与 trace id 优先取 metadata
func GRPCLoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := fromMetadata(ctx, mdRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		traceID := fromMetadata(ctx, mdTraceID)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		ctx = withIDs(ctx, requestID, traceID)

		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)

		if err != nil {
			st, _ := status.FromError(err)
			logger.Warn(ctx, "gRPC request failed",
				"method", info.FullMethod,
				"error_code", st.Code().String(),
				"error_message", st.Message(),
				"duration", duration,
			)
		} else {
			logger.Info(ctx, "gRPC request completed",
				"method", info.FullMethod,
				"duration", duration,
			)
		}

		return resp, err
	}
}

func fromMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
