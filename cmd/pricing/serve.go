package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	grpchandler "github.com/wyfcoding/derivpricing/internal/pricing/interfaces/grpc"
	httphandler "github.com/wyfcoding/derivpricing/internal/pricing/interfaces/http"
	"github.com/wyfcoding/derivpricing/pkg/config"
	"github.com/wyfcoding/derivpricing/pkg/logger"
	"github.com/wyfcoding/derivpricing/pkg/middleware"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and gRPC pricing servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithDefaults(*configPath)
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.Logger); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	app, err := initService(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	var limiter *rate.Limiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewLimiter(cfg.RateLimit.QPS, cfg.RateLimit.Burst)
	}

	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      registerGin(app, limiter),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	var (
		grpcServer *grpc.Server
		grpcLis    net.Listener
	)
	if cfg.GRPC.Enabled {
		if grpcLis, err = net.Listen("tcp", cfg.GRPC.Addr()); err != nil {
			return err
		}
		grpcServer = registerGRPC(app, limiter)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(gctx, "HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if grpcServer != nil {
		g.Go(func() error {
			logger.Info(gctx, "gRPC server listening", "addr", cfg.GRPC.Addr())
			return grpcServer.Serve(grpcLis)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "shutting down servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func registerGin(app *AppContext, limiter *rate.Limiter) *gin.Engine {
	if app.Config.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	e := gin.New()
	e.Use(
		middleware.GinRecoveryMiddleware(),
		middleware.RequestID(),
		middleware.GinLoggingMiddleware(),
		middleware.GinCORSMiddleware(),
		middleware.HTTPMetricsMiddleware(app.Collector, "/health", app.Config.Metrics.Path),
		middleware.GinRateLimitMiddleware(limiter),
	)

	httphandler.NewPricingHandler(app.Service, app.Config.ServiceName).RegisterRoutes(e)
	if app.Metrics != nil {
		e.GET(app.Config.Metrics.Path, gin.WrapH(app.Metrics.Handler()))
	}
	return e
}

func registerGRPC(app *AppContext, limiter *rate.Limiter) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(
		middleware.GRPCRecoveryInterceptor(),
		middleware.GRPCLoggingInterceptor(),
		middleware.GRPCMetricsInterceptor(app.Collector),
		middleware.GRPCRateLimitInterceptor(limiter),
	))
	grpchandler.RegisterPricingServiceServer(s, grpchandler.NewHandler(app.Service))
	return s
}
