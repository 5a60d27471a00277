package main

import (
	"context"

	"github.com/wyfcoding/derivpricing/internal/pricing/application"
	"github.com/wyfcoding/derivpricing/internal/pricing/domain"
	"github.com/wyfcoding/derivpricing/internal/pricing/infrastructure/messaging"
	rediscache "github.com/wyfcoding/derivpricing/internal/pricing/infrastructure/persistence/redis"
	"github.com/wyfcoding/derivpricing/pkg/cache"
	"github.com/wyfcoding/derivpricing/pkg/config"
	"github.com/wyfcoding/derivpricing/pkg/logger"
	"github.com/wyfcoding/derivpricing/pkg/metrics"
	"github.com/wyfcoding/derivpricing/pkg/mq"
)

// AppContext 服务依赖
type AppContext struct {
	Config    *config.Config
	Service   *application.PricingService
	Metrics   *metrics.Metrics
	Collector metrics.MetricsCollector
	cleanups  []func()
}

// Close 按注册的逆序释放资源
func (a *AppContext) Close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
}

// initService 组装定价服务；Redis 与 Kafka 不可用时降级为无缓存、日志事件
func initService(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	app := &AppContext{Config: cfg, Collector: metrics.NoopCollector{}}

	if cfg.Metrics.Enabled {
		m := metrics.New(cfg.ServiceName)
		if err := m.Register(); err != nil {
			return nil, err
		}
		app.Metrics = m
		app.Collector = metrics.NewDefaultMetricsCollector(m)
	}

	var resultCache domain.ResultCache
	if cfg.Redis.Enabled {
		rc, err := cache.New(ctx, cache.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			logger.Warn(ctx, "redis unavailable, result cache disabled", "error", err)
		} else {
			resultCache = rediscache.NewPricingResultCache(rc)
			app.cleanups = append(app.cleanups, func() { _ = rc.Close() })
		}
	}

	var publisher domain.EventPublisher = messaging.LogEventPublisher{}
	if cfg.Kafka.Enabled {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: 100,
			BatchTimeout: 10,
		})
		if err != nil {
			return nil, err
		}
		publisher = messaging.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
		app.cleanups = append(app.cleanups, func() { _ = producer.Close() })
	}

	app.Service = application.NewPricingService(pricingOptions(cfg), resultCache, publisher, app.Collector)
	return app, nil
}

func pricingOptions(cfg *config.Config) application.Options {
	opts := application.DefaultOptions()
	p := cfg.Pricing
	opts.MonteCarlo = domain.MonteCarloConfig{
		Paths:   p.NumPaths,
		Steps:   p.NumSteps,
		Seed:    p.Seed,
		Workers: p.Workers,
	}
	opts.MaxPaths = p.MaxPaths
	opts.MaxSteps = p.MaxSteps
	opts.ResultPrecision = p.ResultPrecision
	opts.Timeout = p.Timeout()
	if cfg.Redis.TTLSeconds > 0 {
		opts.CacheTTL = cfg.Redis.TTL()
	}
	return opts
}
