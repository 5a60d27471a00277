// Package metrics 提供 Prometheus 指标定义与记录器
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标集合
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// gRPC 请求计数
	GRPCRequestsTotal *prometheus.CounterVec
	// gRPC 请求耗时
	GRPCRequestDuration *prometheus.HistogramVec

	// 定价请求计数，status 取 success / error 码
	PricingRequestsTotal *prometheus.CounterVec
	// 定价耗时
	PricingDuration *prometheus.HistogramVec
	// 蒙特卡洛模拟路径总数
	MonteCarloPathsTotal prometheus.Counter
	// 到期收益率未收敛次数
	YTMFailuresTotal prometheus.Counter
	// 结果缓存查询，result 取 hit / miss
	CacheLookupsTotal *prometheus.CounterVec
}

// New 创建指标实例，service 作为常量标签
func New(serviceName string) *Metrics {
	labels := prometheus.Labels{"service": serviceName}
	return &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total HTTP requests",
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),

		GRPCRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "grpc_requests_total",
			Help:        "Total gRPC requests",
			ConstLabels: labels,
		}, []string{"method", "code"}),
		GRPCRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "grpc_request_duration_seconds",
			Help:        "gRPC request duration in seconds",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method"}),

		PricingRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "pricing_requests_total",
			Help:        "Total pricing requests by product, kind and outcome",
			ConstLabels: labels,
		}, []string{"product", "kind", "status"}),
		PricingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "pricing_duration_seconds",
			Help:        "Pricing duration in seconds",
			ConstLabels: labels,
			Buckets:     []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"product", "kind"}),
		MonteCarloPathsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "monte_carlo_paths_total",
			Help:        "Total simulated Monte Carlo paths",
			ConstLabels: labels,
		}),
		YTMFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ytm_failures_total",
			Help:        "Yield to maturity searches that did not converge",
			ConstLabels: labels,
		}),
		CacheLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "pricing_cache_lookups_total",
			Help:        "Pricing result cache lookups",
			ConstLabels: labels,
		}, []string{"result"}),
	}
}

// Register 注册所有指标以及进程/运行时采集器
func (m *Metrics) Register() error {
	metrics := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.GRPCRequestsTotal,
		m.GRPCRequestDuration,
		m.PricingRequestsTotal,
		m.PricingDuration,
		m.MonteCarloPathsTotal,
		m.YTMFailuresTotal,
		m.CacheLookupsTotal,
	}

	for _, metric := range metrics {
		if err := m.registry.Register(metric); err != nil {
			return err
		}
	}
	return nil
}

// Handler 暴露本实例注册表的 HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// MetricsCollector 指标收集器接口
type MetricsCollector interface {
	// 记录 HTTP 请求
	RecordHTTPRequest(method, path string, statusCode int, duration float64)
	// 记录 gRPC 请求
	RecordGRPCRequest(method, code string, duration float64)
	// 记录一次定价
	RecordPricing(product, kind, status string, duration float64)
	// 记录模拟路径数
	RecordMonteCarloPaths(n int)
	// 记录到期收益率未收敛
	RecordYTMFailure()
	// 记录缓存查询
	RecordCacheLookup(hit bool)
}

// DefaultMetricsCollector 默认指标收集器实现
type DefaultMetricsCollector struct {
	metrics *Metrics
}

// NewDefaultMetricsCollector 创建默认指标收集器
func NewDefaultMetricsCollector(metrics *Metrics) *DefaultMetricsCollector {
	return &DefaultMetricsCollector{
		metrics: metrics,
	}
}

// RecordHTTPRequest 记录 HTTP 请求
func (dmc *DefaultMetricsCollector) RecordHTTPRequest(method, path string, statusCode int, duration float64) {
	dmc.metrics.HTTPRequestsTotal.WithLabelValues(method, path, http.StatusText(statusCode)).Inc()
	dmc.metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordGRPCRequest 记录 gRPC 请求
func (dmc *DefaultMetricsCollector) RecordGRPCRequest(method, code string, duration float64) {
	dmc.metrics.GRPCRequestsTotal.WithLabelValues(method, code).Inc()
	dmc.metrics.GRPCRequestDuration.WithLabelValues(method).Observe(duration)
}

// RecordPricing 记录一次定价
func (dmc *DefaultMetricsCollector) RecordPricing(product, kind, status string, duration float64) {
	dmc.metrics.PricingRequestsTotal.WithLabelValues(product, kind, status).Inc()
	dmc.metrics.PricingDuration.WithLabelValues(product, kind).Observe(duration)
}

// RecordMonteCarloPaths 记录模拟路径数
func (dmc *DefaultMetricsCollector) RecordMonteCarloPaths(n int) {
	dmc.metrics.MonteCarloPathsTotal.Add(float64(n))
}

// RecordYTMFailure 记录到期收益率未收敛
func (dmc *DefaultMetricsCollector) RecordYTMFailure() {
	dmc.metrics.YTMFailuresTotal.Inc()
}

// RecordCacheLookup 记录缓存查询
func (dmc *DefaultMetricsCollector) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	dmc.metrics.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// NoopCollector 不记录任何指标
type NoopCollector struct{}

func (NoopCollector) RecordHTTPRequest(string, string, int, float64) {}
func (NoopCollector) RecordGRPCRequest(string, string, float64) {}
func (NoopCollector) RecordPricing(string, string, string, float64) {}
func (NoopCollector) RecordMonteCarloPaths(int) {}
func (NoopCollector) RecordYTMFailure() {}
func (NoopCollector) RecordCacheLookup(bool) {}
