package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// MetricsCollector centralizes metrics recording and debug logging
type MetricsCollector struct {
	prometheus *PrometheusMetrics
	logger     *zap.Logger
}

// NewMetricsCollector creates a collector registered with the default registry
func NewMetricsCollector(namespace string, logger *zap.Logger) *MetricsCollector {
	return &MetricsCollector{
		prometheus: NewPrometheusMetrics(namespace, logger),
		logger:     logger,
	}
}

// NewMetricsCollectorWithRegistry creates a collector registered with registerer
func NewMetricsCollectorWithRegistry(namespace string, registerer prometheus.Registerer, logger *zap.Logger) *MetricsCollector {
	return &MetricsCollector{
		prometheus: NewPrometheusMetricsWithRegistry(namespace, registerer, logger),
		logger:     logger,
	}
}

// RecordRequest records a served request with timing
func (mc *MetricsCollector) RecordRequest(kind, pageType string, statusCode int, duration time.Duration) {
	mc.prometheus.RecordRequest(kind, pageType, statusCode, duration)

	mc.logger.Debug("Recorded request metric",
		zap.String("kind", kind),
		zap.String("page_type", pageType),
		zap.Int("status_code", statusCode),
		zap.Duration("duration", duration))
}

// RecordUpstreamFetch records one content API fetch
func (mc *MetricsCollector) RecordUpstreamFetch(result string, duration time.Duration) {
	mc.prometheus.RecordUpstreamFetch(result, duration)

	mc.logger.Debug("Recorded upstream fetch metric",
		zap.String("result", result),
		zap.Duration("duration", duration))
}

// RecordPayloadCache records a payload cache lookup
func (mc *MetricsCollector) RecordPayloadCache(hit bool) {
	if hit {
		mc.prometheus.RecordPayloadCacheHit()
	} else {
		mc.prometheus.RecordPayloadCacheMiss()
	}
}

// RecordError records an error by type
func (mc *MetricsCollector) RecordError(errorType string) {
	mc.prometheus.RecordError(errorType)

	mc.logger.Debug("Recorded error metric", zap.String("error_type", errorType))
}

// IncActiveRequests increments active request counter
func (mc *MetricsCollector) IncActiveRequests() {
	mc.prometheus.IncActiveRequests()
}

// DecActiveRequests decrements active request counter
func (mc *MetricsCollector) DecActiveRequests() {
	mc.prometheus.DecActiveRequests()
}

// ServeHTTP serves Prometheus metrics via HTTP
func (mc *MetricsCollector) ServeHTTP(ctx *fasthttp.RequestCtx) {
	mc.prometheus.ServeHTTP(ctx)
}
