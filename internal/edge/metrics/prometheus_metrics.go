package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

// Request kinds used as the "kind" label
const (
	KindPage    = "page"
	KindStatic  = "static"
	KindHeadAPI = "head_api"
)

// PrometheusMetrics holds the SEO server's Prometheus collectors
type PrometheusMetrics struct {
	// Request metrics
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeRequests  prometheus.Gauge

	// Upstream content API
	upstreamFetchTotal    *prometheus.CounterVec
	upstreamFetchDuration *prometheus.HistogramVec

	// Payload cache
	payloadCacheHits     prometheus.Counter
	payloadCacheMisses   prometheus.Counter
	payloadCacheHitRatio prometheus.Gauge

	errorRate *prometheus.CounterVec

	logger      *zap.Logger
	httpHandler func(*fasthttp.RequestCtx)
}

// NewPrometheusMetrics registers collectors with the default registry
func NewPrometheusMetrics(namespace string, logger *zap.Logger) *PrometheusMetrics {
	return NewPrometheusMetricsWithRegistry(namespace, prometheus.DefaultRegisterer, logger)
}

// NewPrometheusMetricsWithRegistry registers collectors with registerer
func NewPrometheusMetricsWithRegistry(namespace string, registerer prometheus.Registerer, logger *zap.Logger) *PrometheusMetrics {
	pm := &PrometheusMetrics{
		logger: logger,
	}

	pm.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of requests served",
		},
		[]string{"kind", "page_type", "status"},
	)

	pm.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time taken to serve requests, including the upstream SEO fetch",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind", "page_type", "status"},
	)

	pm.activeRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "active_requests",
			Help:      "Number of requests currently being served",
		},
	)

	pm.upstreamFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "fetch_total",
			Help:      "Total number of content API fetches by result",
		},
		[]string{"result"}, // ok, no_seo, http_error, network_error, timeout, invalid_json
	)

	pm.upstreamFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "fetch_duration_seconds",
			Help:      "Time taken by content API fetches",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"result"},
	)

	pm.payloadCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payload_cache",
			Name:      "hits_total",
			Help:      "Total number of SEO payload cache hits",
		},
	)

	pm.payloadCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payload_cache",
			Name:      "misses_total",
			Help:      "Total number of SEO payload cache misses",
		},
	)

	pm.payloadCacheHitRatio = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "payload_cache",
			Name:      "hit_ratio",
			Help:      "SEO payload cache hit ratio (0-1)",
		},
	)

	pm.errorRate = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Total number of errors by type",
		},
		[]string{"error_type"},
	)

	registerer.MustRegister(
		pm.requestsTotal,
		pm.requestDuration,
		pm.activeRequests,
		pm.upstreamFetchTotal,
		pm.upstreamFetchDuration,
		pm.payloadCacheHits,
		pm.payloadCacheMisses,
		pm.payloadCacheHitRatio,
		pm.errorRate,
	)

	gatherer, ok := registerer.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}
	pm.httpHandler = fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	logger.Debug("Prometheus metrics initialized")
	return pm
}

// RecordRequest records a served request with timing
func (pm *PrometheusMetrics) RecordRequest(kind, pageType string, statusCode int, duration time.Duration) {
	status := getStatusCodeRange(statusCode)
	pm.requestsTotal.WithLabelValues(kind, pageType, status).Inc()
	pm.requestDuration.WithLabelValues(kind, pageType, status).Observe(duration.Seconds())
}

// getStatusCodeRange converts a status code to a range label (2xx, 3xx, 4xx, 5xx)
func getStatusCodeRange(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	default:
		return "unknown"
	}
}

// RecordUpstreamFetch records one content API fetch
func (pm *PrometheusMetrics) RecordUpstreamFetch(result string, duration time.Duration) {
	pm.upstreamFetchTotal.WithLabelValues(result).Inc()
	pm.upstreamFetchDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordPayloadCacheHit records a cache hit and updates the hit ratio
func (pm *PrometheusMetrics) RecordPayloadCacheHit() {
	pm.payloadCacheHits.Inc()
	pm.updateCacheHitRatio()
}

// RecordPayloadCacheMiss records a cache miss and updates the hit ratio
func (pm *PrometheusMetrics) RecordPayloadCacheMiss() {
	pm.payloadCacheMisses.Inc()
	pm.updateCacheHitRatio()
}

// RecordError records an error by type
func (pm *PrometheusMetrics) RecordError(errorType string) {
	pm.errorRate.WithLabelValues(errorType).Inc()
}

// IncActiveRequests increments active request counter
func (pm *PrometheusMetrics) IncActiveRequests() {
	pm.activeRequests.Inc()
}

// DecActiveRequests decrements active request counter
func (pm *PrometheusMetrics) DecActiveRequests() {
	pm.activeRequests.Dec()
}

// ServeHTTP serves Prometheus metrics via HTTP
func (pm *PrometheusMetrics) ServeHTTP(ctx *fasthttp.RequestCtx) {
	pm.httpHandler(ctx)
}

func (pm *PrometheusMetrics) updateCacheHitRatio() {
	hits := pm.getCounterValue(pm.payloadCacheHits)
	misses := pm.getCounterValue(pm.payloadCacheMisses)

	total := hits + misses
	if total > 0 {
		pm.payloadCacheHitRatio.Set(hits / total)
	}
}

// getCounterValue reads a counter through its metric DTO
func (pm *PrometheusMetrics) getCounterValue(counter prometheus.Counter) float64 {
	metric := &dto.Metric{}
	if err := counter.Write(metric); err != nil {
		pm.logger.Warn("Failed to read counter value", zap.Error(err))
		return 0
	}
	return metric.GetCounter().GetValue()
}
