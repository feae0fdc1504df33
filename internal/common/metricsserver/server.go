package metricsserver

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/educationmalaysia/seo-server/internal/common/configtypes"
)

const (
	HealthPath = "/health"
	ReadyPath  = "/ready"

	readyCheckTimeout = 2 * time.Second
)

// MetricsHandler interface for metrics collectors
type MetricsHandler interface {
	ServeHTTP(ctx *fasthttp.RequestCtx)
}

// ReadyFunc reports whether the server's dependencies are usable. nil means always ready.
type ReadyFunc func(ctx context.Context) error

// StartMetricsServer starts the operational listener serving metrics,
// liveness and readiness. Returns nil when metrics are disabled.
func StartMetricsServer(
	cfg configtypes.MetricsConfig,
	metricsHandler MetricsHandler,
	ready ReadyFunc,
	logger *zap.Logger,
) (*fasthttp.Server, error) {
	if !cfg.Enabled {
		logger.Info("Metrics collection disabled")
		return nil, nil
	}

	metricsServer := &fasthttp.Server{
		Handler:            NewHandler(cfg.Path, metricsHandler, ready, logger),
		Name:               "SEOServer-Metrics",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		MaxRequestBodySize: 1 * 1024,
		TCPKeepalive:       true,
		TCPKeepalivePeriod: 30 * time.Second,
		MaxConnsPerIP:      100,
		MaxRequestsPerConn: 1000,
		Concurrency:        100,
	}

	go func() {
		logger.Info("Metrics server listening",
			zap.String("listen", cfg.Listen),
			zap.String("path", cfg.Path))

		if err := metricsServer.ListenAndServe(cfg.Listen); err != nil {
			logger.Error("Metrics server stopped",
				zap.String("listen", cfg.Listen),
				zap.Error(err))
		}
	}()

	return metricsServer, nil
}

// NewHandler routes metricsPath, /health and /ready
func NewHandler(metricsPath string, metrics MetricsHandler, ready ReadyFunc, logger *zap.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case metricsPath:
			metrics.ServeHTTP(ctx)
		case HealthPath:
			writeText(ctx, fasthttp.StatusOK, "OK")
		case ReadyPath:
			if ready != nil {
				checkCtx, cancel := context.WithTimeout(context.Background(), readyCheckTimeout)
				err := ready(checkCtx)
				cancel()
				if err != nil {
					logger.Warn("Readiness check failed", zap.Error(err))
					writeText(ctx, fasthttp.StatusServiceUnavailable, "not ready: "+err.Error())
					return
				}
			}
			writeText(ctx, fasthttp.StatusOK, "OK")
		default:
			writeText(ctx, fasthttp.StatusNotFound, "Not Found")
		}
	}
}

func writeText(ctx *fasthttp.RequestCtx, status int, body string) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("text/plain; charset=utf-8")
	ctx.SetBodyString(body)
}
