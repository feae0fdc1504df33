package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/educationmalaysia/seo-server/internal/common/config"
	"github.com/educationmalaysia/seo-server/internal/common/configtypes"
	"github.com/educationmalaysia/seo-server/internal/common/logger"
	"github.com/educationmalaysia/seo-server/internal/common/metricsserver"
	"github.com/educationmalaysia/seo-server/internal/common/redis"
	"github.com/educationmalaysia/seo-server/internal/edge/configtest"
	"github.com/educationmalaysia/seo-server/internal/edge/events"
	"github.com/educationmalaysia/seo-server/internal/edge/metrics"
	"github.com/educationmalaysia/seo-server/internal/edge/server"
	edgetls "github.com/educationmalaysia/seo-server/internal/edge/tls"
	"github.com/educationmalaysia/seo-server/internal/edge/validate"
	"github.com/educationmalaysia/seo-server/internal/seo/fetcher"
	"github.com/educationmalaysia/seo-server/internal/seo/head"
	"github.com/educationmalaysia/seo-server/internal/seo/payloadcache"
	"github.com/educationmalaysia/seo-server/internal/seo/pipeline"
	"github.com/educationmalaysia/seo-server/internal/seo/synth"
	"github.com/educationmalaysia/seo-server/pkg/pattern"
)

const defaultConfigPath = "configs/seo-server.yaml"

func main() {
	configPath := flag.String("c", defaultConfigPath, "path to configuration file")
	testMode := flag.Bool("t", false, "test configuration and exit; an optional URL argument is resolved")
	liveFetch := flag.Bool("fetch", false, "with -t, query the content API for the tested URL")
	flag.Parse()

	// The default path may be absent: the server then runs on built-in
	// defaults plus environment variables. An explicit -c must exist.
	optional := true
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "c" {
			optional = false
		}
	})

	if *testMode {
		var testURL string
		if flag.NArg() > 0 {
			testURL = flag.Arg(0)
		}
		os.Exit(runConfigTest(*configPath, optional, testURL, *liveFetch))
	}

	initialLogger, err := logger.NewDefaultLogger()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	initialLogger.Info("Starting SEO server", zap.String("config_path", *configPath))

	configManager, err := config.NewConfigManager(*configPath, optional, initialLogger.Logger)
	if err != nil {
		initialLogger.Fatal("Failed to create config manager", zap.Error(err))
	}

	cfg := configManager.GetConfig()

	dynamicLogger, err := logger.NewLoggerWithStartupOverride(cfg.Log)
	if err != nil {
		initialLogger.Fatal("Failed to create configured logger", zap.Error(err))
	}
	defer dynamicLogger.Sync()

	instanceID := instanceName()
	seoLogger := dynamicLogger.With(zap.String("instance", instanceID))

	metricsCollector := metrics.NewMetricsCollector(cfg.Metrics.Namespace, seoLogger)

	fetcherOpts := []fetcher.Option{fetcher.WithRecorder(metricsCollector)}

	// Payload cache is optional; Redis is only dialled when it is enabled
	var redisClient *redis.Client
	var ready metricsserver.ReadyFunc
	if cfg.Cache.Enabled {
		redisClient, err = redis.NewClient(&cfg.Redis, seoLogger)
		if err != nil {
			seoLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()

		fetcherOpts = append(fetcherOpts, fetcher.WithCache(payloadcache.New(redisClient, cfg.Cache, seoLogger)))
		ready = redisClient.HealthCheck
		seoLogger.Info("SEO payload cache enabled",
			zap.String("redis", cfg.Redis.Addr),
			zap.Duration("ttl", cfg.Cache.TTL.ToDuration()),
			zap.String("compression", cfg.Cache.Compression))
	}

	metricsServer, err := metricsserver.StartMetricsServer(cfg.Metrics, metricsCollector, ready, seoLogger)
	if err != nil {
		seoLogger.Fatal("Failed to start metrics server", zap.Error(err))
	}

	seoPipeline, err := newPipeline(cfg, fetcher.New(cfg.Upstream, seoLogger, fetcherOpts...), seoLogger)
	if err != nil {
		seoLogger.Fatal("Failed to build SEO pipeline", zap.Error(err))
	}
	if cfg.Upstream.BaseURL == "" {
		seoLogger.Warn("No upstream base URL configured, pages use path-derived tags only")
	}

	eventEmitter, err := events.NewFromConfig(cfg.EventLogging, seoLogger)
	if err != nil {
		seoLogger.Fatal("Failed to create event emitter", zap.Error(err))
	}

	srv, err := server.NewServer(cfg.Server, seoPipeline, metricsCollector, eventEmitter, seoLogger, instanceID)
	if err != nil {
		seoLogger.Fatal("Failed to create server", zap.Error(err))
	}

	logShellAudit(cfg.Server, seoLogger)

	// Create TLS listener before starting public servers to fail fast
	var tlsListener net.Listener
	if cfg.Server.TLS.Enabled {
		tlsListener, err = edgetls.Listen(cfg.Server.TLS, filepath.Dir(*configPath))
		if err != nil {
			seoLogger.Fatal("Failed to create TLS listener", zap.Error(err))
		}
	}

	serverErrors := make(chan error, 2)

	timeout := cfg.Server.Timeout.ToDuration()
	httpLifecycle := &serverLifecycle{
		server:  newFastHTTPServer(srv.HandleRequest, timeout),
		name:    "HTTP",
		address: cfg.Server.Listen,
		logger:  seoLogger,
	}
	httpLifecycle.StartWithErrorChan(serverErrors)

	var httpsLifecycle *serverLifecycle
	if tlsListener != nil {
		httpsLifecycle = &serverLifecycle{
			server:   newFastHTTPServer(srv.HandleRequest, timeout),
			listener: tlsListener,
			name:     "HTTPS",
			address:  cfg.Server.TLS.Listen,
			logger:   seoLogger,
		}
		httpsLifecycle.StartWithErrorChan(serverErrors)
	}

	// Wait briefly for servers to start and check for immediate failures
	time.Sleep(100 * time.Millisecond)
	select {
	case err := <-serverErrors:
		seoLogger.Fatal("Server failed to start", zap.Error(err))
	default:
	}

	seoLogger.Info("SEO server started",
		zap.String("http_addr", cfg.Server.Listen),
		zap.Bool("tls", tlsListener != nil),
		zap.String("site", cfg.Site.URL),
		zap.String("upstream", cfg.Upstream.BaseURL),
		zap.String("dist_dir", cfg.Server.DistDir))

	dynamicLogger.SwitchToConfiguredLevel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		dynamicLogger.EnsureInfoLevelForShutdown()
		seoLogger.Info("Shutting down SEO server...")
	case err := <-serverErrors:
		dynamicLogger.EnsureInfoLevelForShutdown()
		seoLogger.Error("Server failed, initiating shutdown", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		seoLogger.Info("Shutting down metrics server")
		if err := metricsServer.ShutdownWithContext(shutdownCtx); err != nil {
			seoLogger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	// Shutdown public servers in parallel
	var wg sync.WaitGroup
	for _, lc := range []*serverLifecycle{httpLifecycle, httpsLifecycle} {
		if lc == nil {
			continue
		}
		wg.Add(1)
		go func(lc *serverLifecycle) {
			defer wg.Done()
			lc.Shutdown(shutdownCtx)
		}(lc)
	}
	wg.Wait()
	seoLogger.Info("Public servers shutdown complete")

	if err := srv.Shutdown(); err != nil {
		seoLogger.Error("Failed to close event emitter", zap.Error(err))
	}

	seoLogger.Info("SEO server stopped")
}

// newPipeline wires classification, synthesis and head rendering around f.
// A nil f resolves every page from its path alone.
func newPipeline(cfg *configtypes.SeoConfig, f pipeline.PayloadFetcher, logger *zap.Logger) (*pipeline.Pipeline, error) {
	noindex, err := pattern.CompileSet(cfg.Robots.NoIndex)
	if err != nil {
		return nil, fmt.Errorf("invalid robots.noindex: %w", err)
	}

	s := synth.New(synth.SiteFromConfig(cfg.Site))
	return pipeline.New(f, s, head.NewRenderer(s, cfg.Site, noindex), logger), nil
}

func logShellAudit(cfg configtypes.ServerConfig, logger *zap.Logger) {
	result := configtest.TestShell(cfg)
	if result.Error != "" {
		logger.Warn("SPA shell not readable, pages will fail until it is built",
			zap.String("path", result.Path),
			zap.String("error", result.Error))
		return
	}
	for _, warning := range result.Audit.Warnings {
		logger.Warn("SPA shell check", zap.String("path", result.Path), zap.String("detail", warning))
	}
}

func instanceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "seo-server"
	}
	return host
}

const serverName = "SEOServer/1.0"

func newFastHTTPServer(handler fasthttp.RequestHandler, timeout time.Duration) *fasthttp.Server {
	return &fasthttp.Server{
		Handler:                      handler,
		Name:                         serverName,
		ReadTimeout:                  timeout,
		WriteTimeout:                 timeout,
		IdleTimeout:                  timeout,
		DisablePreParseMultipartForm: true,
		NoDefaultServerHeader:        true,
		NoDefaultDate:                true,
	}
}

type serverLifecycle struct {
	server   *fasthttp.Server
	listener net.Listener // nil for HTTP (uses ListenAndServe), set for HTTPS
	name     string
	address  string
	logger   *zap.Logger
}

func (s *serverLifecycle) StartWithErrorChan(errChan chan<- error) {
	go func() {
		var err error
		if s.listener != nil {
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe(s.address)
		}
		if err != nil {
			s.logger.Error("Server error", zap.String("name", s.name), zap.Error(err))
			if errChan != nil {
				errChan <- fmt.Errorf("%s server failed: %w", s.name, err)
			}
		}
	}()
	s.logger.Info("Server started", zap.String("name", s.name), zap.String("address", s.address))
}

func (s *serverLifecycle) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server", zap.String("name", s.name))
	err := s.server.ShutdownWithContext(ctx)
	if err != nil {
		s.logger.Error("Server shutdown error", zap.String("name", s.name), zap.Error(err))
	}
	return err
}

// runConfigTest validates the configuration, audits the shell and
// optionally resolves testURL
func runConfigTest(configPath string, optional bool, testURL string, liveFetch bool) int {
	result, cfg, err := config.ValidateConfiguration(configPath, optional, os.LookupEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation error: %v\n", err)
		return 1
	}

	if !result.Valid {
		fmt.Println("Configuration validation FAILED:")
		printFindings(result.Errors)
		return 1
	}

	fmt.Printf("configuration file %s syntax is ok\n", result.ConfigPath)

	if len(result.Warnings) > 0 {
		fmt.Println()
		fmt.Printf("Configuration warnings (%d):\n", len(result.Warnings))
		printFindings(result.Warnings)
		fmt.Println()
	}

	configtest.PrintShellTestResult(os.Stdout, configtest.TestShell(cfg.Server))

	fmt.Println("configuration test is successful")

	if testURL == "" {
		return 0
	}

	// Path-only unless -fetch; the payload cache is never consulted here
	var f pipeline.PayloadFetcher
	if liveFetch {
		f = fetcher.New(cfg.Upstream, zap.NewNop())
	}
	p, err := newPipeline(cfg, f, zap.NewNop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nURL test error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout.ToDuration())
	defer cancel()

	urlResult, err := configtest.TestURL(ctx, testURL, cfg.Site.URL, p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nURL test error: %v\n", err)
		return 1
	}
	configtest.PrintURLTestResult(os.Stdout, urlResult)

	return 0
}

func printFindings(findings []validate.ValidationError) {
	for _, f := range findings {
		fmt.Printf("- %s\n", f.String())
	}
}
