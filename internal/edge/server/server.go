package server

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/educationmalaysia/seo-server/internal/common/configtypes"
	"github.com/educationmalaysia/seo-server/internal/common/httputil"
	"github.com/educationmalaysia/seo-server/internal/common/requestid"
	"github.com/educationmalaysia/seo-server/internal/edge/bot"
	"github.com/educationmalaysia/seo-server/internal/edge/clientip"
	"github.com/educationmalaysia/seo-server/internal/edge/events"
	"github.com/educationmalaysia/seo-server/internal/edge/metrics"
	"github.com/educationmalaysia/seo-server/internal/seo/pipeline"
)

// Error types recorded in metrics and access events
const (
	ErrorTypeShellRead        = "shell_read"
	ErrorTypePanic            = "panic"
	ErrorTypeMethodNotAllowed = "method_not_allowed"
	ErrorTypeBadRequest       = "bad_request"
)

const errorBodyPrefix = "SEO server error: "

type Server struct {
	cfg       configtypes.ServerConfig
	distDir   string
	indexPath string

	pipeline         *pipeline.Pipeline
	metricsCollector *metrics.MetricsCollector
	clientIP         *clientip.Extractor
	crawlers         *bot.Detector
	static           fasthttp.RequestHandler
	cacheControl     string
	logger           *zap.Logger

	eventEmitter events.EventEmitter
	instanceID   string
}

// NewServer creates the public handler. A nil eventEmitter disables access events.
func NewServer(
	cfg configtypes.ServerConfig,
	p *pipeline.Pipeline,
	metricsCollector *metrics.MetricsCollector,
	eventEmitter events.EventEmitter,
	logger *zap.Logger,
	instanceID string,
) (*Server, error) {
	distDir, err := filepath.Abs(cfg.DistDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve dist_dir %s: %w", cfg.DistDir, err)
	}
	crawlers, err := bot.NewDetector(cfg.Crawlers)
	if err != nil {
		return nil, err
	}
	if eventEmitter == nil {
		eventEmitter = &events.NoopEmitter{}
	}

	maxAge := int(time.Duration(cfg.StaticMaxAge).Seconds())

	return &Server{
		cfg:              cfg,
		distDir:          distDir,
		indexPath:        filepath.Join(distDir, cfg.IndexFile),
		pipeline:         p,
		metricsCollector: metricsCollector,
		clientIP:         clientip.New(cfg.ClientIPHeaders),
		crawlers:         crawlers,
		static:           newStaticHandler(distDir),
		cacheControl:     "public, max-age=" + strconv.Itoa(maxAge),
		logger:           logger,
		eventEmitter:     eventEmitter,
		instanceID:       instanceID,
	}, nil
}

// requestState accumulates what one request did, for logging, metrics and events
type requestState struct {
	requestID string
	kind      string
	res       *pipeline.Resolution
	errType   string
	err       error
}

func (rs *requestState) fail(errType string, err error) {
	rs.errType = errType
	rs.err = err
}

func (s *Server) HandleRequest(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	requestID := requestid.FromHeader(string(ctx.Request.Header.Peek(requestid.Header)))
	ctx.Response.Header.Set(requestid.Header, requestID)
	logger := s.logger.With(zap.String("request_id", requestID))

	s.metricsCollector.IncActiveRequests()
	defer s.metricsCollector.DecActiveRequests()

	state := &requestState{requestID: requestID, kind: metrics.KindPage}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%v", r)
			logger.Error("Request handler panicked", zap.Error(err), zap.Stack("stack"))
			state.fail(ErrorTypePanic, err)
			s.writeServerError(ctx, err)
		}
		s.finishRequest(ctx, state, time.Since(start), logger)
	}()

	s.route(ctx, state, logger)
}

// route dispatches static assets first, then the head API, then the page shell
func (s *Server) route(ctx *fasthttp.RequestCtx, state *requestState, logger *zap.Logger) {
	path := string(ctx.Path())
	isHeadAPI := path == s.cfg.HeadAPIPath

	if !ctx.IsGet() && !ctx.IsHead() {
		if isHeadAPI && ctx.IsPost() {
			state.kind = metrics.KindHeadAPI
			s.handleHeadAPI(ctx, state)
			return
		}
		allow := "GET, HEAD"
		if isHeadAPI {
			allow = "GET, HEAD, POST"
		}
		ctx.Response.Header.Set(fasthttp.HeaderAllow, allow)
		httputil.TextError(ctx, "Method not allowed", fasthttp.StatusMethodNotAllowed)
		state.fail(ErrorTypeMethodNotAllowed, fmt.Errorf("method %s not allowed", ctx.Method()))
		return
	}

	if s.serveStatic(ctx) {
		state.kind = metrics.KindStatic
		return
	}

	if isHeadAPI {
		state.kind = metrics.KindHeadAPI
		s.handleHeadAPI(ctx, state)
		return
	}

	if err := s.handlePage(ctx, state); err != nil {
		logger.Error("Failed to serve page", zap.Error(err))
		state.fail(ErrorTypeShellRead, err)
		s.writeServerError(ctx, err)
	}
}

func (s *Server) writeServerError(ctx *fasthttp.RequestCtx, err error) {
	ctx.Response.Header.Del(fasthttp.HeaderCacheControl)
	httputil.TextError(ctx, errorBodyPrefix+err.Error(), fasthttp.StatusInternalServerError)
}

func (s *Server) finishRequest(ctx *fasthttp.RequestCtx, state *requestState, duration time.Duration, logger *zap.Logger) {
	status := ctx.Response.StatusCode()
	pageType := ""
	if state.res != nil {
		pageType = string(state.res.Classification.PageType)
	}

	s.metricsCollector.RecordRequest(state.kind, pageType, status, duration)
	if state.errType != "" {
		s.metricsCollector.RecordError(state.errType)
	}

	var size int64
	if ctx.Response.IsBodyStream() {
		size = max(int64(ctx.Response.Header.ContentLength()), 0)
	} else {
		size = int64(len(ctx.Response.Body()))
	}

	info := events.RequestInfo{
		RequestID:  state.requestID,
		EventType:  state.kind,
		Method:     string(ctx.Method()),
		Path:       string(ctx.Path()),
		Query:      string(ctx.URI().QueryString()),
		UserAgent:  string(ctx.UserAgent()),
		ClientIP:   s.clientIP.Extract(ctx),
		StatusCode: status,
		PageSize:   size,
		Duration:   duration,
		ErrorType:  state.errType,
	}
	info.Crawler = s.crawlers.Crawler(info.UserAgent)
	if state.err != nil {
		info.ErrorMessage = state.err.Error()
	}
	s.eventEmitter.Emit(events.BuildRequestEvent(info, state.res, s.instanceID))

	fields := []zap.Field{
		zap.String("method", info.Method),
		zap.String("path", info.Path),
		zap.String("kind", state.kind),
		zap.Int("status", status),
		zap.Duration("duration", duration),
	}
	if state.res != nil {
		fields = append(fields,
			zap.String("page_type", pageType),
			zap.String("endpoint", state.res.EndpointString()),
			zap.String("source", state.res.Source))
	}
	if info.Crawler != "" {
		fields = append(fields, zap.String("crawler", info.Crawler))
	}
	if state.kind == metrics.KindStatic {
		logger.Debug("Request served", fields...)
		return
	}
	logger.Info("Request served", fields...)
}

// Shutdown closes the event emitter
func (s *Server) Shutdown() error {
	if err := s.eventEmitter.Close(); err != nil {
		s.logger.Warn("Failed to close event emitter", zap.Error(err))
		return err
	}
	return nil
}
