// Package fetcher retrieves SEO payloads from the content API.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/educationmalaysia/seo-server/internal/common/configtypes"
	"github.com/educationmalaysia/seo-server/pkg/types"
)

// Fetch outcomes, used as the result label of the upstream fetch metric
const (
	ResultOK           = "ok"
	ResultNoSeo        = "no_seo"
	ResultHTTPError    = "http_error"
	ResultNetworkError = "network_error"
	ResultTimeout      = "timeout"
	ResultInvalidJSON  = "invalid_json"
	ResultDisabled     = "disabled"
	ResultCached       = "cached"
)

// PayloadCache stores extracted payloads by upstream URL. A cached nil
// payload is a valid hit.
type PayloadCache interface {
	Get(ctx context.Context, upstreamURL string) (*types.SeoPayload, bool, error)
	Put(ctx context.Context, upstreamURL string, payload *types.SeoPayload) error
}

// Recorder receives fetch and cache observations
type Recorder interface {
	RecordUpstreamFetch(result string, duration time.Duration)
	RecordPayloadCache(hit bool)
}

// Result describes one payload lookup
type Result struct {
	Payload *types.SeoPayload
	Source  string // types.PayloadSource*
	Outcome string // Result*
	URL     string
}

// Fetcher issues single-attempt GET requests to the content API
type Fetcher struct {
	baseURL   string
	apiKey    string
	userAgent string
	timeout   time.Duration
	client    *fasthttp.Client
	cache     PayloadCache
	recorder  Recorder
	logger    *zap.Logger
}

// Option customizes a Fetcher
type Option func(*Fetcher)

// WithCache enables the payload cache
func WithCache(cache PayloadCache) Option {
	return func(f *Fetcher) { f.cache = cache }
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(f *Fetcher) { f.recorder = r }
}

// WithClient replaces the HTTP client
func WithClient(c *fasthttp.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// New creates a Fetcher. An empty base URL disables fetching.
func New(cfg configtypes.UpstreamConfig, logger *zap.Logger, opts ...Option) *Fetcher {
	timeout := cfg.Timeout.ToDuration()
	if timeout <= 0 {
		timeout = configtypes.DefaultUpstreamTimeout.ToDuration()
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = configtypes.DefaultUpstreamUserAgent
	}

	f := &Fetcher{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		userAgent: userAgent,
		timeout:   timeout,
		client: &fasthttp.Client{
			ReadTimeout:              timeout,
			WriteTimeout:             timeout,
			NoDefaultUserAgentHeader: true,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Enabled reports whether an upstream base URL is configured
func (f *Fetcher) Enabled() bool {
	return f.baseURL != ""
}

// URL returns the upstream URL for an endpoint
func (f *Fetcher) URL(ep types.Endpoint) string {
	return f.baseURL + "/api" + ep.String()
}

// Fetch returns the SEO payload for ep, or nil on any failure
func (f *Fetcher) Fetch(ctx context.Context, ep types.Endpoint) *types.SeoPayload {
	return f.Lookup(ctx, ep).Payload
}

// Lookup resolves the payload for ep through the cache and the upstream API.
// It never returns an error; failures yield a nil payload.
func (f *Fetcher) Lookup(ctx context.Context, ep types.Endpoint) Result {
	if !f.Enabled() {
		return Result{Source: types.PayloadSourceNone, Outcome: ResultDisabled}
	}

	target := f.URL(ep)

	if f.cache != nil {
		payload, found, err := f.cache.Get(ctx, target)
		if err != nil {
			f.logger.Warn("Payload cache read failed", zap.String("url", target), zap.Error(err))
		}
		if f.recorder != nil {
			f.recorder.RecordPayloadCache(found)
		}
		if found {
			return Result{Payload: payload, Source: types.PayloadSourceCache, Outcome: ResultCached, URL: target}
		}
	}

	start := time.Now()
	payload, outcome := f.fetch(ctx, target)
	duration := time.Since(start)

	if f.recorder != nil {
		f.recorder.RecordUpstreamFetch(outcome, duration)
	}

	if f.cache != nil && (outcome == ResultOK || outcome == ResultNoSeo) {
		if err := f.cache.Put(ctx, target, payload); err != nil {
			f.logger.Warn("Payload cache write failed", zap.String("url", target), zap.Error(err))
		}
	}

	f.logger.Debug("Upstream SEO fetch completed",
		zap.String("url", target),
		zap.String("result", outcome),
		zap.Duration("duration", duration))

	return Result{Payload: payload, Source: types.PayloadSourceUpstream, Outcome: outcome, URL: target}
}

func (f *Fetcher) fetch(ctx context.Context, target string) (*types.SeoPayload, string) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(target)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	req.Header.Set(fasthttp.HeaderUserAgent, f.userAgent)
	if f.apiKey != "" {
		req.Header.Set("x-api-key", f.apiKey)
	}

	deadline := time.Now().Add(f.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if err := f.client.DoDeadline(req, resp, deadline); err != nil {
		outcome := ResultNetworkError
		if isTimeout(err) {
			outcome = ResultTimeout
		}
		f.logger.Warn("Upstream SEO fetch failed",
			zap.String("url", target),
			zap.String("result", outcome),
			zap.Error(err))
		return nil, outcome
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		f.logger.Warn("Upstream SEO fetch returned non-2xx status",
			zap.String("url", target),
			zap.Int("status_code", status))
		return nil, ResultHTTPError
	}

	var doc any
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		f.logger.Warn("Upstream SEO response is not valid JSON",
			zap.String("url", target),
			zap.Int("response_size", len(resp.Body())),
			zap.Error(err))
		return nil, ResultInvalidJSON
	}

	payload := ExtractSeoPayload(doc)
	if payload == nil {
		return nil, ResultNoSeo
	}
	return payload, ResultOK
}

func isTimeout(err error) bool {
	if errors.Is(err, fasthttp.ErrTimeout) || errors.Is(err, fasthttp.ErrDialTimeout) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
