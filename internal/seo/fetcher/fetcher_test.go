package fetcher

import (
	"context"
	"net"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap/zaptest"

	"github.com/educationmalaysia/seo-server/internal/common/configtypes"
	"github.com/educationmalaysia/seo-server/internal/common/redis"
	"github.com/educationmalaysia/seo-server/internal/seo/payloadcache"
	"github.com/educationmalaysia/seo-server/pkg/types"
)

const upstreamBase = "http://content-api.test"

type recordedRequest struct {
	uri       string
	apiKey    string
	accept    string
	userAgent string
}

// upstreamStub serves the content API from an in-memory listener
type upstreamStub struct {
	t        *testing.T
	ln       *fasthttputil.InmemoryListener
	mu       sync.Mutex
	requests []recordedRequest
	handler  fasthttp.RequestHandler
}

func newUpstreamStub(t *testing.T, handler fasthttp.RequestHandler) *upstreamStub {
	t.Helper()
	stub := &upstreamStub{t: t, ln: fasthttputil.NewInmemoryListener(), handler: handler}
	srv := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		stub.mu.Lock()
		stub.requests = append(stub.requests, recordedRequest{
			uri:       string(ctx.RequestURI()),
			apiKey:    string(ctx.Request.Header.Peek("x-api-key")),
			accept:    string(ctx.Request.Header.Peek("Accept")),
			userAgent: string(ctx.Request.Header.UserAgent()),
		})
		stub.mu.Unlock()
		stub.handler(ctx)
	}}
	go func() { _ = srv.Serve(stub.ln) }()
	t.Cleanup(func() { _ = stub.ln.Close() })
	return stub
}

func (s *upstreamStub) client(timeout time.Duration) *fasthttp.Client {
	return &fasthttp.Client{
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		Dial: func(addr string) (net.Conn, error) {
			return s.ln.Dial()
		},
	}
}

func (s *upstreamStub) calls() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedRequest(nil), s.requests...)
}

func jsonHandler(status int, body string) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(status)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(body)
	}
}

type fakeRecorder struct {
	mu      sync.Mutex
	fetches []string
	hits    int
	misses  int
}

func (r *fakeRecorder) RecordUpstreamFetch(result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches = append(r.fetches, result)
}

func (r *fakeRecorder) RecordPayloadCache(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func newFetcher(t *testing.T, stub *upstreamStub, cfg configtypes.UpstreamConfig, opts ...Option) *Fetcher {
	t.Helper()
	if cfg.BaseURL == "" {
		cfg.BaseURL = upstreamBase
	}
	opts = append([]Option{WithClient(stub.client(time.Second))}, opts...)
	return New(cfg, zaptest.NewLogger(t), opts...)
}

func TestFetch_Success(t *testing.T) {
	stub := newUpstreamStub(t, jsonHandler(200, `{"data":{"seo":{"meta_title":"Taylor's University","page_url":"https://www.educationmalaysia.in/university/taylors-university"}}}`))
	rec := &fakeRecorder{}
	f := newFetcher(t, stub, configtypes.UpstreamConfig{APIKey: "secret", UserAgent: "seo-test"}, WithRecorder(rec))

	ep := types.Endpoint{Path: "/university-details/taylors-university"}
	res := f.Lookup(context.Background(), ep)

	require.NotNil(t, res.Payload)
	assert.Equal(t, "Taylor's University", res.Payload.MetaTitle)
	assert.Equal(t, types.PayloadSourceUpstream, res.Source)
	assert.Equal(t, ResultOK, res.Outcome)
	assert.Equal(t, upstreamBase+"/api/university-details/taylors-university", res.URL)

	calls := stub.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/api/university-details/taylors-university", calls[0].uri)
	assert.Equal(t, "secret", calls[0].apiKey)
	assert.Equal(t, "application/json", calls[0].accept)
	assert.Equal(t, "seo-test", calls[0].userAgent)
	assert.Equal(t, []string{ResultOK}, rec.fetches)
}

func TestFetch_QueryEncoding(t *testing.T) {
	stub := newUpstreamStub(t, jsonHandler(200, `{"seo":{"meta_title":"Diploma"}}`))
	f := newFetcher(t, stub, configtypes.UpstreamConfig{})

	ep := types.Endpoint{Path: "/courses-in-malaysia", Query: url.Values{"level": {"diploma"}, "page": {"3"}}}
	require.NotNil(t, f.Fetch(context.Background(), ep))

	calls := stub.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/api/courses-in-malaysia?level=diploma&page=3", calls[0].uri)
	assert.Empty(t, calls[0].apiKey)
}

func TestFetch_FailuresReturnNil(t *testing.T) {
	tests := []struct {
		name    string
		handler fasthttp.RequestHandler
		outcome string
	}{
		{"not found", jsonHandler(404, `{"message":"not found"}`), ResultHTTPError},
		{"server error", jsonHandler(500, `{"seo":{"meta_title":"ignored"}}`), ResultHTTPError},
		{"redirect", func(ctx *fasthttp.RequestCtx) { ctx.Redirect("/elsewhere", 302) }, ResultHTTPError},
		{"invalid json", jsonHandler(200, `<html>maintenance</html>`), ResultInvalidJSON},
		{"no seo object", jsonHandler(200, `{"data":{"items":[]}}`), ResultNoSeo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newUpstreamStub(t, tt.handler)
			rec := &fakeRecorder{}
			f := newFetcher(t, stub, configtypes.UpstreamConfig{}, WithRecorder(rec))

			res := f.Lookup(context.Background(), types.Endpoint{Path: "/home"})
			assert.Nil(t, res.Payload)
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, []string{tt.outcome}, rec.fetches)
			assert.Len(t, stub.calls(), 1, "single attempt, no retry")
		})
	}
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	stub := newUpstreamStub(t, func(ctx *fasthttp.RequestCtx) {
		<-release
		ctx.SetBodyString(`{"seo":{"meta_title":"late"}}`)
	})
	t.Cleanup(func() { close(release) })

	f := newFetcher(t, stub, configtypes.UpstreamConfig{Timeout: types.Duration(50 * time.Millisecond)})

	start := time.Now()
	res := f.Lookup(context.Background(), types.Endpoint{Path: "/home"})
	assert.Nil(t, res.Payload)
	assert.Equal(t, ResultTimeout, res.Outcome)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestFetch_ContextDeadlineShortensTimeout(t *testing.T) {
	release := make(chan struct{})
	stub := newUpstreamStub(t, func(ctx *fasthttp.RequestCtx) {
		<-release
	})
	t.Cleanup(func() { close(release) })

	f := newFetcher(t, stub, configtypes.UpstreamConfig{Timeout: types.Duration(time.Minute)})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	assert.Nil(t, f.Fetch(ctx, types.Endpoint{Path: "/home"}))
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestFetch_NetworkError(t *testing.T) {
	stub := newUpstreamStub(t, jsonHandler(200, `{}`))
	require.NoError(t, stub.ln.Close())

	f := newFetcher(t, stub, configtypes.UpstreamConfig{})
	res := f.Lookup(context.Background(), types.Endpoint{Path: "/home"})
	assert.Nil(t, res.Payload)
	assert.Equal(t, ResultNetworkError, res.Outcome)
}

func TestFetch_DisabledWithoutBaseURL(t *testing.T) {
	f := New(configtypes.UpstreamConfig{}, zaptest.NewLogger(t))
	assert.False(t, f.Enabled())

	res := f.Lookup(context.Background(), types.Endpoint{Path: "/home"})
	assert.Nil(t, res.Payload)
	assert.Equal(t, types.PayloadSourceNone, res.Source)
	assert.Equal(t, ResultDisabled, res.Outcome)
}

func TestFetch_BaseURLTrailingSlash(t *testing.T) {
	f := New(configtypes.UpstreamConfig{BaseURL: "https://api.educationmalaysia.in/"}, zaptest.NewLogger(t))
	assert.Equal(t, "https://api.educationmalaysia.in/api/faqs", f.URL(types.Endpoint{Path: "/faqs"}))
}

func TestFetch_PayloadCache(t *testing.T) {
	mr := miniredis.RunT(t)
	logger := zaptest.NewLogger(t)
	client, err := redis.NewClient(&configtypes.RedisConfig{Addr: mr.Addr()}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	cache := payloadcache.New(client, configtypes.PayloadCacheConfig{
		Enabled:     true,
		TTL:         types.Duration(time.Minute),
		Compression: configtypes.CompressionSnappy,
	}, logger)

	body := `{"seo":{"meta_title":"Scholarships"}}`
	stub := newUpstreamStub(t, func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) == "/api/exams" {
			ctx.SetBodyString(`{"data":[]}`)
			return
		}
		if string(ctx.Path()) == "/api/home" {
			ctx.SetStatusCode(503)
			return
		}
		ctx.SetBodyString(body)
	})
	rec := &fakeRecorder{}
	f := newFetcher(t, stub, configtypes.UpstreamConfig{}, WithCache(cache), WithRecorder(rec))
	ctx := context.Background()

	first := f.Lookup(ctx, types.Endpoint{Path: "/scholarships"})
	assert.Equal(t, types.PayloadSourceUpstream, first.Source)
	require.NotNil(t, first.Payload)

	second := f.Lookup(ctx, types.Endpoint{Path: "/scholarships"})
	assert.Equal(t, types.PayloadSourceCache, second.Source)
	assert.Equal(t, first.Payload, second.Payload)

	// a response without SEO data is cached as a nil payload
	f.Lookup(ctx, types.Endpoint{Path: "/exams"})
	noSeo := f.Lookup(ctx, types.Endpoint{Path: "/exams"})
	assert.Equal(t, types.PayloadSourceCache, noSeo.Source)
	assert.Nil(t, noSeo.Payload)

	// failures are never cached
	f.Lookup(ctx, types.Endpoint{Path: "/home"})
	failed := f.Lookup(ctx, types.Endpoint{Path: "/home"})
	assert.Equal(t, types.PayloadSourceUpstream, failed.Source)

	assert.Len(t, stub.calls(), 4)
	assert.Equal(t, 2, rec.hits)
	assert.Equal(t, 4, rec.misses)
}

func TestFetch_CacheUnavailableFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	logger := zaptest.NewLogger(t)
	client, err := redis.NewClient(&configtypes.RedisConfig{Addr: mr.Addr()}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	cache := payloadcache.New(client, configtypes.PayloadCacheConfig{Enabled: true, TTL: types.Duration(time.Minute)}, logger)
	mr.Close()

	stub := newUpstreamStub(t, jsonHandler(200, `{"seo":{"meta_title":"FAQs"}}`))
	f := newFetcher(t, stub, configtypes.UpstreamConfig{}, WithCache(cache))

	payload := f.Fetch(context.Background(), types.Endpoint{Path: "/faqs"})
	require.NotNil(t, payload)
	assert.Equal(t, "FAQs", payload.MetaTitle)
}
