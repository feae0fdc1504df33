package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap"

	"github.com/educationmalaysia/seo-server/internal/common/configtypes"
	"github.com/educationmalaysia/seo-server/internal/edge/events"
	"github.com/educationmalaysia/seo-server/internal/edge/metrics"
	"github.com/educationmalaysia/seo-server/internal/edge/server"
	"github.com/educationmalaysia/seo-server/internal/seo/fetcher"
	"github.com/educationmalaysia/seo-server/internal/seo/head"
	"github.com/educationmalaysia/seo-server/internal/seo/pipeline"
	"github.com/educationmalaysia/seo-server/internal/seo/synth"
	"github.com/educationmalaysia/seo-server/pkg/types"
)

const (
	origin = "https://www.educationmalaysia.in"
	shell  = "<!doctype html>\n<html>\n  <head>\n    <meta charset=\"UTF-8\" />\n  </head>\n  <body><div id=\"root\"></div></body>\n</html>\n"
)

// contentAPI is a fasthttp stand-in for the upstream content API
type contentAPI struct {
	ln        *fasthttputil.InmemoryListener
	mu        sync.Mutex
	requested []string
	payloads  map[string]string
}

func newContentAPI(payloads map[string]string) *contentAPI {
	api := &contentAPI{ln: fasthttputil.NewInmemoryListener(), payloads: payloads}
	srv := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		api.mu.Lock()
		api.requested = append(api.requested, string(ctx.RequestURI()))
		api.mu.Unlock()

		body, ok := api.payloads[string(ctx.Path())]
		if !ok {
			ctx.SetStatusCode(fasthttp.StatusNotFound)
			return
		}
		ctx.SetContentType("application/json")
		ctx.SetBodyString(body)
	}}
	go func() { _ = srv.Serve(api.ln) }()
	return api
}

func (a *contentAPI) calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.requested...)
}

// panicFetcher simulates a bug deep in the resolution path
type panicFetcher struct{}

func (panicFetcher) Lookup(context.Context, types.Endpoint) fetcher.Result {
	panic("boom")
}

type harness struct {
	distDir   string
	eventLog  string
	api       *contentAPI
	ln        *fasthttputil.InmemoryListener
	client    *fasthttp.Client
	collector *metrics.MetricsCollector
	srv       *server.Server
}

func newHarness(payloads map[string]string, payloadFetcher pipeline.PayloadFetcher) *harness {
	h := &harness{distDir: GinkgoT().TempDir()}
	h.eventLog = filepath.Join(GinkgoT().TempDir(), "events.log")

	Expect(os.WriteFile(filepath.Join(h.distDir, "index.html"), []byte(shell), 0o644)).To(Succeed())
	Expect(os.MkdirAll(filepath.Join(h.distDir, "assets"), 0o755)).To(Succeed())
	Expect(os.WriteFile(filepath.Join(h.distDir, "assets", "app.js"), []byte("console.log(1)"), 0o644)).To(Succeed())

	logger := zap.NewNop()
	site := configtypes.SiteConfig{URL: origin}
	s := synth.New(synth.SiteFromConfig(site))

	h.api = newContentAPI(payloads)
	h.collector = metrics.NewMetricsCollectorWithRegistry("seo_server", prometheus.NewRegistry(), logger)

	if payloadFetcher == nil {
		payloadFetcher = fetcher.New(
			configtypes.UpstreamConfig{BaseURL: "http://content-api.test", Timeout: types.Duration(2 * time.Second)},
			logger,
			fetcher.WithRecorder(h.collector),
			fetcher.WithClient(&fasthttp.Client{Dial: func(string) (net.Conn, error) { return h.api.ln.Dial() }}),
		)
	}
	p := pipeline.New(payloadFetcher, s, head.NewRenderer(s, site, nil), logger)

	emitter, err := events.NewFileEmitter(configtypes.EventFileConfig{Enabled: true, Path: h.eventLog}, logger)
	Expect(err).ToNot(HaveOccurred())

	h.srv, err = server.NewServer(configtypes.ServerConfig{
		Timeout:      types.Duration(5 * time.Second),
		DistDir:      h.distDir,
		IndexFile:    "index.html",
		StaticMaxAge: configtypes.DefaultStaticMaxAge,
		HeadAPIPath:  configtypes.DefaultHeadAPIPath,
	}, p, h.collector, emitter, logger, "test-instance")
	Expect(err).ToNot(HaveOccurred())

	h.ln = fasthttputil.NewInmemoryListener()
	go func() { _ = (&fasthttp.Server{Handler: h.srv.HandleRequest}).Serve(h.ln) }()
	h.client = &fasthttp.Client{Dial: func(string) (net.Conn, error) { return h.ln.Dial() }}

	DeferCleanup(func() {
		_ = h.srv.Shutdown()
		_ = h.ln.Close()
		_ = h.api.ln.Close()
	})
	return h
}

func (h *harness) do(method, uri string, body []byte, headers map[string]string) *fasthttp.Response {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.Header.SetMethod(method)
	req.SetRequestURI("http://seo.test" + uri)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	resp := &fasthttp.Response{}
	if method == fasthttp.MethodHead {
		resp.SkipBody = true
	}
	Expect(h.client.DoTimeout(req, resp, 5*time.Second)).To(Succeed())
	return resp
}

func (h *harness) get(uri string) *fasthttp.Response {
	return h.do(fasthttp.MethodGet, uri, nil, nil)
}

func (h *harness) events() []events.RequestEvent {
	Expect(h.srv.Shutdown()).To(Succeed())
	data, err := os.ReadFile(h.eventLog)
	Expect(err).ToNot(HaveOccurred())

	var out []events.RequestEvent
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var e events.RequestEvent
		Expect(json.Unmarshal([]byte(line), &e)).To(Succeed())
		out = append(out, e)
	}
	return out
}

func (h *harness) metricsText() string {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/metrics")
	h.collector.ServeHTTP(ctx)
	return string(ctx.Response.Body())
}

func parseHTML(resp *fasthttp.Response) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	Expect(err).ToNot(HaveOccurred())
	return doc
}

var _ = Describe("SEO server", func() {
	var h *harness

	Context("page requests", func() {
		BeforeEach(func() {
			h = newHarness(map[string]string{
				"/api/university-details/taylors-university": `{"data":{"seo":{"meta_title":"Taylor's University","meta_description":"Top <private> university"}}}`,
				"/api/home": `{"seo":{"meta_title":"%title%","meta_description":"%description%"}}`,
			}, nil)
		})

		It("injects payload tags into the shell", func() {
			resp := h.get("/university/taylors-university")

			Expect(resp.StatusCode()).To(Equal(fasthttp.StatusOK))
			Expect(string(resp.Header.ContentType())).To(Equal("text/html; charset=utf-8"))
			Expect(resp.Header.Peek("X-Request-ID")).ToNot(BeEmpty())

			doc := parseHTML(resp)
			Expect(doc.Find("head > title").Text()).To(Equal("Taylor's University"))
			Expect(doc.Find(`head > meta[name="description"]`).AttrOr("content", "")).To(Equal("Top <private> university"))
			Expect(doc.Find(`head > link[rel="canonical"]`).AttrOr("href", "")).To(Equal(origin + "/university/taylors-university"))
			Expect(string(resp.Body())).To(ContainSubstring("Top &lt;private&gt; university"))

			Expect(h.api.calls()).To(Equal([]string{"/api/university-details/taylors-university"}))
		})

		It("replaces placeholder titles with path-derived ones", func() {
			doc := parseHTML(h.get("/"))
			Expect(doc.Find("head > title").Text()).To(Equal("Home | Education Malaysia"))
			Expect(doc.Find(`head > link[rel="canonical"]`).AttrOr("href", "")).To(Equal(origin + "/"))
		})

		It("falls back to path-derived tags when the content API fails", func() {
			resp := h.get("/resources/exams/ielts?tab=overview")

			Expect(resp.StatusCode()).To(Equal(fasthttp.StatusOK))
			doc := parseHTML(resp)
			Expect(doc.Find("head > title").Text()).To(Equal("Resources | Exams | Ielts | Education Malaysia"))
			Expect(doc.Find(`head > link[rel="canonical"]`).AttrOr("href", "")).To(Equal(origin + "/resources/exams/ielts?tab=overview"))
		})

		It("keeps a valid inbound request id", func() {
			resp := h.do(fasthttp.MethodGet, "/", nil, map[string]string{"X-Request-ID": "trace-123"})
			Expect(string(resp.Header.Peek("X-Request-ID"))).To(Equal("trace-123"))
		})

		It("answers HEAD without a body", func() {
			resp := h.do(fasthttp.MethodHead, "/about-us", nil, nil)
			Expect(resp.StatusCode()).To(Equal(fasthttp.StatusOK))
			Expect(resp.Body()).To(BeEmpty())
		})

		It("rejects other methods on pages", func() {
			resp := h.do(fasthttp.MethodPost, "/", []byte("{}"), nil)
			Expect(resp.StatusCode()).To(Equal(fasthttp.StatusMethodNotAllowed))
			Expect(string(resp.Header.Peek("Allow"))).To(Equal("GET, HEAD"))
		})

		It("records request metrics and access events", func() {
			h.get("/university/taylors-university")
			h.get("/assets/app.js")

			text := h.metricsText()
			Expect(text).To(ContainSubstring(`seo_server_http_requests_total{kind="page",page_type="university-detail",status="2xx"} 1`))
			Expect(text).To(ContainSubstring(`seo_server_http_requests_total{kind="static",page_type="",status="2xx"} 1`))
			Expect(text).To(ContainSubstring(`seo_server_upstream_fetch_total{result="ok"} 1`))

			evts := h.events()
			Expect(evts).To(HaveLen(2))
			Expect(evts[0].EventType).To(Equal(events.EventTypePage))
			Expect(evts[0].Endpoint).To(Equal("/university-details/taylors-university"))
			Expect(evts[0].Source).To(Equal(types.PayloadSourceUpstream))
			Expect(evts[0].Title).To(Equal("Taylor's University"))
			Expect(evts[0].InstanceID).To(Equal("test-instance"))
			Expect(evts[1].EventType).To(Equal(events.EventTypeStatic))
			Expect(evts[1].PageSize).To(Equal(int64(len("console.log(1)"))))
		})

		It("tags crawler requests in access events", func() {
			h.do(fasthttp.MethodGet, "/", nil, map[string]string{
				"User-Agent": "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			})
			h.do(fasthttp.MethodGet, "/", nil, map[string]string{"User-Agent": "Mozilla/5.0 Firefox/128.0"})

			evts := h.events()
			Expect(evts).To(HaveLen(2))
			Expect(evts[0].Crawler).To(Equal("*googlebot*"))
			Expect(evts[1].Crawler).To(BeEmpty())
		})
	})

	Context("static assets", func() {
		BeforeEach(func() {
			h = newHarness(nil, nil)
		})

		It("serves regular files with a week-long cache", func() {
			resp := h.get("/assets/app.js")
			Expect(resp.StatusCode()).To(Equal(fasthttp.StatusOK))
			Expect(string(resp.Body())).To(Equal("console.log(1)"))
			Expect(string(resp.Header.Peek("Cache-Control"))).To(Equal("public, max-age=604800"))
			Expect(h.api.calls()).To(BeEmpty())
		})

		It("never serves a directory index", func() {
			resp := h.get("/assets")
			Expect(resp.StatusCode()).To(Equal(fasthttp.StatusOK))
			Expect(string(resp.Header.ContentType())).To(Equal("text/html; charset=utf-8"))
			Expect(string(resp.Header.Peek("Cache-Control"))).ToNot(ContainSubstring("max-age"))
			Expect(string(resp.Body())).To(ContainSubstring("<title>Assets | Education Malaysia</title>"))
		})

		It("routes missing files to the page handler", func() {
			resp := h.get("/assets/missing.js")
			Expect(string(resp.Header.ContentType())).To(Equal("text/html; charset=utf-8"))
		})
	})

	Context("shell errors", func() {
		BeforeEach(func() {
			h = newHarness(nil, nil)
			Expect(os.Remove(filepath.Join(h.distDir, "index.html"))).To(Succeed())
		})

		It("returns a plain text 500", func() {
			resp := h.get("/university/taylors-university")
			Expect(resp.StatusCode()).To(Equal(fasthttp.StatusInternalServerError))
			Expect(string(resp.Header.ContentType())).To(HavePrefix("text/plain"))
			Expect(string(resp.Body())).To(HavePrefix("SEO server error: open "))
			Expect(string(resp.Body())).To(ContainSubstring("index.html"))

			Expect(h.metricsText()).To(ContainSubstring(`seo_server_http_errors_total{error_type="shell_read"} 1`))
		})
	})

	Context("handler panics", func() {
		BeforeEach(func() {
			h = newHarness(nil, panicFetcher{})
		})

		It("recovers and returns a plain text 500", func() {
			resp := h.get("/university/taylors-university")
			Expect(resp.StatusCode()).To(Equal(fasthttp.StatusInternalServerError))
			Expect(string(resp.Body())).To(Equal("SEO server error: boom"))

			evts := h.events()
			Expect(evts).To(HaveLen(1))
			Expect(evts[0].EventType).To(Equal(events.EventTypeError))
			Expect(evts[0].ErrorType).To(Equal(server.ErrorTypePanic))
		})
	})

	Context("head API", func() {
		type envelope struct {
			Success bool          `json:"success"`
			Message string        `json:"message"`
			Data    head.HeadTags `json:"data"`
		}

		decode := func(resp *fasthttp.Response) envelope {
			var env envelope
			Expect(json.Unmarshal(resp.Body(), &env)).To(Succeed())
			return env
		}

		BeforeEach(func() {
			h = newHarness(map[string]string{
				"/api/exam-details/ielts": `{"seo":{"meta_description":"IELTS in Malaysia"}}`,
			}, nil)
		})

		It("renders from query arguments", func() {
			resp := h.get("/__seo/head?path=/resources/exams/ielts&name=IELTS")
			Expect(resp.StatusCode()).To(Equal(fasthttp.StatusOK))
			Expect(string(resp.Header.ContentType())).To(HavePrefix("application/json"))

			env := decode(resp)
			Expect(env.Success).To(BeTrue())
			Expect(env.Data.PageType).To(Equal(types.PageTypeExamDetail))
			Expect(env.Data.Title).To(Equal("IELTS Exam Guide | Education Malaysia"))
			Expect(env.Data.Description).To(Equal("IELTS in Malaysia"))
			Expect(env.Data.Robots).To(Equal(head.RobotsIndex))
			Expect(h.api.calls()).To(Equal([]string{"/api/exam-details/ielts"}))
		})

		It("renders from a JSON body with overrides", func() {
			body, err := json.Marshal(head.Request{
				Path:      "/blog?page=2",
				Overrides: head.Overrides{Title: "Study guides"},
				NoIndex:   true,
			})
			Expect(err).ToNot(HaveOccurred())

			env := decode(h.do(fasthttp.MethodPost, "/__seo/head", body, nil))
			Expect(env.Data.Title).To(Equal("Study guides"))
			Expect(env.Data.Robots).To(Equal(head.RobotsNoIndex))
			Expect(env.Data.Canonical).To(Equal(origin + "/blog?page=2"))
		})

		It("rejects a request without a path", func() {
			resp := h.get("/__seo/head")
			Expect(resp.StatusCode()).To(Equal(fasthttp.StatusBadRequest))
			env := decode(resp)
			Expect(env.Success).To(BeFalse())
			Expect(env.Message).To(Equal("path is required"))
		})

		It("rejects malformed JSON", func() {
			resp := h.do(fasthttp.MethodPost, "/__seo/head", []byte("{"), nil)
			Expect(resp.StatusCode()).To(Equal(fasthttp.StatusBadRequest))
		})

		It("rejects unsupported methods", func() {
			resp := h.do(fasthttp.MethodPut, "/__seo/head", []byte("{}"), nil)
			Expect(resp.StatusCode()).To(Equal(fasthttp.StatusMethodNotAllowed))
			Expect(string(resp.Header.Peek("Allow"))).To(Equal("GET, HEAD, POST"))
		})
	})
})
