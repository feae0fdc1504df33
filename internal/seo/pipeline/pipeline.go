// Package pipeline runs SEO resolution end to end: classify the request,
// resolve the content API endpoint, look up the payload and synthesize tags.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/educationmalaysia/seo-server/internal/seo/classify"
	"github.com/educationmalaysia/seo-server/internal/seo/endpoint"
	"github.com/educationmalaysia/seo-server/internal/seo/fetcher"
	"github.com/educationmalaysia/seo-server/internal/seo/head"
	"github.com/educationmalaysia/seo-server/internal/seo/synth"
	"github.com/educationmalaysia/seo-server/pkg/types"
)

// PayloadFetcher looks up the SEO payload for an endpoint and never fails
type PayloadFetcher interface {
	Lookup(ctx context.Context, ep types.Endpoint) fetcher.Result
}

// Resolution records every step of one resolution
type Resolution struct {
	Classification types.Classification
	Endpoint       types.Endpoint
	HasEndpoint    bool
	Payload        *types.SeoPayload
	Source         string
	Outcome        string
	UpstreamURL    string
	Tags           types.ResolvedTags
}

// EndpointString returns the resolved endpoint, or "" when none applies
func (r *Resolution) EndpointString() string {
	if !r.HasEndpoint {
		return ""
	}
	return r.Endpoint.String()
}

// Pipeline wires the resolution stages together
type Pipeline struct {
	fetcher PayloadFetcher
	synth   *synth.Synthesizer
	head    *head.Renderer
	logger  *zap.Logger
}

// New creates a Pipeline. A nil fetcher resolves every request from
// path-derived fallbacks.
func New(f PayloadFetcher, s *synth.Synthesizer, h *head.Renderer, logger *zap.Logger) *Pipeline {
	return &Pipeline{fetcher: f, synth: s, head: h, logger: logger}
}

// Resolve produces the server tag set for a request path and query
func (p *Pipeline) Resolve(ctx context.Context, pathname, rawQuery string) *Resolution {
	res := p.lookup(ctx, pathname, rawQuery)
	res.Tags = p.synth.Synthesize(&res.Classification, res.Payload)
	return res
}

// RenderHead produces the client navigation head for req
func (p *Pipeline) RenderHead(ctx context.Context, req head.Request) (*Resolution, head.HeadTags) {
	res := p.lookup(ctx, req.Path, req.RawQuery)
	res.Tags = p.synth.Synthesize(&res.Classification, res.Payload)
	return res, p.head.RenderClassified(&res.Classification, req, res.Payload)
}

func (p *Pipeline) lookup(ctx context.Context, pathname, rawQuery string) *Resolution {
	res := &Resolution{
		Classification: classify.Classify(pathname, rawQuery),
		Source:         types.PayloadSourceNone,
	}

	res.Endpoint, res.HasEndpoint = endpoint.Resolve(res.Classification)
	if !res.HasEndpoint || p.fetcher == nil {
		return res
	}

	result := p.fetcher.Lookup(ctx, res.Endpoint)
	res.Payload = result.Payload
	res.Source = result.Source
	res.Outcome = result.Outcome
	res.UpstreamURL = result.URL

	p.logger.Debug("SEO payload resolved",
		zap.String("path", pathname),
		zap.String("page_type", string(res.Classification.PageType)),
		zap.String("endpoint", res.Endpoint.String()),
		zap.String("source", res.Source),
		zap.String("result", res.Outcome),
		zap.Bool("has_payload", res.Payload != nil))

	return res
}
