// Package configtest implements the -t mode: it checks the SPA shell and
// shows how a URL would be classified, fetched and tagged.
package configtest

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/educationmalaysia/seo-server/internal/common/configtypes"
	"github.com/educationmalaysia/seo-server/internal/common/htmlprocessor"
	"github.com/educationmalaysia/seo-server/internal/seo/inject"
	"github.com/educationmalaysia/seo-server/internal/seo/pipeline"
	"github.com/educationmalaysia/seo-server/pkg/types"
)

// URLTestResult contains the result of URL testing
type URLTestResult struct {
	URL      string
	Path     string
	RawQuery string

	PageType types.PageType
	Route    string
	Params   map[string]string
	Filters  map[string]string
	Page     int

	Endpoint    string // empty when the page type has no content API endpoint
	UpstreamURL string
	Source      string
	Outcome     string

	Tags     types.ResolvedTags
	Injected []string

	Error string // Error message if the URL belongs to another site
}

// TestURL resolves testURL through p. Absolute URLs must belong to siteURL.
func TestURL(ctx context.Context, testURL, siteURL string, p *pipeline.Pipeline) (*URLTestResult, error) {
	parsedURL, err := url.Parse(testURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	result := &URLTestResult{URL: testURL}

	if parsedURL.Scheme != "" && parsedURL.Host != "" {
		site, err := url.Parse(siteURL)
		if err != nil {
			return nil, fmt.Errorf("invalid site url: %w", err)
		}
		if !sameHost(parsedURL.Host, site.Host) {
			result.Error = fmt.Sprintf("Host %q does not belong to site %s", parsedURL.Host, siteURL)
			return result, nil
		}
	}

	result.Path = parsedURL.EscapedPath()
	if result.Path == "" {
		result.Path = "/"
	}
	if !strings.HasPrefix(result.Path, "/") {
		result.Path = "/" + result.Path
	}
	result.RawQuery = parsedURL.RawQuery

	res := p.Resolve(ctx, result.Path, result.RawQuery)

	c := res.Classification
	result.PageType = c.PageType
	result.Route = c.Route
	result.Params = c.Params
	result.Filters = c.Filters
	result.Page = c.Page
	result.Endpoint = res.EndpointString()
	result.UpstreamURL = res.UpstreamURL
	result.Source = res.Source
	result.Outcome = res.Outcome
	result.Tags = res.Tags
	result.Injected = inject.Tags(res.Tags)

	return result, nil
}

// sameHost compares hosts ignoring case, a trailing dot, the port and a www. prefix
func sameHost(a, b string) bool {
	return normalizeHost(a) == normalizeHost(b)
}

func normalizeHost(host string) string {
	host = strings.ToLower(host)
	if idx := strings.LastIndex(host, ":"); idx != -1 && !strings.Contains(host[idx:], "]") {
		host = host[:idx]
	}
	host = strings.TrimSuffix(host, ".")
	return strings.TrimPrefix(host, "www.")
}

// ShellTestResult contains the audit of the shell served for every page
type ShellTestResult struct {
	Path  string
	Audit *htmlprocessor.ShellAudit
	Error string
}

// TestShell audits the shell configured by cfg. A missing shell is reported,
// not returned as an error, since pages fail with 500 until it is built.
func TestShell(cfg configtypes.ServerConfig) *ShellTestResult {
	path := filepath.Join(cfg.DistDir, cfg.IndexFile)
	result := &ShellTestResult{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	audit, err := htmlprocessor.AuditShell(data)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Audit = audit
	return result
}
