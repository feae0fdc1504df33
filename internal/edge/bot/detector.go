// Package bot recognises search engine and social crawlers by User-Agent.
package bot

import (
	"fmt"

	"github.com/educationmalaysia/seo-server/pkg/pattern"
)

// DefaultPatterns cover the crawlers that read the injected tags
var DefaultPatterns = []string{
	"*googlebot*",
	"*google-inspectiontool*",
	"*bingbot*",
	"*duckduckbot*",
	"*yandexbot*",
	"*baiduspider*",
	"*applebot*",
	"*facebookexternalhit*",
	"*twitterbot*",
	"*linkedinbot*",
	"*whatsapp*",
	"*slackbot*",
	"*telegrambot*",
	"*discordbot*",
}

// Detector matches User-Agent strings against crawler patterns (see pkg/pattern)
type Detector struct {
	patterns pattern.Set
}

// NewDetector compiles patterns. An empty list selects DefaultPatterns.
func NewDetector(patterns []string) (*Detector, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	set, err := pattern.CompileSet(patterns)
	if err != nil {
		return nil, fmt.Errorf("invalid crawler pattern: %w", err)
	}
	return &Detector{patterns: set}, nil
}

// Crawler returns the first pattern matching userAgent, or "" for browsers.
// First match wins.
func (d *Detector) Crawler(userAgent string) string {
	if d == nil || userAgent == "" {
		return ""
	}
	if p := d.patterns.MatchAny(userAgent); p != nil {
		return p.Original
	}
	return ""
}
