// Package synth builds the resolved tag set for a page from its
// classification and the (possibly missing) SEO payload.
package synth

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/educationmalaysia/seo-server/internal/common/configtypes"
	"github.com/educationmalaysia/seo-server/pkg/types"
)

const undefinedMarker = "undefined"

var absoluteHTTPRe = regexp.MustCompile(`(?i)^https?://`)

// Site holds the site-wide values every synthesized tag set falls back to
type Site struct {
	Origin             string
	Name               string
	DefaultDescription string
	DefaultImage       string
}

// SiteFromConfig builds a Site, filling anything unset with the built-in defaults
func SiteFromConfig(cfg configtypes.SiteConfig) Site {
	site := Site{
		Origin:             strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		Name:               cfg.Name,
		DefaultDescription: cfg.DefaultDescription,
		DefaultImage:       cfg.DefaultImage,
	}
	if site.Origin == "" || strings.Contains(site.Origin, undefinedMarker) {
		site.Origin = configtypes.DefaultSiteURL
	}
	if site.Name == "" {
		site.Name = configtypes.DefaultSiteName
	}
	if site.DefaultDescription == "" {
		site.DefaultDescription = configtypes.DefaultDescription
	}
	if site.DefaultImage == "" || strings.Contains(site.DefaultImage, undefinedMarker) {
		site.DefaultImage = site.Origin + "/favicon.png"
	}
	return site
}

// Synthesizer produces ResolvedTags. It is stateless apart from the site
// values and safe for concurrent use.
type Synthesizer struct {
	site Site
}

// New creates a Synthesizer for site
func New(site Site) *Synthesizer {
	return &Synthesizer{site: site}
}

// Site returns the site values in use
func (s *Synthesizer) Site() Site {
	return s.site
}

// Synthesize returns the tag set for a classified request. payload may be nil;
// every field except Keywords, PrevURL and NextURL is always non-empty.
func (s *Synthesizer) Synthesize(c *types.Classification, payload *types.SeoPayload) types.ResolvedTags {
	if payload == nil {
		payload = &types.SeoPayload{}
	}

	tags := types.ResolvedTags{
		Title:       s.Title(c, payload.MetaTitle),
		Description: s.Description(payload.MetaDescription),
		Keywords:    strings.TrimSpace(payload.MetaKeyword),
		Canonical:   s.Canonical(c, payload.PageURL),
		OGImage:     s.Image(payload.OGImagePath),
	}
	tags.PrevURL, tags.NextURL = s.Pagination(c)
	return tags
}

// FallbackTitle is the path-derived title used when no usable title exists
func (s *Synthesizer) FallbackTitle(c *types.Classification) string {
	return HumanizePath(c.Path) + " | " + s.site.Name
}

// Title picks the payload title unless it is missing or the placeholder
func (s *Synthesizer) Title(c *types.Classification, metaTitle string) string {
	if Usable(metaTitle, types.TitlePlaceholder) {
		if title := StripQuotes(metaTitle); title != "" {
			return title
		}
	}
	return StripQuotes(s.FallbackTitle(c))
}

// Description picks the payload description unless it is missing or the placeholder
func (s *Synthesizer) Description(metaDescription string) string {
	if Usable(metaDescription, types.DescriptionPlaceholder) {
		return strings.TrimSpace(metaDescription)
	}
	return s.site.DefaultDescription
}

// Usable reports whether a payload value is present and not the placeholder
func Usable(value, placeholder string) bool {
	v := strings.TrimSpace(value)
	return v != "" && v != placeholder
}

// Canonical returns the backend page URL when it is a clean absolute or
// root-relative URL, otherwise the request URL on the site origin
func (s *Synthesizer) Canonical(c *types.Classification, pageURL string) string {
	if canonical, ok := s.ResolvePageURL(pageURL); ok {
		return canonical
	}

	canonical := s.site.Origin + cleanPath(c.Path)
	if query := cleanQuery(c.RawQuery); query != "" {
		canonical += "?" + query
	}
	return canonical
}

// ResolvePageURL accepts an absolute http(s) URL or a root-relative path
// free of the undefined marker and returns it as an absolute URL
func (s *Synthesizer) ResolvePageURL(pageURL string) (string, bool) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" || strings.Contains(pageURL, undefinedMarker) {
		return "", false
	}

	if absoluteHTTPRe.MatchString(pageURL) {
		u, err := url.Parse(pageURL)
		if err != nil || u.Host == "" {
			return "", false
		}
		return pageURL, true
	}

	if strings.HasPrefix(pageURL, "/") && !strings.HasPrefix(pageURL, "//") {
		return s.site.Origin + pageURL, true
	}
	return "", false
}

// URL returns an absolute URL on the site origin for a root-relative path
func (s *Synthesizer) URL(pathname string) string {
	return s.site.Origin + cleanPath(pathname)
}

// Image resolves an og_image_path to an absolute URL
func (s *Synthesizer) Image(ogImagePath string) string {
	p := strings.TrimSpace(ogImagePath)
	if p == "" || strings.Contains(p, undefinedMarker) {
		return s.site.DefaultImage
	}
	if absoluteHTTPRe.MatchString(p) {
		return p
	}
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return s.site.DefaultImage
	}
	return s.site.Origin + "/storage/" + p
}

// Pagination returns the prev and next links for paginated listings and for
// any request carrying an explicit page past the first. Routes that accept a
// /page-N suffix link with it; other routes link with ?page=N, so every link
// classifies back to the same route. Next is always emitted because the
// total page count is unknown.
func (s *Synthesizer) Pagination(c *types.Classification) (prev, next string) {
	paged := c.Paginated && c.PageType.IsPaginatedListing()
	if !paged && !(c.PageExplicit && c.Page > 1) {
		return "", ""
	}

	page := c.Page
	if page < 1 {
		page = 1
	}

	link := queryPage
	if paged {
		link = pagePath
	}

	base := cleanPath(c.BasePath())
	if page == 2 {
		prev = s.site.Origin + base
	} else if page > 2 {
		prev = s.site.Origin + link(base, page-1)
	}
	next = s.site.Origin + link(base, page+1)
	return prev, next
}

func pagePath(base string, page int) string {
	return strings.TrimSuffix(base, "/") + "/page-" + strconv.Itoa(page)
}

func queryPage(base string, page int) string {
	return base + "?page=" + strconv.Itoa(page)
}

// cleanPath guarantees a leading slash and drops segments that carry the
// undefined marker
func cleanPath(pathname string) string {
	if pathname == "" {
		return "/"
	}
	if !strings.Contains(pathname, undefinedMarker) {
		if !strings.HasPrefix(pathname, "/") {
			return "/" + pathname
		}
		return pathname
	}

	var kept []string
	for _, seg := range strings.Split(pathname, "/") {
		if seg != "" && !strings.Contains(seg, undefinedMarker) {
			kept = append(kept, seg)
		}
	}
	return "/" + strings.Join(kept, "/")
}

// cleanQuery drops query pairs that carry the undefined marker, keeping the
// remaining pairs in their original order and encoding
func cleanQuery(rawQuery string) string {
	rawQuery = strings.TrimPrefix(rawQuery, "?")
	if !strings.Contains(rawQuery, undefinedMarker) {
		return rawQuery
	}

	var kept []string
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair != "" && !strings.Contains(pair, undefinedMarker) {
			kept = append(kept, pair)
		}
	}
	return strings.Join(kept, "&")
}
