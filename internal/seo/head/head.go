// Package head renders the full head tag set used during client-side
// navigation: the server tag set plus robots, pagination links, extra Open
// Graph and Twitter tags, and JSON-LD documents.
package head

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/educationmalaysia/seo-server/internal/common/configtypes"
	"github.com/educationmalaysia/seo-server/internal/seo/classify"
	"github.com/educationmalaysia/seo-server/internal/seo/synth"
	"github.com/educationmalaysia/seo-server/pkg/pattern"
	"github.com/educationmalaysia/seo-server/pkg/types"
)

const (
	RobotsIndex   = "index, follow"
	RobotsNoIndex = "noindex, nofollow"
)

// Data is caller-supplied page content that feeds the title and
// description templates and the breadcrumb trail
type Data struct {
	Slug           string          `json:"slug,omitempty"`
	Name           string          `json:"name,omitempty"`
	Category       string          `json:"category,omitempty"`
	Level          string          `json:"level,omitempty"`
	Image          string          `json:"image,omitempty"`
	Keywords       string          `json:"keywords,omitempty"`
	Parents        []Crumb         `json:"parents,omitempty"`
	StructuredData json.RawMessage `json:"structured_data,omitempty"`
}

// Overrides take precedence over every computed value
type Overrides struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Canonical   string `json:"canonical,omitempty"`
}

// Request describes the page being navigated to
type Request struct {
	Path      string    `json:"path"`
	RawQuery  string    `json:"query,omitempty"`
	PageType  string    `json:"page_type,omitempty"`
	Data      Data      `json:"data"`
	Overrides Overrides `json:"overrides"`
	Image     string    `json:"image,omitempty"`
	NoIndex   bool      `json:"noindex,omitempty"`
}

// Meta is a <meta> element keyed by name or property
type Meta struct {
	Name     string `json:"name,omitempty"`
	Property string `json:"property,omitempty"`
	Content  string `json:"content"`
}

// Link is a <link> element
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// HeadTags is the rendered head for one page
type HeadTags struct {
	PageType    types.PageType    `json:"page_type"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Canonical   string            `json:"canonical"`
	Image       string            `json:"image"`
	Robots      string            `json:"robots"`
	Meta        []Meta            `json:"meta"`
	Links       []Link            `json:"links"`
	JSONLD      []json.RawMessage `json:"json_ld"`
	HTML        string            `json:"html"`
}

// Renderer builds HeadTags from the shared synthesis rules
type Renderer struct {
	synth   *synth.Synthesizer
	site    configtypes.SiteConfig
	noindex pattern.Set
}

// NewRenderer creates a Renderer. Paths matching noindex get a noindex robots tag.
func NewRenderer(s *synth.Synthesizer, site configtypes.SiteConfig, noindex pattern.Set) *Renderer {
	if site.Locale == "" {
		site.Locale = configtypes.DefaultLocale
	}
	if site.Organization.Name == "" {
		site.Organization.Name = configtypes.DefaultOrganizationName
	}
	return &Renderer{synth: s, site: site, noindex: noindex}
}

// Render classifies req and renders its head
func (r *Renderer) Render(req Request, payload *types.SeoPayload) HeadTags {
	c := classify.Classify(req.Path, req.RawQuery)
	return r.RenderClassified(&c, req, payload)
}

// RenderClassified renders the head for an already classified request.
// payload may be nil.
func (r *Renderer) RenderClassified(c *types.Classification, req Request, payload *types.SeoPayload) HeadTags {
	if payload == nil {
		payload = &types.SeoPayload{}
	}

	pageType := c.PageType
	if pt, ok := types.ParsePageType(req.PageType); ok {
		pageType = pt
	}

	site := r.synth.Site()
	base := r.synth.Synthesize(c, payload)

	td := templateData{
		Name:     strings.TrimSpace(req.Data.Name),
		Category: strings.TrimSpace(req.Data.Category),
		Level:    strings.TrimSpace(req.Data.Level),
		Site:     site.Name,
	}
	if td.Name == "" && req.Data.Slug != "" {
		td.Name = synth.TitleCase(synth.HumanizeSegment(req.Data.Slug))
	}

	h := HeadTags{PageType: pageType}

	switch {
	case strings.TrimSpace(req.Overrides.Title) != "":
		h.Title = synth.StripQuotes(req.Overrides.Title)
	case synth.Usable(payload.MetaTitle, types.TitlePlaceholder):
		h.Title = base.Title
	default:
		h.Title = synth.StripQuotes(templateTitle(pageType, td, c.Page))
	}
	if h.Title == "" {
		h.Title = base.Title
	}

	switch {
	case strings.TrimSpace(req.Overrides.Description) != "":
		h.Description = strings.TrimSpace(req.Overrides.Description)
	case synth.Usable(payload.MetaDescription, types.DescriptionPlaceholder):
		h.Description = base.Description
	default:
		h.Description = templateDescription(pageType, td)
	}
	if h.Description == "" {
		h.Description = base.Description
	}

	h.Canonical = base.Canonical
	if canonical, ok := r.synth.ResolvePageURL(req.Overrides.Canonical); ok {
		h.Canonical = canonical
	}

	h.Image = base.OGImage
	if img := firstNonEmpty(req.Image, req.Data.Image); img != "" {
		h.Image = r.synth.Image(img)
	}

	keywords := firstNonEmpty(base.Keywords, strings.TrimSpace(req.Data.Keywords))

	h.Robots = RobotsIndex
	if req.NoIndex || r.noindex.MatchAny(c.Path) != nil {
		h.Robots = RobotsNoIndex
	}

	ogType := "website"
	if pageType.IsDetail() {
		ogType = "article"
	}

	h.Meta = append(h.Meta, Meta{Name: "description", Content: h.Description})
	if keywords != "" {
		h.Meta = append(h.Meta, Meta{Name: "keywords", Content: keywords})
	}
	h.Meta = append(h.Meta,
		Meta{Name: "robots", Content: h.Robots},
		Meta{Property: "og:title", Content: h.Title},
		Meta{Property: "og:description", Content: h.Description},
		Meta{Property: "og:url", Content: h.Canonical},
		Meta{Property: "og:image", Content: h.Image},
		Meta{Property: "og:type", Content: ogType},
		Meta{Property: "og:site_name", Content: site.Name},
		Meta{Property: "og:locale", Content: r.site.Locale},
		Meta{Name: "twitter:card", Content: "summary_large_image"},
		Meta{Name: "twitter:title", Content: h.Title},
		Meta{Name: "twitter:description", Content: h.Description},
		Meta{Name: "twitter:image", Content: h.Image},
	)
	if r.site.TwitterSite != "" {
		h.Meta = append(h.Meta, Meta{Name: "twitter:site", Content: r.site.TwitterSite})
	}

	h.Links = append(h.Links, Link{Rel: "canonical", Href: h.Canonical})
	if base.PrevURL != "" {
		h.Links = append(h.Links, Link{Rel: "prev", Href: base.PrevURL})
	}
	if base.NextURL != "" {
		h.Links = append(h.Links, Link{Rel: "next", Href: base.NextURL})
	}

	docs := []any{
		breadcrumbSchema(r.breadcrumbs(c, req.Data, td.Name), h.Title, h.Description),
		webPageSchema(h.Title, h.Description, r.synth.Canonical(c, ""), r.site.Locale, site.Name, r.site.Organization),
		organizationSchema(r.site.Organization, site.Origin),
	}
	for _, doc := range docs {
		if raw, err := encodeJSONLD(doc); err == nil {
			h.JSONLD = append(h.JSONLD, raw)
		}
	}
	if len(req.Data.StructuredData) > 0 && json.Valid(req.Data.StructuredData) {
		if raw, err := encodeJSONLD(req.Data.StructuredData); err == nil {
			h.JSONLD = append(h.JSONLD, raw)
		}
	}

	h.HTML = renderHTML(h)
	return h
}

// breadcrumbs starts at Home, then follows the caller's parents or the path
// segments. The last crumb takes the item name, and a page crumb is added
// past the first page.
func (r *Renderer) breadcrumbs(c *types.Classification, data Data, name string) []namedURL {
	crumbs := []namedURL{{name: "Home", url: r.synth.URL("/")}}
	basePath := c.BasePath()

	if len(data.Parents) > 0 {
		for _, p := range data.Parents {
			if p.Name == "" {
				continue
			}
			crumbs = append(crumbs, namedURL{name: p.Name, url: r.synth.URL(p.Path)})
		}
		if name != "" && basePath != "/" {
			crumbs = append(crumbs, namedURL{name: name, url: r.synth.URL(basePath)})
		}
	} else {
		segs := strings.Split(strings.Trim(basePath, "/"), "/")
		current := ""
		for i, seg := range segs {
			if seg == "" {
				continue
			}
			current += "/" + seg
			label := synth.TitleCase(synth.HumanizeSegment(seg))
			if i == len(segs)-1 && name != "" {
				label = name
			}
			if label == "" {
				continue
			}
			crumbs = append(crumbs, namedURL{name: label, url: r.synth.URL(current)})
		}
	}

	if c.Page > 1 {
		pagePath := strings.TrimSuffix(basePath, "/") + "/page-" + strconv.Itoa(c.Page)
		crumbs = append(crumbs, namedURL{name: "Page " + strconv.Itoa(c.Page), url: r.synth.URL(pagePath)})
	}
	return crumbs
}

func renderHTML(h HeadTags) string {
	lines := make([]string, 0, 2+len(h.Meta)+len(h.Links)+len(h.JSONLD))
	lines = append(lines, "<title>"+synth.EscapeHTML(h.Title)+"</title>")
	for _, m := range h.Meta {
		if m.Property != "" {
			lines = append(lines, `<meta property="`+synth.EscapeHTML(m.Property)+`" content="`+synth.EscapeHTML(m.Content)+`" />`)
		} else {
			lines = append(lines, `<meta name="`+synth.EscapeHTML(m.Name)+`" content="`+synth.EscapeHTML(m.Content)+`" />`)
		}
	}
	for _, l := range h.Links {
		lines = append(lines, `<link rel="`+synth.EscapeHTML(l.Rel)+`" href="`+synth.EscapeHTML(l.Href)+`" />`)
	}
	for _, doc := range h.JSONLD {
		lines = append(lines, `<script type="application/ld+json">`+string(doc)+`</script>`)
	}
	return strings.Join(lines, "\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
