// Package inject writes resolved SEO tags into a static HTML shell.
package inject

import (
	"strings"

	"github.com/educationmalaysia/seo-server/internal/seo/synth"
	"github.com/educationmalaysia/seo-server/pkg/types"
)

const headClose = "</head>"

// Tags renders the tag block in its fixed order. Every value is escaped.
func Tags(tags types.ResolvedTags) []string {
	title := synth.EscapeHTML(tags.Title)
	description := synth.EscapeHTML(tags.Description)
	canonical := synth.EscapeHTML(tags.Canonical)
	image := synth.EscapeHTML(tags.OGImage)

	out := make([]string, 0, 13)
	out = append(out,
		"<title>"+title+"</title>",
		`<meta name="description" content="`+description+`" />`,
	)
	if tags.Keywords != "" {
		out = append(out, `<meta name="keywords" content="`+synth.EscapeHTML(tags.Keywords)+`" />`)
	}
	out = append(out,
		`<link rel="canonical" href="`+canonical+`" />`,
		`<meta property="og:title" content="`+title+`" />`,
		`<meta property="og:description" content="`+description+`" />`,
		`<meta property="og:url" content="`+canonical+`" />`,
		`<meta property="og:image" content="`+image+`" />`,
		`<meta property="og:type" content="website" />`,
		`<meta name="twitter:card" content="summary_large_image" />`,
		`<meta name="twitter:title" content="`+title+`" />`,
		`<meta name="twitter:description" content="`+description+`" />`,
		`<meta name="twitter:image" content="`+image+`" />`,
	)
	return out
}

// Block joins the rendered tags into the fragment inserted into the shell
func Block(tags types.ResolvedTags) string {
	return "    " + strings.Join(Tags(tags), "\n    ") + "\n  "
}

// Inject inserts the tag block immediately before the first </head>.
// HTML without a closing head tag is returned unchanged.
func Inject(html string, tags types.ResolvedTags) string {
	idx := strings.Index(html, headClose)
	if idx < 0 {
		return html
	}

	block := Block(tags)
	var b strings.Builder
	b.Grow(len(html) + len(block))
	b.WriteString(html[:idx])
	b.WriteString(block)
	b.WriteString(html[idx:])
	return b.String()
}
