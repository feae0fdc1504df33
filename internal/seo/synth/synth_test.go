package synth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/educationmalaysia/seo-server/internal/common/configtypes"
	"github.com/educationmalaysia/seo-server/internal/seo/classify"
	"github.com/educationmalaysia/seo-server/pkg/types"
)

const origin = "https://www.educationmalaysia.in"

func newSynth() *Synthesizer {
	return New(SiteFromConfig(configtypes.SiteConfig{URL: origin + "/"}))
}

func classified(path, query string) *types.Classification {
	c := classify.Classify(path, query)
	return &c
}

func TestSynthesize_RootWithoutPayload(t *testing.T) {
	tags := newSynth().Synthesize(classified("/", ""), nil)

	assert.Equal(t, "Home | Education Malaysia", tags.Title)
	assert.Equal(t, origin+"/", tags.Canonical)
	assert.Equal(t, configtypes.DefaultDescription, tags.Description)
	assert.Equal(t, origin+"/favicon.png", tags.OGImage)
	assert.Empty(t, tags.Keywords)
	assert.Empty(t, tags.PrevURL)
	assert.Empty(t, tags.NextURL)
}

func TestSynthesize_FallbackCompleteness(t *testing.T) {
	s := newSynth()
	paths := []string{
		"/", "", "/faqs", "/university/taylors-university", "/diploma-courses/page-4",
		"/blog/study-tips/how-to-apply-123", "/unknown/page", "/%zz", "/-/", "/universities?page=3",
	}
	for _, p := range paths {
		c := classify.Classify(p, "")
		tags := s.Synthesize(&c, nil)
		assert.NotEmpty(t, tags.Title, p)
		assert.NotEmpty(t, tags.Description, p)
		assert.NotEmpty(t, tags.Canonical, p)
		assert.NotEmpty(t, tags.OGImage, p)
		assert.True(t, strings.HasPrefix(tags.Canonical, origin+"/"), p)
	}
}

func TestSynthesize_NoUndefinedInCanonical(t *testing.T) {
	s := newSynth()
	paths := []string{
		"/undefined",
		"/university/undefined",
		"/blog/undefined/undefined",
		"/undefined-courses/page-2",
		"/courses-in-malaysia",
	}
	queries := []string{"", "page=undefined", "level=diploma&intake=undefined", "undefined"}
	payloads := []*types.SeoPayload{
		nil,
		{},
		{PageURL: "undefined"},
		{PageURL: "https://www.educationmalaysia.in/undefined"},
		{PageURL: "/university/undefined"},
		{MetaTitle: "Only a title"},
	}

	for _, p := range paths {
		for _, q := range queries {
			for _, payload := range payloads {
				c := classify.Classify(p, q)
				tags := s.Synthesize(&c, payload)
				assert.NotContains(t, tags.Canonical, "undefined", "%s?%s %+v", p, q, payload)
				assert.NotContains(t, tags.PrevURL, "undefined")
				assert.NotContains(t, tags.NextURL, "undefined")
				assert.True(t, strings.HasPrefix(tags.Canonical, "https://"))
			}
		}
	}
}

func TestSynthesize_Placeholders(t *testing.T) {
	s := newSynth()
	c := classified("/university/taylors-university", "")

	tags := s.Synthesize(c, &types.SeoPayload{MetaTitle: "%title%", MetaDescription: "%description%"})
	assert.Equal(t, "University | Taylors university | Education Malaysia", tags.Title)
	assert.Equal(t, configtypes.DefaultDescription, tags.Description)

	tags = s.Synthesize(c, &types.SeoPayload{MetaTitle: "  ", MetaDescription: " %description% "})
	assert.Equal(t, "University | Taylors university | Education Malaysia", tags.Title)
	assert.Equal(t, configtypes.DefaultDescription, tags.Description)
}

func TestSynthesize_PayloadFields(t *testing.T) {
	s := newSynth()
	c := classified("/university/taylors-university", "ref=home")
	tags := s.Synthesize(c, &types.SeoPayload{
		MetaTitle:       "“Taylor's University”",
		MetaDescription: "Study at Taylor's",
		MetaKeyword:     "taylors, malaysia",
		PageURL:         "https://www.educationmalaysia.in/university/taylors-university",
		OGImagePath:     "//uploads/university/taylors.png",
	})

	assert.Equal(t, "Taylor's University", tags.Title)
	assert.Equal(t, "Study at Taylor's", tags.Description)
	assert.Equal(t, "taylors, malaysia", tags.Keywords)
	assert.Equal(t, origin+"/university/taylors-university", tags.Canonical)
	assert.Equal(t, origin+"/storage/uploads/university/taylors.png", tags.OGImage)
}

func TestSynthesize_PartialPayload(t *testing.T) {
	tags := newSynth().Synthesize(classified("/faqs", ""), &types.SeoPayload{MetaTitle: "FAQs"})
	assert.Equal(t, "FAQs", tags.Title)
	assert.Equal(t, configtypes.DefaultDescription, tags.Description)
	assert.Equal(t, origin+"/faqs", tags.Canonical)
	assert.Equal(t, origin+"/favicon.png", tags.OGImage)
}

func TestCanonical(t *testing.T) {
	s := newSynth()
	tests := []struct {
		name     string
		path     string
		query    string
		pageURL  string
		expected string
	}{
		{"request url with query", "/courses-in-malaysia", "level=diploma&page=2", "", origin + "/courses-in-malaysia?level=diploma&page=2"},
		{"absolute payload url", "/x", "", "http://example.org/y", "http://example.org/y"},
		{"root relative payload url", "/x", "", "/scholarships", origin + "/scholarships"},
		{"protocol relative rejected", "/x", "", "//evil.example/y", origin + "/x"},
		{"bare word rejected", "/x", "", "scholarships", origin + "/x"},
		{"undefined segments dropped", "/blog/undefined/post-1", "", "", origin + "/blog/post-1"},
		{"undefined query pairs dropped", "/blog", "page=undefined", "", origin + "/blog"},
		{"empty path", "", "", "", origin + "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &types.Classification{Path: tt.path, RawQuery: tt.query}
			assert.Equal(t, tt.expected, s.Canonical(c, tt.pageURL))
		})
	}
}

func TestImage(t *testing.T) {
	s := newSynth()
	assert.Equal(t, origin+"/favicon.png", s.Image(""))
	assert.Equal(t, origin+"/favicon.png", s.Image("///"))
	assert.Equal(t, "https://cdn.example.com/a.png", s.Image("https://cdn.example.com/a.png"))
	assert.Equal(t, "HTTP://cdn.example.com/a.png", s.Image("HTTP://cdn.example.com/a.png"))
	assert.Equal(t, origin+"/storage/exams/ielts.jpg", s.Image("/exams/ielts.jpg"))
	assert.Equal(t, origin+"/storage/exams/ielts.jpg", s.Image("exams/ielts.jpg"))
}

func TestPagination(t *testing.T) {
	s := newSynth()
	tests := []struct {
		path  string
		query string
		prev  string
		next  string
	}{
		{"/diploma-courses/page-3", "", origin + "/diploma-courses/page-2", origin + "/diploma-courses/page-4"},
		{"/diploma-courses/page-2", "", origin + "/diploma-courses", origin + "/diploma-courses/page-3"},
		{"/diploma-courses", "", "", origin + "/diploma-courses/page-2"},
		{"/diploma-courses/PAGE-3", "", origin + "/diploma-courses/page-2", origin + "/diploma-courses/page-4"},
		{"/courses-in-malaysia", "page=5", origin + "/courses-in-malaysia/page-4", origin + "/courses-in-malaysia/page-6"},
		{"/universities/private-universities/page-2", "", origin + "/universities/private-universities", origin + "/universities/private-universities/page-3"},
		{"/universities/page-2", "", origin + "/universities", origin + "/universities/page-3"},
		{"/blog", "", "", origin + "/blog/page-2"},
		{"/blog", "page=3", origin + "/blog/page-2", origin + "/blog/page-4"},
		{"/blog/news/page-2", "", origin + "/blog/news", origin + "/blog/news/page-3"},
		{"/faqs", "page=3", origin + "/faqs?page=2", origin + "/faqs?page=4"},
		{"/scholarships", "page=2", origin + "/scholarships", origin + "/scholarships?page=3"},
	}
	for _, tt := range tests {
		t.Run(tt.path+"?"+tt.query, func(t *testing.T) {
			prev, next := s.Pagination(classified(tt.path, tt.query))
			assert.Equal(t, tt.prev, prev)
			assert.Equal(t, tt.next, next)
		})
	}
}

func TestPagination_NotForDetailPages(t *testing.T) {
	prev, next := newSynth().Pagination(classified("/university/taylors-university", ""))
	assert.Empty(t, prev)
	assert.Empty(t, next)

	prev, next = newSynth().Pagination(classified("/faqs", "page=1"))
	assert.Empty(t, prev)
	assert.Empty(t, next)
}

func TestPagination_LinksClassifyBack(t *testing.T) {
	s := newSynth()
	requests := []struct{ path, query string }{
		{"/courses-in-malaysia", ""},
		{"/courses-in-malaysias", "page=4"},
		{"/courses-in-malaysia/page-3", ""},
		{"/diploma-courses", ""},
		{"/diploma-courses/PAGE-3", ""},
		{"/diploma-courses/page-2/", ""},
		{"/universities", ""},
		{"/universities/page-2", ""},
		{"/universities/private-universities", "page=3"},
		{"/blog", "page=3"},
		{"/blog/page-2", ""},
		{"/blog/news", ""},
		{"/blog/news/page-5", ""},
		{"/faqs", "page=3"},
		{"/scholarships", "page=2"},
		{"/university/taylors-university", "page=4"},
	}

	for _, r := range requests {
		t.Run(r.path+"?"+r.query, func(t *testing.T) {
			c := classified(r.path, r.query)
			prev, next := s.Pagination(c)
			require.NotEmpty(t, next)

			links := map[string]int{next: c.Page + 1}
			if prev != "" {
				links[prev] = c.Page - 1
			}
			for link, page := range links {
				require.True(t, strings.HasPrefix(link, origin), link)
				path, query, _ := strings.Cut(strings.TrimPrefix(link, origin), "?")
				back := classify.Classify(path, query)
				assert.Equal(t, c.Route, back.Route, link)
				assert.Equal(t, c.Params, back.Params, link)
				assert.Equal(t, c.Filters, back.Filters, link)
				assert.Equal(t, page, back.Page, link)
			}
		})
	}
}

func TestHumanizePath(t *testing.T) {
	assert.Equal(t, "Home", HumanizePath("/"))
	assert.Equal(t, "Home", HumanizePath(""))
	assert.Equal(t, "Faqs", HumanizePath("/faqs"))
	assert.Equal(t, "Resources | Exams | Ielts", HumanizePath("/resources/exams/ielts"))
	assert.Equal(t, "Diploma courses | Page 3", HumanizePath("/diploma-courses/page-3"))
	assert.Equal(t, "Kuala lumpur", HumanizePath("/kuala%20lumpur"))
	assert.Equal(t, "%zz", HumanizePath("/%zz"))
	assert.Equal(t, "Évora", HumanizePath("/%C3%A9vora"))
	assert.Equal(t, "Home", HumanizePath("/-/"))
}

func TestStripQuotes(t *testing.T) {
	assert.Equal(t, "Title", StripQuotes(`"Title"`))
	assert.Equal(t, "Title", StripQuotes(`'Title'`))
	assert.Equal(t, "Title", StripQuotes("“Title”"))
	assert.Equal(t, "Title", StripQuotes("‘Title’"))
	assert.Equal(t, "Title", StripQuotes("«Title»"))
	assert.Equal(t, "Taylor's", StripQuotes("Taylor's"))
	assert.Equal(t, "", StripQuotes(`""`))
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "&lt;script&gt;alert(&quot;x&quot;)&lt;/script&gt;", EscapeHTML(`<script>alert("x")</script>`))
	assert.Equal(t, "Tom &amp; Jerry&#39;s", EscapeHTML("Tom & Jerry's"))
	assert.Equal(t, "&amp;lt;", EscapeHTML("&lt;"))
}

func TestSiteFromConfig_Defaults(t *testing.T) {
	site := SiteFromConfig(configtypes.SiteConfig{})
	require.Equal(t, configtypes.DefaultSiteURL, site.Origin)
	assert.Equal(t, configtypes.DefaultSiteName, site.Name)
	assert.Equal(t, configtypes.DefaultDescription, site.DefaultDescription)
	assert.Equal(t, configtypes.DefaultSiteURL+"/favicon.png", site.DefaultImage)

	site = SiteFromConfig(configtypes.SiteConfig{URL: "https://staging.educationmalaysia.in", DefaultImage: "https://cdn.example.com/og.png"})
	assert.Equal(t, "https://cdn.example.com/og.png", site.DefaultImage)
}
