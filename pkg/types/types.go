package types

import (
	"net/url"
	"strings"
)

// PageType identifies which kind of page a request path represents
type PageType string

const (
	PageTypeHome                   PageType = "home"
	PageTypeCoursesList            PageType = "courses-list"
	PageTypeUniversityList         PageType = "university-list"
	PageTypeUniversityDetail       PageType = "university-detail"
	PageTypeUniversityCourseDetail PageType = "university-course-detail"
	PageTypeExamList               PageType = "exam-list"
	PageTypeExamDetail             PageType = "exam-detail"
	PageTypeServiceList            PageType = "service-list"
	PageTypeServiceDetail          PageType = "service-detail"
	PageTypeBlogList               PageType = "blog-list"
	PageTypeBlogCategory           PageType = "blog-category"
	PageTypeBlogDetail             PageType = "blog-detail"
	PageTypeScholarshipList        PageType = "scholarship-list"
	PageTypeScholarshipDetail      PageType = "scholarship-detail"
	PageTypeSpecializationList     PageType = "specialization-list"
	PageTypeSpecializationDetail   PageType = "specialization-detail"
	PageTypeFAQ                    PageType = "faq"
	PageTypeCourseDetail           PageType = "course-detail"
	PageTypeNotFound               PageType = "not-found"
)

// AllPageTypes lists every page type in declaration order
var AllPageTypes = []PageType{
	PageTypeHome,
	PageTypeCoursesList,
	PageTypeUniversityList,
	PageTypeUniversityDetail,
	PageTypeUniversityCourseDetail,
	PageTypeExamList,
	PageTypeExamDetail,
	PageTypeServiceList,
	PageTypeServiceDetail,
	PageTypeBlogList,
	PageTypeBlogCategory,
	PageTypeBlogDetail,
	PageTypeScholarshipList,
	PageTypeScholarshipDetail,
	PageTypeSpecializationList,
	PageTypeSpecializationDetail,
	PageTypeFAQ,
	PageTypeCourseDetail,
	PageTypeNotFound,
}

// ParsePageType returns the page type for a string, or false if unknown
func ParsePageType(s string) (PageType, bool) {
	for _, pt := range AllPageTypes {
		if string(pt) == s {
			return pt, true
		}
	}
	return "", false
}

// IsDetail reports whether the page type describes a single content item
func (p PageType) IsDetail() bool {
	return strings.HasSuffix(string(p), "-detail")
}

// IsPaginatedListing reports whether the page type is a listing that carries page links
func (p PageType) IsPaginatedListing() bool {
	switch p {
	case PageTypeCoursesList, PageTypeUniversityList, PageTypeBlogList, PageTypeBlogCategory:
		return true
	}
	return false
}

// Course filter keys, as understood by the content API
const (
	FilterLevel          = "level"
	FilterIntake         = "intake"
	FilterStudyMode      = "study_mode"
	FilterSpecialization = "specialization"
	FilterCategory       = "category"
)

// Route parameter names
const (
	ParamSlug       = "slug"
	ParamCourseSlug = "courseSlug"
	ParamCategory   = "category"
	ParamSlugWithID = "slugWithId"
	ParamType       = "type"
	ParamFilterSlug = "filterSlug"
)

// Classification is the result of matching a request path against the route table.
// It is computed per request and never persisted.
type Classification struct {
	PageType PageType
	Route    string // name of the matched route, empty for not-found

	Path     string     // request path as received
	RawQuery string     // query string without leading '?'
	Query    url.Values // parsed query

	Params  map[string]string // extracted route parameters (slug, category, ...)
	Filters map[string]string // inferred course listing filters

	Page         int    // 1-based page number
	PageExplicit bool   // page came from the path or the query string
	PageFromPath bool   // page came from a /page-N suffix
	PageSegment  string // the consumed suffix segment as received, e.g. "PAGE-3"
	Paginated    bool   // the matched route accepts a /page-N suffix
}

// Param returns a route parameter or empty string
func (c *Classification) Param(name string) string {
	if c == nil || c.Params == nil {
		return ""
	}
	return c.Params[name]
}

// BasePath returns the request path with any /page-N suffix and trailing slash removed
func (c *Classification) BasePath() string {
	p := strings.TrimSuffix(c.Path, "/")
	if c.PageFromPath && c.PageSegment != "" {
		p = strings.TrimSuffix(p, "/"+c.PageSegment)
	}
	if p == "" {
		return "/"
	}
	return p
}

// SeoPayload is the SEO subset of a content API response. Every field is optional.
type SeoPayload struct {
	MetaTitle       string `json:"meta_title,omitempty"`
	MetaDescription string `json:"meta_description,omitempty"`
	MetaKeyword     string `json:"meta_keyword,omitempty"`
	PageURL         string `json:"page_url,omitempty"`
	OGImagePath     string `json:"og_image_path,omitempty"`
}

// Placeholders the content API returns when a field was never filled in
const (
	TitlePlaceholder       = "%title%"
	DescriptionPlaceholder = "%description%"
)

// SeoFieldNames lists the fields that mark a JSON object as SEO-shaped
var SeoFieldNames = []string{"meta_title", "meta_description", "meta_keyword", "page_url", "og_image_path"}

// ResolvedTags is the synthesized tag set for one page.
// Title, Description, Canonical and OGImage are never empty.
type ResolvedTags struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
	Canonical   string `json:"canonical"`
	OGImage     string `json:"og_image"`
	PrevURL     string `json:"prev_url,omitempty"`
	NextURL     string `json:"next_url,omitempty"`
}

// Endpoint is an upstream content API path plus its query parameters
type Endpoint struct {
	Path  string
	Query url.Values
}

// String renders the endpoint as path?query
func (e Endpoint) String() string {
	if len(e.Query) == 0 {
		return e.Path
	}
	return e.Path + "?" + e.Query.Encode()
}

// Payload sources reported in logs, metrics and events
const (
	PayloadSourceNone     = "none"
	PayloadSourceUpstream = "upstream"
	PayloadSourceCache    = "cache"
)
