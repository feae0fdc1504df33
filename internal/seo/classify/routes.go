package classify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/educationmalaysia/seo-server/pkg/types"
)

// matcher inspects path segments and returns route parameters on success.
// page is the value of a consumed "page-N" segment, or -1 when none was consumed.
type matcher func(segs []string) (params map[string]string, page int, ok bool)

// route is one entry of the ordered routing table
type route struct {
	name     string
	pageType types.PageType
	match    matcher
	paged    bool // accepts a trailing "page-N" segment

	// extract runs after a successful match and may add filters
	extract func(c *types.Classification)
}

var (
	pageSegmentRe     = regexp.MustCompile(`(?i)^page-(\d+)$`)
	coursesSegmentRe  = regexp.MustCompile(`(?i)^([a-z0-9-]+)-courses$`)
	noPageSegment     = -1
	invalidPageNumber = 0
)

// segmentsPattern builds a matcher from a template such as
// "/university/:slug/courses/:courseSlug". Literal segments compare
// case-insensitively. With pageSuffix an optional trailing "page-N" is
// accepted and a parameter never captures a "page-N" segment.
func segmentsPattern(template string, pageSuffix bool) matcher {
	parts := splitPath(template)

	return func(segs []string) (map[string]string, int, bool) {
		page := noPageSegment
		if pageSuffix && len(segs) == len(parts)+1 {
			n, ok := parsePageSegment(segs[len(segs)-1])
			if !ok {
				return nil, 0, false
			}
			page = n
			segs = segs[:len(segs)-1]
		}

		if len(segs) != len(parts) {
			return nil, 0, false
		}

		var params map[string]string
		for i, part := range parts {
			if name, isParam := strings.CutPrefix(part, ":"); isParam {
				if _, isPage := parsePageSegment(segs[i]); pageSuffix && isPage {
					return nil, 0, false
				}
				if params == nil {
					params = make(map[string]string, 2)
				}
				params[name] = segs[i]
				continue
			}
			if !strings.EqualFold(part, segs[i]) {
				return nil, 0, false
			}
		}
		return params, page, true
	}
}

// filteredCourses matches "/{slug}-courses" and "/{slug}-courses/page-N"
func filteredCourses(segs []string) (map[string]string, int, bool) {
	page := noPageSegment
	if len(segs) == 2 {
		n, ok := parsePageSegment(segs[1])
		if !ok {
			return nil, 0, false
		}
		page = n
		segs = segs[:1]
	}
	if len(segs) != 1 {
		return nil, 0, false
	}

	m := coursesSegmentRe.FindStringSubmatch(segs[0])
	if m == nil {
		return nil, 0, false
	}
	return map[string]string{types.ParamFilterSlug: strings.ToLower(m[1])}, page, true
}

// parsePageSegment recognises "page-N". A recognised segment with N < 1 returns invalidPageNumber.
func parsePageSegment(seg string) (int, bool) {
	m := pageSegmentRe.FindStringSubmatch(seg)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return invalidPageNumber, true
	}
	return n, true
}

// listing builds a paged route for a listing template
func listing(name string, pageType types.PageType, template string) route {
	return route{name: name, pageType: pageType, match: segmentsPattern(template, true), paged: true}
}

func inferFilters(c *types.Classification) {
	slug := c.Param(types.ParamFilterSlug)
	if slug == "" {
		return
	}
	key, value := InferCourseFilter(slug)
	c.Filters = map[string]string{key: value}
}

// routeTable is evaluated top to bottom; the first match wins.
// Exact static routes come first, then listings, then parameterized
// routes, then the "{slug}-courses" catch-all.
var routeTable = []route{
	// Exact static routes
	{name: "home", pageType: types.PageTypeHome, match: segmentsPattern("/", false)},
	{name: "faqs", pageType: types.PageTypeFAQ, match: segmentsPattern("/faqs", false)},
	{name: "scholarships", pageType: types.PageTypeScholarshipList, match: segmentsPattern("/scholarships", false)},
	{name: "specialization", pageType: types.PageTypeSpecializationList, match: segmentsPattern("/specialization", false)},
	{name: "exams", pageType: types.PageTypeExamList, match: segmentsPattern("/resources/exams", false)},
	{name: "services", pageType: types.PageTypeServiceList, match: segmentsPattern("/resources/services", false)},

	// Listings, with or without a "page-N" suffix. A lone suffix belongs to
	// the listing itself, so "/blog/page-2" is page 2 of the blog.
	listing("blog", types.PageTypeBlogList, "/blog"),
	listing("universities", types.PageTypeUniversityList, "/universities"),
	listing("courses-in-malaysia", types.PageTypeCoursesList, "/courses-in-malaysia"),
	listing("courses-in-malaysias", types.PageTypeCoursesList, "/courses-in-malaysias"),

	// Parameterized routes
	listing("universities-by-type", types.PageTypeUniversityList, "/universities/:type"),
	{name: "university", pageType: types.PageTypeUniversityDetail, match: segmentsPattern("/university/:slug", false)},
	{name: "university-course", pageType: types.PageTypeUniversityCourseDetail, match: segmentsPattern("/university/:slug/courses/:courseSlug", false)},
	{name: "exam", pageType: types.PageTypeExamDetail, match: segmentsPattern("/resources/exams/:slug", false)},
	{name: "service", pageType: types.PageTypeServiceDetail, match: segmentsPattern("/resources/services/:slug", false)},
	{name: "scholarship", pageType: types.PageTypeScholarshipDetail, match: segmentsPattern("/scholarships/:slug", false)},
	{name: "specialization-detail", pageType: types.PageTypeSpecializationDetail, match: segmentsPattern("/specialization/:slug", false)},
	listing("blog-category", types.PageTypeBlogCategory, "/blog/:category"),
	{name: "blog-post", pageType: types.PageTypeBlogDetail, match: segmentsPattern("/blog/:category/:slugWithId", false)},
	{name: "course", pageType: types.PageTypeCourseDetail, match: segmentsPattern("/courses/:slug", false)},

	// Filtered listing catch-all
	{name: "filtered-courses", pageType: types.PageTypeCoursesList, match: filteredCourses, paged: true, extract: inferFilters},
}

// RouteNames returns the route table names in evaluation order
func RouteNames() []string {
	names := make([]string, len(routeTable))
	for i, r := range routeTable {
		names[i] = r.name
	}
	return names
}
