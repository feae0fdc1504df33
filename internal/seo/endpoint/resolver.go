// Package endpoint maps classified request paths to content API endpoints.
package endpoint

import (
	"net/url"
	"strconv"

	"github.com/educationmalaysia/seo-server/pkg/types"
)

// Listing defaults used by the live listing pages
const (
	UniversityPerPage = 21
	BlogPerPage       = 1000
)

// Resolve returns the upstream endpoint for a classification.
// ok is false when the page has no API-backed SEO content or the
// classification is malformed; Resolve never panics.
func Resolve(c types.Classification) (ep types.Endpoint, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ep, ok = types.Endpoint{}, false
		}
	}()

	switch c.PageType {
	case types.PageTypeHome:
		return static("/home")

	case types.PageTypeCoursesList:
		return coursesListing(c)

	case types.PageTypeUniversityList:
		if c.Param(types.ParamType) == "" && !c.PageFromPath {
			return static("/universities")
		}
		q := cloneQuery(c.Query)
		q.Set("page", strconv.Itoa(pageOf(c)))
		if q.Get("per_page") == "" {
			q.Set("per_page", strconv.Itoa(UniversityPerPage))
		}
		return types.Endpoint{Path: "/universities/universities-in-malaysia", Query: q}, true

	case types.PageTypeUniversityDetail:
		return detail("/university-details", c.Param(types.ParamSlug))

	case types.PageTypeUniversityCourseDetail:
		return detail("/university-course-details", c.Param(types.ParamSlug), c.Param(types.ParamCourseSlug))

	case types.PageTypeExamList:
		return static("/exams")

	case types.PageTypeExamDetail:
		return detail("/exam-details", c.Param(types.ParamSlug))

	case types.PageTypeServiceList:
		return static("/services")

	case types.PageTypeServiceDetail:
		return detail("/service-details", c.Param(types.ParamSlug))

	case types.PageTypeBlogList:
		return types.Endpoint{Path: "/blog", Query: blogQuery(c, "")}, true

	case types.PageTypeBlogCategory:
		category, valid := decodeSegment(c.Param(types.ParamCategory))
		if !valid {
			return types.Endpoint{}, false
		}
		return types.Endpoint{Path: "/blog", Query: blogQuery(c, category)}, true

	case types.PageTypeBlogDetail:
		return detail("/blog-details", c.Param(types.ParamCategory), c.Param(types.ParamSlugWithID))

	case types.PageTypeScholarshipList:
		return static("/scholarships")

	case types.PageTypeScholarshipDetail:
		return detail("/scholarship-details", c.Param(types.ParamSlug))

	case types.PageTypeSpecializationList:
		return static("/specializations/course-categories")

	case types.PageTypeSpecializationDetail:
		return detail("/specialization-detail-by-slug", c.Param(types.ParamSlug))

	case types.PageTypeFAQ:
		return static("/faqs")

	case types.PageTypeCourseDetail:
		return detail("/courses", c.Param(types.ParamSlug))
	}

	return types.Endpoint{}, false
}

// coursesListing carries the listing query through, sets the page and
// applies any filter inferred from a "{slug}-courses" path
func coursesListing(c types.Classification) (types.Endpoint, bool) {
	q := cloneQuery(c.Query)
	q.Set("page", strconv.Itoa(pageOf(c)))
	for k, v := range c.Filters {
		q.Set(k, v)
	}
	return types.Endpoint{Path: "/courses-in-malaysia", Query: q}, true
}

func blogQuery(c types.Classification, category string) url.Values {
	q := url.Values{}
	if category != "" {
		q.Set("category_slug", category)
	}
	q.Set("page", strconv.Itoa(pageOf(c)))
	q.Set("per_page", strconv.Itoa(BlogPerPage))
	return q
}

func static(path string) (types.Endpoint, bool) {
	return types.Endpoint{Path: path}, true
}

// detail joins escaped route parameters onto prefix. Any missing or
// undecodable parameter makes the endpoint unresolvable.
func detail(prefix string, params ...string) (types.Endpoint, bool) {
	path := prefix
	for _, p := range params {
		decoded, ok := decodeSegment(p)
		if !ok {
			return types.Endpoint{}, false
		}
		path += "/" + url.PathEscape(decoded)
	}
	return types.Endpoint{Path: path}, true
}

func decodeSegment(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil || decoded == "" {
		return "", false
	}
	return decoded, true
}

func pageOf(c types.Classification) int {
	if c.Page < 1 {
		return 1
	}
	return c.Page
}

func cloneQuery(q url.Values) url.Values {
	out := make(url.Values, len(q)+2)
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}
