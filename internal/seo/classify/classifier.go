// Package classify maps request paths to page types.
//
// Classification is pure: the same path and query always produce the same
// result, and unmatched paths fall through to PageTypeNotFound rather than
// failing.
package classify

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/educationmalaysia/seo-server/pkg/types"
)

// Classify matches pathname against the route table and extracts route
// parameters, course filters and the current page.
//
// A "/page-N" path suffix always wins over a "page" query parameter.
func Classify(pathname, rawQuery string) types.Classification {
	rawQuery = strings.TrimPrefix(rawQuery, "?")
	query, _ := url.ParseQuery(rawQuery)
	if query == nil {
		query = url.Values{}
	}

	c := types.Classification{
		PageType: types.PageTypeNotFound,
		Path:     pathname,
		RawQuery: rawQuery,
		Query:    query,
		Page:     1,
	}

	segs := splitPath(pathname)
	pathPage := noPageSegment

	for _, r := range routeTable {
		params, page, ok := r.match(segs)
		if !ok {
			continue
		}
		c.PageType = r.pageType
		c.Route = r.name
		c.Params = params
		c.Paginated = r.paged
		pathPage = page
		if r.extract != nil {
			r.extract(&c)
		}
		break
	}

	if pathPage != noPageSegment {
		c.PageFromPath = true
		c.PageSegment = segs[len(segs)-1]
		if pathPage != invalidPageNumber {
			c.Page = pathPage
			c.PageExplicit = true
			return c
		}
	}

	if n, ok := parsePageNumber(query.Get("page")); ok {
		c.Page = n
		c.PageExplicit = true
	}

	return c
}

// parsePageNumber accepts positive integers only
func parsePageNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// splitPath returns the non-empty segments of a path. "/" and "" yield no segments.
func splitPath(p string) []string {
	raw := strings.Split(p, "/")
	segs := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
