package fetcher

import (
	"math"
	"reflect"
	"sort"
	"strconv"
	"unsafe"

	"github.com/educationmalaysia/seo-server/pkg/types"
)

// directCandidates are the locations where the content API usually places
// its SEO object, checked in order before falling back to a full search.
var directCandidates = [][]string{
	{"seo"},
	{"data", "seo"},
	{"data", "seos"},
	{"seos"},
	{"blog", "seo"},
	{"blog"},
	{"data"},
	{},
}

// ExtractSeoPayload finds the first SEO-shaped object in a decoded JSON
// document. Object roots are checked at the usual locations first; any
// object or array root is then searched in full. Returns nil when no object
// carries a non-empty SEO field.
func ExtractSeoPayload(doc any) *types.SeoPayload {
	if root, ok := doc.(map[string]any); ok {
		for _, path := range directCandidates {
			if obj, ok := lookup(root, path); ok && hasSeoShape(obj) {
				return toPayload(obj)
			}
		}
	}

	switch doc.(type) {
	case map[string]any, []any:
		if obj := search(doc, make(map[unsafe.Pointer]struct{})); obj != nil {
			return toPayload(obj)
		}
	}
	return nil
}

func lookup(root map[string]any, path []string) (map[string]any, bool) {
	var cur any = root
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur = m[key]
	}
	m, ok := cur.(map[string]any)
	return m, ok
}

// search walks objects and arrays depth-first, visiting object keys in
// sorted order, and returns the first SEO-shaped object.
func search(node any, seen map[unsafe.Pointer]struct{}) map[string]any {
	switch v := node.(type) {
	case map[string]any:
		if v == nil || markSeen(v, seen) {
			return nil
		}
		if hasSeoShape(v) {
			return v
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if found := search(v[k], seen); found != nil {
				return found
			}
		}

	case []any:
		if len(v) == 0 || markSeen(v, seen) {
			return nil
		}
		for _, item := range v {
			if found := search(item, seen); found != nil {
				return found
			}
		}
	}
	return nil
}

// markSeen records a container by identity and reports whether it was
// already visited
func markSeen(container any, seen map[unsafe.Pointer]struct{}) bool {
	ptr := reflect.ValueOf(container).UnsafePointer()
	if _, ok := seen[ptr]; ok {
		return true
	}
	seen[ptr] = struct{}{}
	return false
}

func hasSeoShape(obj map[string]any) bool {
	for _, field := range types.SeoFieldNames {
		if truthy(obj[field]) {
			return true
		}
	}
	return false
}

// truthy follows JSON value truthiness: empty strings, zero, false and null
// are falsy, objects and arrays are always truthy
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}

func toPayload(obj map[string]any) *types.SeoPayload {
	return &types.SeoPayload{
		MetaTitle:       fieldString(obj["meta_title"]),
		MetaDescription: fieldString(obj["meta_description"]),
		MetaKeyword:     fieldString(obj["meta_keyword"]),
		PageURL:         fieldString(obj["page_url"]),
		OGImagePath:     fieldString(obj["og_image_path"]),
	}
}

// fieldString keeps strings, renders numbers and drops everything else
func fieldString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}
