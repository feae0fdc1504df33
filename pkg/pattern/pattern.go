// Package pattern matches request paths against rules declared in configuration.
//
// Rule syntax:
//
//   - Exact (no prefix): case-insensitive exact match
//     Example: "/faqs" matches "/faqs" and "/FAQS"
//
//   - Wildcard (*): case-insensitive, * matches any run of characters
//     including "/"
//     Example: "/student/*" matches "/student/profile" and "/student/a/b"
//
//   - Regexp (~): case-sensitive regular expression
//     Example: "~^/account/password/.+$"
//
//   - Regexp (~*): case-insensitive regular expression
//     Example: "~*^/login|/signup$"
package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind is the matching strategy of a compiled pattern
type Kind int

const (
	KindExact Kind = iota
	KindWildcard
	KindRegexp
)

// Pattern is a compiled path rule
type Pattern struct {
	Original string
	Kind     Kind

	body string
	re   *regexp.Regexp
}

// Compile parses a rule string. It should be called once at config load time.
func Compile(raw string) (*Pattern, error) {
	if raw == "" {
		return nil, fmt.Errorf("pattern cannot be empty")
	}

	p := &Pattern{Original: raw}

	switch {
	case strings.HasPrefix(raw, "~*"):
		re, err := regexp.Compile("(?i)" + raw[2:])
		if err != nil {
			return nil, fmt.Errorf("invalid regexp pattern '%s': %w", raw, err)
		}
		p.Kind, p.body, p.re = KindRegexp, raw[2:], re
	case strings.HasPrefix(raw, "~"):
		re, err := regexp.Compile(raw[1:])
		if err != nil {
			return nil, fmt.Errorf("invalid regexp pattern '%s': %w", raw, err)
		}
		p.Kind, p.body, p.re = KindRegexp, raw[1:], re
	case strings.Contains(raw, "*"):
		p.Kind, p.body = KindWildcard, strings.ToLower(raw)
	default:
		p.Kind, p.body = KindExact, raw
	}

	return p, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and static tables.
func MustCompile(raw string) *Pattern {
	p, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether input satisfies the pattern
func (p *Pattern) Match(input string) bool {
	if p == nil {
		return false
	}

	switch p.Kind {
	case KindRegexp:
		return p.re != nil && p.re.MatchString(input)
	case KindWildcard:
		return MatchWildcard(strings.ToLower(input), p.body)
	default:
		return strings.EqualFold(input, p.body)
	}
}

// Set is an ordered list of compiled patterns
type Set []*Pattern

// CompileSet compiles every rule, failing on the first invalid one
func CompileSet(rules []string) (Set, error) {
	set := make(Set, 0, len(rules))
	for _, r := range rules {
		p, err := Compile(r)
		if err != nil {
			return nil, err
		}
		set = append(set, p)
	}
	return set, nil
}

// MatchAny returns the first pattern matching input, or nil
func (s Set) MatchAny(input string) *Pattern {
	for _, p := range s {
		if p.Match(input) {
			return p
		}
	}
	return nil
}

// MatchWildcard matches text against a pattern where * spans any characters.
// Both arguments are compared as-is; callers lower-case them for case-insensitive use.
func MatchWildcard(text, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return text == pattern
	}

	parts := strings.Split(pattern, "*")

	if !strings.HasPrefix(text, parts[0]) {
		return false
	}
	text = text[len(parts[0]):]

	last := parts[len(parts)-1]
	if !strings.HasSuffix(text, last) {
		return false
	}
	text = text[:len(text)-len(last)]

	for _, mid := range parts[1 : len(parts)-1] {
		if mid == "" {
			continue
		}
		idx := strings.Index(text, mid)
		if idx == -1 {
			return false
		}
		text = text[idx+len(mid):]
	}

	return true
}
