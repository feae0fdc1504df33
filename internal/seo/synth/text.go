package synth

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// HumanizePath turns a request path into a readable title fragment:
// "/university/taylors-university" becomes "University | Taylors university".
// The root path humanizes to "Home".
func HumanizePath(pathname string) string {
	var parts []string
	for _, seg := range strings.Split(pathname, "/") {
		if seg == "" {
			continue
		}
		if part := HumanizeSegment(seg); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "Home"
	}
	return strings.Join(parts, " | ")
}

// HumanizeSegment decodes one path segment, replaces hyphens with spaces
// and upper-cases the first letter
func HumanizeSegment(seg string) string {
	if decoded, err := url.PathUnescape(seg); err == nil {
		seg = decoded
	}
	seg = strings.TrimSpace(strings.ReplaceAll(seg, "-", " "))
	return upperFirst(seg)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// TitleCase upper-cases the first letter of every space separated word
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = upperFirst(w)
	}
	return strings.Join(words, " ")
}

const quoteChars = "\"'“”‘’«»"

// StripQuotes removes quote marks wrapping a title, ASCII and typographic
func StripQuotes(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), quoteChars))
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML escapes a value for an HTML text node or attribute.
// Ampersands are replaced in the same pass, so existing entities are
// escaped exactly once.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
