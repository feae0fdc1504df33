// Package htmlprocessor inspects the head of HTML documents: the SPA shell
// before injection and rendered pages after it.
package htmlprocessor

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

const (
	maxTitleLength       = 500
	maxDescriptionLength = 1000
	maxJSONLDSize        = 256 * 1024
)

// HeadSummary lists the SEO-relevant elements found in a document head
type HeadSummary struct {
	Title       string
	Description string
	Keywords    string
	Canonical   string
	Robots      string

	// Property/name -> first content value, e.g. "og:title", "twitter:card"
	OpenGraph map[string]string
	Twitter   map[string]string

	StructuredDataTypes []string

	TitleCount       int
	DescriptionCount int
	CanonicalCount   int
}

// Document is a parsed HTML document
type Document interface {
	// Title returns the trimmed text of the first <title> in <head>
	Title() string

	// Head summarizes the SEO elements in <head>
	Head() *HeadSummary

	// HTML re-serializes the DOM
	HTML() []byte
}

type domDocument struct {
	root *html.Node
	head *html.Node
}

// ParseWithDOM parses HTML bytes into a Document using DOM parsing.
func ParseWithDOM(htmlBytes []byte) (Document, error) {
	root, err := html.Parse(bytes.NewReader(htmlBytes))
	if err != nil {
		return nil, err
	}
	return &domDocument{root: root, head: findElement(root, "head")}, nil
}

func (d *domDocument) Title() string {
	title := findElementInParent(d.head, "title")
	if title == nil {
		return ""
	}
	return truncateRunes(collapseWhitespace(getTextContent(title)), maxTitleLength)
}

func (d *domDocument) Head() *HeadSummary {
	s := &HeadSummary{
		Title:     d.Title(),
		OpenGraph: make(map[string]string),
		Twitter:   make(map[string]string),
	}
	if d.head == nil {
		return s
	}

	s.TitleCount = len(findAllElementsInParent(d.head, "title"))

	for _, meta := range findAllElementsInParent(d.head, "meta") {
		name := strings.ToLower(getAttr(meta, "name"))
		property := strings.ToLower(getAttr(meta, "property"))
		content := strings.TrimSpace(getAttr(meta, "content"))

		switch {
		case name == "description":
			s.DescriptionCount++
			if s.DescriptionCount == 1 {
				s.Description = truncateRunes(content, maxDescriptionLength)
			}
		case name == "keywords":
			if s.Keywords == "" {
				s.Keywords = content
			}
		case name == "robots":
			if s.Robots == "" {
				s.Robots = content
			}
		case strings.HasPrefix(property, "og:"):
			setFirst(s.OpenGraph, property, content)
		case strings.HasPrefix(name, "twitter:"):
			setFirst(s.Twitter, name, content)
		}
	}

	for _, link := range findAllElementsInParent(d.head, "link") {
		if strings.ToLower(getAttr(link, "rel")) != "canonical" {
			continue
		}
		s.CanonicalCount++
		if s.CanonicalCount == 1 {
			s.Canonical = strings.TrimSpace(getAttr(link, "href"))
		}
	}

	s.StructuredDataTypes = extractStructuredDataTypes(d.root)
	return s
}

func (d *domDocument) HTML() []byte {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return nil
	}
	return buf.Bytes()
}

func setFirst(m map[string]string, key, value string) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}
