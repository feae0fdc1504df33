package htmlprocessor

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const maxJSONLDDepth = 10

// findElement returns the first element named tag in node's subtree (case-insensitive)
func findElement(node *html.Node, tag string) *html.Node {
	if node == nil {
		return nil
	}
	return findElementLower(node, strings.ToLower(tag))
}

func findElementLower(node *html.Node, lowerTag string) *html.Node {
	if node.Type == html.ElementNode && strings.ToLower(node.Data) == lowerTag {
		return node
	}
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if found := findElementLower(c, lowerTag); found != nil {
			return found
		}
	}
	return nil
}

// findElementInParent searches parent's descendants, excluding parent itself
func findElementInParent(parent *html.Node, tag string) *html.Node {
	if parent == nil {
		return nil
	}
	lowerTag := strings.ToLower(tag)
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if found := findElementLower(c, lowerTag); found != nil {
			return found
		}
	}
	return nil
}

// findAllElementsInParent returns all matching descendants in document order
func findAllElementsInParent(parent *html.Node, tag string) []*html.Node {
	if parent == nil {
		return nil
	}
	tag = strings.ToLower(tag)
	var results []*html.Node

	var search func(*html.Node)
	search = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.ToLower(n.Data) == tag {
			results = append(results, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			search(c)
		}
	}

	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		search(c)
	}
	return results
}

// getAttr returns the attribute value for name (case-insensitive) or ""
func getAttr(node *html.Node, name string) string {
	if node == nil {
		return ""
	}
	name = strings.ToLower(name)
	for _, attr := range node.Attr {
		if strings.ToLower(attr.Key) == name {
			return attr.Val
		}
	}
	return ""
}

func getTextContent(node *html.Node) string {
	if node == nil {
		return ""
	}

	var sb strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(node)
	return sb.String()
}

func truncateRunes(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// extractStructuredDataTypes collects @type values from JSON-LD scripts, sorted
func extractStructuredDataTypes(root *html.Node) []string {
	typeSet := make(map[string]struct{})

	for _, script := range findAllElementsInParent(root, "script") {
		if strings.ToLower(strings.TrimSpace(getAttr(script, "type"))) != "application/ld+json" {
			continue
		}
		content := getTextContent(script)
		if len(content) > maxJSONLDSize {
			continue
		}

		var v any
		if err := json.Unmarshal([]byte(content), &v); err != nil {
			continue
		}
		collectTypes(v, typeSet, 0)
	}

	if len(typeSet) == 0 {
		return nil
	}
	result := make([]string, 0, len(typeSet))
	for t := range typeSet {
		result = append(result, t)
	}
	sort.Strings(result)
	return result
}

func collectTypes(v any, typeSet map[string]struct{}, depth int) {
	if depth > maxJSONLDDepth {
		return
	}

	switch val := v.(type) {
	case map[string]any:
		switch t := val["@type"].(type) {
		case string:
			if t != "" {
				typeSet[t] = struct{}{}
			}
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok && s != "" {
					typeSet[s] = struct{}{}
				}
			}
		}
		for key, child := range val {
			if key != "@type" {
				collectTypes(child, typeSet, depth+1)
			}
		}
	case []any:
		for _, item := range val {
			collectTypes(item, typeSet, depth+1)
		}
	}
}
