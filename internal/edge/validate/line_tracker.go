package validate

import (
	"strconv"

	"gopkg.in/yaml.v3"
)

// LineTracker maps dotted YAML field paths ("server.listen", "robots.noindex[1]")
// to their line numbers so validation messages can point at the source.
type LineTracker struct {
	lines map[string]int
}

// NewLineTracker parses YAML data and records field line numbers
func NewLineTracker(data []byte) (*LineTracker, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}

	tracker := &LineTracker{lines: make(map[string]int)}
	tracker.extractLines(&node, "")
	return tracker, nil
}

// GetLine returns the line number for a field path, or 0 when unknown.
// Safe on a nil tracker.
func (lt *LineTracker) GetLine(path string) int {
	if lt == nil {
		return 0
	}
	return lt.lines[path]
}

func (lt *LineTracker) extractLines(node *yaml.Node, path string) {
	if node == nil {
		return
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) > 0 {
			lt.extractLines(node.Content[0], path)
		}

	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			newPath := key.Value
			if path != "" {
				newPath = path + "." + key.Value
			}
			lt.lines[newPath] = key.Line
			lt.extractLines(node.Content[i+1], newPath)
		}

	case yaml.SequenceNode:
		for i, item := range node.Content {
			indexPath := path + "[" + strconv.Itoa(i) + "]"
			lt.lines[indexPath] = item.Line
			lt.extractLines(item, indexPath)
		}

	case yaml.ScalarNode:
		if _, seen := lt.lines[path]; !seen {
			lt.lines[path] = node.Line
		}
	}
}
