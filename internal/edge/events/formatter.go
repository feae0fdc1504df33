package events

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Formatter renders an event as one log line (without the newline)
type Formatter interface {
	Format(event *RequestEvent) string
}

// TemplateFormatter formats RequestEvent using a template string
type TemplateFormatter struct {
	template     string
	placeholders []placeholder
}

type placeholder struct {
	field string
	start int
	end   int
}

// fieldFormatters maps every known placeholder to its value getter
var fieldFormatters = map[string]func(*RequestEvent) string{
	"timestamp":     func(e *RequestEvent) string { return formatTime(e.CreatedAt) },
	"request_id":    func(e *RequestEvent) string { return formatString(e.RequestID) },
	"instance_id":   func(e *RequestEvent) string { return formatString(e.InstanceID) },
	"event_type":    func(e *RequestEvent) string { return formatString(e.EventType) },
	"method":        func(e *RequestEvent) string { return formatString(e.Method) },
	"path":          func(e *RequestEvent) string { return formatString(e.Path) },
	"query":         func(e *RequestEvent) string { return formatString(e.Query) },
	"user_agent":    func(e *RequestEvent) string { return formatString(e.UserAgent) },
	"client_ip":     func(e *RequestEvent) string { return formatString(e.ClientIP) },
	"crawler":       func(e *RequestEvent) string { return formatString(e.Crawler) },
	"page_type":     func(e *RequestEvent) string { return formatString(e.PageType) },
	"route":         func(e *RequestEvent) string { return formatString(e.Route) },
	"endpoint":      func(e *RequestEvent) string { return formatString(e.Endpoint) },
	"upstream_url":  func(e *RequestEvent) string { return formatString(e.UpstreamURL) },
	"source":        func(e *RequestEvent) string { return formatString(e.Source) },
	"fetch_result":  func(e *RequestEvent) string { return formatString(e.FetchResult) },
	"title":         func(e *RequestEvent) string { return formatString(e.Title) },
	"canonical":     func(e *RequestEvent) string { return formatString(e.Canonical) },
	"status_code":   func(e *RequestEvent) string { return strconv.Itoa(e.StatusCode) },
	"page_size":     func(e *RequestEvent) string { return strconv.FormatInt(e.PageSize, 10) },
	"serve_time":    func(e *RequestEvent) string { return formatFloat(e.ServeTime) },
	"error_type":    func(e *RequestEvent) string { return formatString(e.ErrorType) },
	"error_message": func(e *RequestEvent) string { return formatString(e.ErrorMessage) },
}

// ValidateTemplate reports whether template only uses known placeholders
func ValidateTemplate(template string) error {
	_, err := parsePlaceholders(template)
	return err
}

// NewTemplateFormatter parses and validates the template.
// Returns error if any placeholder is unknown or template is empty.
func NewTemplateFormatter(template string) (*TemplateFormatter, error) {
	if template == "" {
		return nil, fmt.Errorf("template cannot be empty")
	}

	placeholders, err := parsePlaceholders(template)
	if err != nil {
		return nil, err
	}

	return &TemplateFormatter{
		template:     template,
		placeholders: placeholders,
	}, nil
}

func parsePlaceholders(template string) ([]placeholder, error) {
	var placeholders []placeholder
	i := 0

	for i < len(template) {
		start := strings.Index(template[i:], "{")
		if start == -1 {
			break
		}
		start += i

		end := strings.Index(template[start:], "}")
		if end == -1 {
			return nil, fmt.Errorf("unclosed placeholder at position %d", start)
		}
		end += start

		field := template[start+1 : end]
		if field == "" {
			return nil, fmt.Errorf("empty placeholder at position %d", start)
		}
		if _, ok := fieldFormatters[field]; !ok {
			return nil, fmt.Errorf("unknown placeholder {%s}", field)
		}

		placeholders = append(placeholders, placeholder{
			field: field,
			start: start,
			end:   end + 1,
		})

		i = end + 1
	}

	return placeholders, nil
}

// Template returns the original template string
func (f *TemplateFormatter) Template() string {
	return f.template
}

// Format renders the event using the template
func (f *TemplateFormatter) Format(event *RequestEvent) string {
	if len(f.placeholders) == 0 {
		return f.template
	}

	var b strings.Builder
	b.Grow(len(f.template) * 2)
	last := 0
	for _, p := range f.placeholders {
		b.WriteString(f.template[last:p.start])
		b.WriteString(fieldFormatters[p.field](event))
		last = p.end
	}
	b.WriteString(f.template[last:])
	return b.String()
}

// JSONFormatter writes each event as a single JSON object
type JSONFormatter struct{}

func (JSONFormatter) Format(event *RequestEvent) string {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Sprintf(`{"request_id":%q,"error_message":%q}`, event.RequestID, err.Error())
	}
	return string(data)
}

func escapeString(s string) string {
	escaped := strings.ReplaceAll(s, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
	escaped = strings.ReplaceAll(escaped, "\n", "\\n")
	escaped = strings.ReplaceAll(escaped, "\t", "\\t")
	escaped = strings.ReplaceAll(escaped, "\r", "\\r")
	return escaped
}

// formatString quotes and escapes s, or returns "-" for empty values
func formatString(s string) string {
	if s == "" {
		return "-"
	}
	return "\"" + escapeString(s) + "\""
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.3f", f)
}

// formatTime formats a time in ISO 8601 format
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
