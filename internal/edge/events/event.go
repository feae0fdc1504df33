package events

import "time"

// RequestEvent is one access log record
type RequestEvent struct {
	RequestID  string    `json:"request_id"`
	CreatedAt  time.Time `json:"timestamp"`
	InstanceID string    `json:"instance_id,omitempty"`

	// Request
	EventType string `json:"event_type"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Query     string `json:"query,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	Crawler   string `json:"crawler,omitempty"`

	// Resolution
	PageType    string `json:"page_type,omitempty"`
	Route       string `json:"route,omitempty"`
	Endpoint    string `json:"endpoint,omitempty"`
	UpstreamURL string `json:"upstream_url,omitempty"`
	Source      string `json:"source,omitempty"`
	FetchResult string `json:"fetch_result,omitempty"`
	Title       string `json:"title,omitempty"`
	Canonical   string `json:"canonical,omitempty"`

	// Response
	StatusCode int     `json:"status_code"`
	PageSize   int64   `json:"page_size"`
	ServeTime  float64 `json:"serve_time"` // seconds

	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}
