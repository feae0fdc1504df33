package events

import (
	"time"

	"github.com/educationmalaysia/seo-server/internal/seo/pipeline"
)

// Event type constants
const (
	EventTypePage    = "page"
	EventTypeStatic  = "static"
	EventTypeHeadAPI = "head_api"
	EventTypeError   = "error"
)

// RequestInfo carries the per-request facts known to the HTTP layer
type RequestInfo struct {
	RequestID  string
	EventType  string
	Method     string
	Path       string
	Query      string
	UserAgent  string
	ClientIP   string
	Crawler    string
	StatusCode int
	PageSize   int64
	Duration   time.Duration

	ErrorType    string
	ErrorMessage string
}

// BuildRequestEvent creates a RequestEvent from request info and an
// optional resolution
func BuildRequestEvent(info RequestInfo, res *pipeline.Resolution, instanceID string) *RequestEvent {
	event := &RequestEvent{
		RequestID:    info.RequestID,
		CreatedAt:    time.Now().UTC(),
		InstanceID:   instanceID,
		EventType:    info.EventType,
		Method:       info.Method,
		Path:         info.Path,
		Query:        info.Query,
		UserAgent:    info.UserAgent,
		ClientIP:     info.ClientIP,
		Crawler:      info.Crawler,
		StatusCode:   info.StatusCode,
		PageSize:     info.PageSize,
		ServeTime:    info.Duration.Seconds(),
		ErrorType:    info.ErrorType,
		ErrorMessage: info.ErrorMessage,
	}

	if info.ErrorType != "" {
		event.EventType = EventTypeError
	}

	if res != nil {
		event.PageType = string(res.Classification.PageType)
		event.Route = res.Classification.Route
		event.Endpoint = res.EndpointString()
		event.UpstreamURL = res.UpstreamURL
		event.Source = res.Source
		event.FetchResult = res.Outcome
		event.Title = res.Tags.Title
		event.Canonical = res.Tags.Canonical
	}

	return event
}
