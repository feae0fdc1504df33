package events

// EventEmitter is an access event sink. Emit never blocks on the caller's
// response and never reports errors back.
type EventEmitter interface {
	Emit(event *RequestEvent)
	Close() error
}

// NoopEmitter discards events. Used when event logging is disabled.
type NoopEmitter struct{}

func (n *NoopEmitter) Emit(event *RequestEvent) {}

func (n *NoopEmitter) Close() error { return nil }
