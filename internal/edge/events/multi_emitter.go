package events

import (
	"errors"
	"sync/atomic"

	"go.uber.org/zap"
)

// MultiEmitter fans events out to several backends. A panicking backend is
// logged and skipped so a broken sink never fails the request being logged.
type MultiEmitter struct {
	emitters []EventEmitter
	closed   atomic.Bool
	logger   *zap.Logger
}

// NewMultiEmitter dispatches to the non-nil emitters in order
func NewMultiEmitter(emitters []EventEmitter, logger *zap.Logger) *MultiEmitter {
	active := make([]EventEmitter, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			active = append(active, e)
		}
	}
	return &MultiEmitter{emitters: active, logger: logger}
}

// Emit is a no-op after Close
func (m *MultiEmitter) Emit(event *RequestEvent) {
	if event == nil || m.closed.Load() {
		return
	}
	for i, e := range m.emitters {
		m.emitOne(i, e, event)
	}
}

func (m *MultiEmitter) emitOne(index int, e EventEmitter, event *RequestEvent) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Event emitter panicked",
				zap.Int("emitter", index),
				zap.String("request_id", event.RequestID),
				zap.Any("panic", r))
		}
	}()
	e.Emit(event)
}

// Close closes every emitter once and joins their errors
func (m *MultiEmitter) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	for _, e := range m.emitters {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		m.logger.Warn("Failed to close event emitters", zap.Error(err))
		return err
	}
	return nil
}
