package events

import "log/slog"

// Event is a structured notification describing a successful state change.
// Attributes are flat string pairs so downstream consumers (indexers, logs,
// webhooks) can decode them without sharing Go types with the emitter.
type Event struct {
	Type       string
	Attributes map[string]string
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
// Emitters must not call back into the component that emitted the event.
type Emitter interface {
	Emit(*Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(*Event) {}

// SlogEmitter writes every event to a structured logger. The daemon installs
// it so transitions show up in the service log alongside request handling.
type SlogEmitter struct {
	Logger *slog.Logger
}

// Emit implements the Emitter interface.
func (e SlogEmitter) Emit(evt *Event) {
	if evt == nil {
		return
	}
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := make([]any, 0, 2*len(evt.Attributes))
	for k, v := range evt.Attributes {
		attrs = append(attrs, slog.String(k, v))
	}
	logger.Info(evt.Type, attrs...)
}

// MultiEmitter fans an event out to each wrapped emitter in order.
type MultiEmitter []Emitter

// Emit implements the Emitter interface.
func (m MultiEmitter) Emit(evt *Event) {
	for _, e := range m {
		if e != nil {
			e.Emit(evt)
		}
	}
}
