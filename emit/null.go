package emit

import "context"

// NullEmitter discards every event. Use it when a run should carry no
// observability overhead at all.
type NullEmitter struct{}

// NewNullEmitter returns an Emitter that does nothing. Safe for
// concurrent use, zero allocation per event.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event.
func (n *NullEmitter) Emit(Event) {}

// EmitBatch discards every event.
func (n *NullEmitter) EmitBatch(context.Context, []Event) error { return nil }

// Flush is a no-op.
func (n *NullEmitter) Flush(context.Context) error { return nil }
