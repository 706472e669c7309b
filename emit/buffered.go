package emit

import (
	"context"
	"sync"
)

// BufferedEmitter stores every event in memory, keyed by pipeline ID.
//
// It exists for tests and local debugging: run a pipeline, then query
// what the scheduler emitted and in what order. Everything stays in
// memory, so long-running production pipelines should prefer LogEmitter
// or OTelEmitter and leave this one to the test suite.
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event
}

// HistoryFilter selects a subset of a pipeline's buffered events. Empty
// fields match everything; set fields combine with AND.
type HistoryFilter struct {
	StepKey string
	Msg     string
}

// NewBufferedEmitter builds an empty in-memory emitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{events: make(map[string][]Event)}
}

// Emit appends the event to its pipeline's history.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event.PipelineID] = append(b.events[event.PipelineID], event)
}

// EmitBatch appends every event in order.
func (b *BufferedEmitter) EmitBatch(_ context.Context, events []Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range events {
		b.events[e.PipelineID] = append(b.events[e.PipelineID], e)
	}
	return nil
}

// Flush is a no-op; the buffer is the destination.
func (b *BufferedEmitter) Flush(context.Context) error { return nil }

// History returns a copy of every event a pipeline emitted, in emission
// order. Returns an empty slice for an unknown pipeline ID.
func (b *BufferedEmitter) History(pipelineID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	events := b.events[pipelineID]
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// HistoryWithFilter returns the events matching filter, in emission
// order.
func (b *BufferedEmitter) HistoryWithFilter(pipelineID string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []Event{}
	for _, e := range b.events[pipelineID] {
		if filter.StepKey != "" && e.StepKey != filter.StepKey {
			continue
		}
		if filter.Msg != "" && e.Msg != filter.Msg {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Clear drops one pipeline's history, or every pipeline's when
// pipelineID is empty.
func (b *BufferedEmitter) Clear(pipelineID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if pipelineID == "" {
		b.events = make(map[string][]Event)
		return
	}
	delete(b.events, pipelineID)
}
