package emit

import (
	"context"

	"github.com/rs/zerolog"
)

// LogEmitter writes every event as one structured zerolog line.
//
// The event message becomes the log message; pipelineId and stepKey are
// standing fields, and every Meta key is attached as-is. step_failed
// events log at warn level, everything else at debug, so a production
// logger at info level stays quiet unless something goes wrong.
//
// Usage:
//
//	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
//	emitter := emit.NewLogEmitter(logger)
type LogEmitter struct {
	log zerolog.Logger
}

// NewLogEmitter builds a LogEmitter writing through log.
func NewLogEmitter(log zerolog.Logger) *LogEmitter {
	return &LogEmitter{log: log.With().Str("component", "pipeline").Logger()}
}

// Emit writes one event as a structured log line.
func (l *LogEmitter) Emit(event Event) {
	var ev *zerolog.Event
	if event.Msg == MsgStepFailed {
		ev = l.log.Warn()
	} else {
		ev = l.log.Debug()
	}
	ev = ev.Str("pipelineId", event.PipelineID).Str("stepKey", event.StepKey)
	for k, v := range event.Meta {
		ev = ev.Interface(k, v)
	}
	ev.Msg(event.Msg)
}

// EmitBatch writes each event in order. zerolog writes are synchronous,
// so there is nothing to batch beyond the loop itself.
func (l *LogEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, e := range events {
		l.Emit(e)
	}
	return nil
}

// Flush is a no-op: zerolog writes go straight to the underlying writer.
func (l *LogEmitter) Flush(context.Context) error { return nil }
