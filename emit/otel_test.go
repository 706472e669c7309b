package emit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestOTelEmitter(t *testing.T) (*OTelEmitter, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return NewOTelEmitter(otel.Tracer("etlgraph-test")), exporter
}

func spanAttributes(attrs []attribute.KeyValue) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, a := range attrs {
		out[string(a.Key)] = a.Value.AsInterface()
	}
	return out
}

func TestOTelEmitterCreatesSpanPerEvent(t *testing.T) {
	emitter, exporter := newTestOTelEmitter(t)

	emitter.Emit(Event{
		PipelineID: "p1",
		StepKey:    "ext",
		Msg:        MsgExtractData,
		Meta:       map[string]any{"records": 12},
	})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, MsgExtractData, spans[0].Name)

	attrs := spanAttributes(spans[0].Attributes)
	assert.Equal(t, "p1", attrs["etlgraph.pipeline_id"])
	assert.Equal(t, "ext", attrs["etlgraph.step_key"])
	assert.Equal(t, int64(12), attrs["etlgraph.records"])
}

func TestOTelEmitterSetsErrorStatus(t *testing.T) {
	emitter, exporter := newTestOTelEmitter(t)

	emitter.Emit(Event{
		PipelineID: "p1",
		StepKey:    "load",
		Msg:        MsgStepFailed,
		Meta:       map[string]any{"error": "connection refused"},
	})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "connection refused", spans[0].Status.Description)
}

func TestOTelEmitterEmitBatch(t *testing.T) {
	emitter, exporter := newTestOTelEmitter(t)

	err := emitter.EmitBatch(context.Background(), []Event{
		{PipelineID: "p", StepKey: "a", Msg: MsgStepStart},
		{PipelineID: "p", StepKey: "a", Msg: MsgStepComplete, Meta: map[string]any{"ok": uint64(3), "fail": uint64(0)}},
	})
	require.NoError(t, err)
	assert.Len(t, exporter.GetSpans(), 2)
}

func TestOTelEmitterFlush(t *testing.T) {
	emitter, _ := newTestOTelEmitter(t)
	assert.NoError(t, emitter.Flush(context.Background()))
}
