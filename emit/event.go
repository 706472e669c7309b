package emit

// Event is one observability observation from a pipeline run.
//
// Events describe what the scheduler and its executors are doing:
//   - Step start/complete/failed
//   - Extract batch sizes and transform in/out counts
//   - Load tallies (ok/fail per terminal step)
//
// Events flow to an Emitter, which may log them, turn them into
// OpenTelemetry spans, record them as Prometheus metrics, or buffer them
// for inspection in tests.
type Event struct {
	// PipelineID identifies the pipeline whose run emitted this event.
	PipelineID string

	// StepKey identifies which step emitted this event.
	StepKey string

	// Msg names the event: "step_start", "step_complete", "step_failed",
	// "extract_data", "load_data", "transform_mapping".
	Msg string

	// Meta carries event-specific structured data. Common keys:
	//   - "records": record count for extract_data events
	//   - "ok" / "fail": terminal-step tallies
	//   - "before" / "after": transform in/out record counts
	//   - "error": failure details for step_failed
	Meta map[string]any
}

// Event message names emitted by Callback. Emitters that filter or count
// by message should match against these.
const (
	MsgStepStart        = "step_start"
	MsgStepComplete     = "step_complete"
	MsgStepFailed       = "step_failed"
	MsgExtractData      = "extract_data"
	MsgLoadData         = "load_data"
	MsgTransformMapping = "transform_mapping"
)
