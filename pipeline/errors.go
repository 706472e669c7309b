package pipeline

import "fmt"

// ConfigError indicates a malformed step config, unknown adapter, invalid
// expression caught at validation time, a cyclic graph, or a duplicate step
// key. It is fatal to the run: the scheduler does not recover from it.
type ConfigError struct {
	StepKey string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.StepKey != "" {
		return fmt.Sprintf("config error at step %q: %s", e.StepKey, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// RecordError is a single-record failure during transform, validate, or
// load. It is reported via OnRecordError and counted in Summary.Failed; it
// never aborts the run unless ErrorHandling.Mode is FAIL_FAST.
type RecordError struct {
	StepKey string
	Message string
	Record  map[string]any
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record error at step %q: %s", e.StepKey, e.Message)
}

// HandlerError wraps a panic or returned error from an operator/extractor/
// loader handler. Inside a chunk, every record in that chunk counts as
// failed; the scheduler continues to the next chunk/step unless FAIL_FAST.
type HandlerError struct {
	StepKey string
	Cause   error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler error at step %q: %v", e.StepKey, e.Cause)
}

func (e *HandlerError) Unwrap() error { return e.Cause }

// CheckpointError indicates a checkpoint load or save failed. It is logged
// and never fatal: the run proceeds with an empty checkpoint (on load
// failure) or simply drops the write (on save failure).
type CheckpointError struct {
	PipelineID string
	Op         string
	Cause      error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s failed for pipeline %q: %v", e.Op, e.PipelineID, e.Cause)
}

func (e *CheckpointError) Unwrap() error { return e.Cause }

// CancelledError marks a run that stopped because OnCancelRequested
// returned true. The run's current totals stand; checkpoint is saved if
// dirty before this error surfaces.
type CancelledError struct {
	AtStep string
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("run cancelled at step %q", e.AtStep)
}

// EvaluatorError is an expression timeout, compile failure, or validation
// rejection from the expr package. When an operator evaluates an
// expression, an EvaluatorError is wrapped as a RecordError for the
// offending record rather than aborting the step.
type EvaluatorError struct {
	Expression string
	Message    string
}

func (e *EvaluatorError) Error() string {
	return fmt.Sprintf("expression error: %s (%q)", e.Message, e.Expression)
}
