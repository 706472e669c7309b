package emit

import "github.com/dshills/etlgraph-go/pipeline"

// Callback bridges an Emitter into the scheduler's StepLogCallback hooks:
// each hook invocation becomes one Event tagged with pipelineID. Hand the
// result to Scheduler.Log.
func Callback(pipelineID string, emitter Emitter) *pipeline.StepLogCallback {
	return &pipeline.StepLogCallback{
		OnStepStart: func(stepKey string) {
			emitter.Emit(Event{PipelineID: pipelineID, StepKey: stepKey, Msg: MsgStepStart})
		},
		OnStepComplete: func(stepKey string, result pipeline.ExecutionResult) {
			emitter.Emit(Event{PipelineID: pipelineID, StepKey: stepKey, Msg: MsgStepComplete, Meta: map[string]any{
				"ok":   result.OK,
				"fail": result.Fail,
			}})
		},
		OnStepFailed: func(stepKey string, err error) {
			emitter.Emit(Event{PipelineID: pipelineID, StepKey: stepKey, Msg: MsgStepFailed, Meta: map[string]any{
				"error": err.Error(),
			}})
		},
		OnExtractData: func(stepKey string, records int) {
			emitter.Emit(Event{PipelineID: pipelineID, StepKey: stepKey, Msg: MsgExtractData, Meta: map[string]any{
				"records": records,
			}})
		},
		OnLoadData: func(stepKey string, result pipeline.ExecutionResult) {
			emitter.Emit(Event{PipelineID: pipelineID, StepKey: stepKey, Msg: MsgLoadData, Meta: map[string]any{
				"ok":   result.OK,
				"fail": result.Fail,
			}})
		},
		OnTransformMapping: func(stepKey string, before, after int) {
			emitter.Emit(Event{PipelineID: pipelineID, StepKey: stepKey, Msg: MsgTransformMapping, Meta: map[string]any{
				"before": before,
				"after":  after,
			}})
		},
	}
}
