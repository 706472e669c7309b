package pipeline

import (
	"context"

	"github.com/dshills/etlgraph-go/record"
)

// Scheduler executes a PipelineDefinition to terminal completion. One
// Scheduler instance is reused across runs; all per-run state lives in the
// ExecutorContext and the local variables of each Execute* call.
type Scheduler struct {
	Transform   TransformExecutor
	Extractors  ExtractDispatcher
	Loaders     LoadDispatcher
	Throughput  ThroughputController
	Gate        GateExecutor
	Checkpoints CheckpointManager
	Log         *StepLogCallback
}

// ExecuteOptions configures one call to Execute.
type ExecuteOptions struct {
	PipelineID string
	Resume     bool
	OnRecordError
	OnCancelRequested
}

// Execute runs every step of def in order (linear or graph, per
// def.IsGraph()), honouring checkpointing, idempotency dedup, and
// cancellation.
func (s *Scheduler) Execute(ctx context.Context, def *PipelineDefinition, opts ExecuteOptions) Summary {
	if err := def.Validate(); err != nil {
		return Summary{Err: err}
	}
	ec := NewExecutorContext(def.Context.ErrorHandling, def.Context.Checkpointing)

	if def.Context.Checkpointing.Enabled && s.Checkpoints != nil {
		if !opts.Resume {
			if err := s.Checkpoints.ClearCheckpoint(ctx, opts.PipelineID); err != nil {
				// CheckpointError degrades gracefully: proceed with empty data.
				_ = err
			}
		}
		if err := s.Checkpoints.LoadCheckpoint(ctx, opts.PipelineID, ec); err != nil {
			ec.SetCPData(record.CheckpointData{})
		}
	}

	var summary Summary
	if def.IsGraph() {
		summary = s.runGraph(ctx, def, ec, nil, opts)
	} else {
		summary = s.runLinear(ctx, def, ec, nil, opts)
	}

	if def.Context.Checkpointing.Enabled && s.Checkpoints != nil && ec.IsDirty() {
		_ = s.Checkpoints.SaveCheckpoint(ctx, opts.PipelineID, ec)
	}
	return summary
}

// ExecuteWithSeed runs def but skips every EXTRACT step, using seed as the
// input to the first non-extract step instead.
func (s *Scheduler) ExecuteWithSeed(ctx context.Context, def *PipelineDefinition, seed []record.Record, opts ExecuteOptions) Summary {
	if err := def.Validate(); err != nil {
		return Summary{Err: err}
	}
	ec := NewExecutorContext(def.Context.ErrorHandling, def.Context.Checkpointing)
	seeds := map[string][]record.Record{firstNonExtractKey(def): seed}
	// With no extract dispatcher, an EXTRACT step calls no extractor and
	// yields no records.
	noExtract := *s
	noExtract.Extractors = nil

	var summary Summary
	if def.IsGraph() {
		summary = noExtract.runGraph(ctx, def, ec, seeds, opts)
	} else {
		start := len(def.Steps)
		for i, step := range def.Steps {
			if step.Type != StepExtract && step.Type != StepTrigger {
				start = i
				break
			}
		}
		summary = noExtract.runLinearFrom(ctx, def, ec, start, seed, nil, opts)
	}
	return summary
}

// ReplayFromStep re-executes startKey and its successors, with seed as
// startKey's input; steps before startKey do not run.
func (s *Scheduler) ReplayFromStep(ctx context.Context, def *PipelineDefinition, startKey string, seed []record.Record, opts ExecuteOptions) Summary {
	if err := def.Validate(); err != nil {
		return Summary{Err: err}
	}
	ec := NewExecutorContext(def.Context.ErrorHandling, def.Context.Checkpointing)

	if def.IsGraph() {
		return s.replayGraph(ctx, def, ec, startKey, seed, opts)
	}
	return s.replayLinear(ctx, def, ec, startKey, seed, opts)
}

func firstNonExtractKey(def *PipelineDefinition) string {
	for _, step := range def.Steps {
		if step.Type != StepExtract && step.Type != StepTrigger {
			return step.Key
		}
	}
	return ""
}
