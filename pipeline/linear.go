package pipeline

import (
	"context"

	"github.com/dshills/etlgraph-go/record"
)

// runLinear walks def.Steps in declared order. Each step's output becomes
// the next step's input; terminal steps absorb theirs and contribute to
// the running tally, and any step after a terminal one sees [].
func (s *Scheduler) runLinear(ctx context.Context, def *PipelineDefinition, ec *ExecutorContext, seeds map[string][]record.Record, opts ExecuteOptions) Summary {
	return s.runLinearFrom(ctx, def, ec, 0, nil, seeds, opts)
}

// replayLinear re-executes startKey and everything declared after it,
// using seed as startKey's own input (not its output — startKey still
// runs, its predecessors do not).
func (s *Scheduler) replayLinear(ctx context.Context, def *PipelineDefinition, ec *ExecutorContext, startKey string, seed []record.Record, opts ExecuteOptions) Summary {
	idx := -1
	for i, step := range def.Steps {
		if step.Key == startKey {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Summary{Err: &ConfigError{StepKey: startKey, Message: "replay step not found"}}
	}
	return s.runLinearFrom(ctx, def, ec, idx, seed, nil, opts)
}

// runLinearFrom drives steps[startIdx:], with carry as the input to the
// first of those steps (the replay seed, when called from replayLinear).
func (s *Scheduler) runLinearFrom(ctx context.Context, def *PipelineDefinition, ec *ExecutorContext, startIdx int, carry []record.Record, seeds map[string][]record.Record, opts ExecuteOptions) Summary {
	var summary Summary
	in := carry
	terminalSeen := false
	firstStepKey := ""
	if startIdx < len(def.Steps) {
		firstStepKey = def.Steps[startIdx].Key
	}

	applyIdempotency := def.Context.IdempotencyKeyField != ""
	appliedDedup := false

	for i := startIdx; i < len(def.Steps); i++ {
		if opts.OnCancelRequested != nil && opts.OnCancelRequested() {
			summary.Err = &CancelledError{AtStep: def.Steps[i].Key}
			break
		}

		step := def.Steps[i]
		stepIn := in
		if i == startIdx && step.Key == firstStepKey {
			if seeded, ok := seeds[step.Key]; ok {
				stepIn = seeded
			}
		}
		if terminalSeen {
			stepIn = nil
		}

		if step.Type == StepExtract {
			if seeded, ok := seeds[step.Key]; ok {
				stepIn = seeded
			}
		}

		run, err := s.dispatchStep(ctx, step, stepIn, ec, false, def.Context, opts)
		if err != nil {
			if isConfigOrCancel(err) || def.Context.ErrorHandling.Mode == ErrorModeFailFast {
				summary.Err = err
				break
			}
			// HandlerError: the whole batch counts as failed, continue.
			summary.Failed += uint64(len(stepIn))
			summary.Processed += uint64(len(stepIn))
			in = nil
			continue
		}

		recs := run.Output.Records

		if step.Type == StepExtract && applyIdempotency && !appliedDedup {
			recs = dedupeByIdempotencyKey(recs, def.Context.IdempotencyKeyField)
			appliedDedup = true
		}

		if step.Type.IsTerminal() {
			terminalSeen = true
			summary.Processed += uint64(len(stepIn))
			summary.Succeeded += run.Tally.OK
			summary.Failed += run.Tally.Fail
			in = nil
			continue
		}

		if run.Paused {
			summary.Paused = true
			summary.PausedAtStep = step.Key
			return summary
		}

		in = recs
	}

	return summary
}

func isConfigOrCancel(err error) bool {
	switch err.(type) {
	case *ConfigError, *CancelledError:
		return true
	default:
		return false
	}
}
