package pipeline

import (
	"context"
	"fmt"

	"github.com/dshills/etlgraph-go/record"
)

// SamplePair is the {before, after} observation captured for one dry-run
// EXTRACT, TRANSFORM or VALIDATE step; each side holds at most
// DryRunSampleLimit records.
type SamplePair struct {
	Step   string
	Before []record.Record
	After  []record.Record
}

// DryRunResult is the non-destructive simulation output: aggregate
// metrics, a bounded set of before/after samples, per-step LOAD simulation
// details, and accumulated per-record errors.
type DryRunResult struct {
	Metrics      Summary
	SampleRecords []SamplePair
	Details      []map[string]any
	Errors       []string
}

// DryRunSampleLimit bounds how many records each side of a step's
// before/after sample holds.
const DryRunSampleLimit = 5

// DryRun executes def against an in-memory, never-persisted checkpoint.
// EXTRACT/TRANSFORM/VALIDATE run for real; ENRICH/ROUTE/EXPORT/FEED/SINK
// pass records through untouched; LOAD only calls Simulate (if the loader
// implements LoaderSimulator) and never Execute.
func (s *Scheduler) DryRun(ctx context.Context, def *PipelineDefinition) DryRunResult {
	ec := NewExecutorContext(def.Context.ErrorHandling, Checkpointing{Enabled: false})
	ec.SetCPData(record.CheckpointData{})

	result := DryRunResult{}
	onErr := func(stepKey, message string, rec map[string]any) {
		result.Errors = append(result.Errors, fmt.Sprintf("[%s] %s", stepKey, message))
	}

	applyIdempotency := def.Context.IdempotencyKeyField != ""
	appliedDedup := false

	var in []record.Record
	processed := 0

	for _, step := range def.Steps {
		before := in

		var after []record.Record
		switch step.Type {
		case StepExtract:
			recs, err := s.extract(ctx, step, ec, onErr)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("[%s] %v", step.Key, err))
				recs = nil
			}
			if applyIdempotency && !appliedDedup {
				recs = dedupeByIdempotencyKey(recs, def.Context.IdempotencyKeyField)
				appliedDedup = true
			}
			after = recs
			before = nil

		case StepTransform:
			recs, err := s.Transform.ExecuteOperator(ctx, step, in, ec, onErr)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("[%s] %v", step.Key, err))
				recs = in
			}
			after = recs

		case StepValidate:
			recs, err := s.Transform.ExecuteValidate(ctx, step, in, onErr)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("[%s] %v", step.Key, err))
				recs = in
			}
			after = recs

		case StepLoad:
			processed += len(in)
			if step.Type == StepLoad {
				if sim, ok := s.loaderSimulatorFor(step); ok {
					out, err := sim.Simulate(ctx, step, in)
					if err != nil {
						result.Errors = append(result.Errors, fmt.Sprintf("[%s] %v", step.Key, err))
					} else {
						result.Details = append(result.Details, map[string]any{"step": step.Key, "result": out})
					}
				}
			}
			after = nil

		default:
			// ENRICH, ROUTE, EXPORT, FEED, SINK, GATE, TRIGGER: pass through.
			after = in
		}

		if len(result.SampleRecords) < len(def.Steps)*DryRunSampleLimit &&
			(step.Type == StepExtract || step.Type == StepTransform || step.Type == StepValidate) {
			result.SampleRecords = append(result.SampleRecords, SamplePair{
				Step:   step.Key,
				Before: limitSample(before, DryRunSampleLimit),
				After:  limitSample(after, DryRunSampleLimit),
			})
		}

		in = after
	}

	result.Metrics.Processed = uint64(processed)
	result.Metrics.Failed = uint64(len(result.Errors))
	result.Metrics.Succeeded = uint64(processed)
	return result
}

func (s *Scheduler) loaderSimulatorFor(step Step) (LoaderSimulator, bool) {
	cfg, err := ParseAdapterConfig(step.Key, step.Config)
	if err != nil || s.Loaders == nil {
		return nil, false
	}
	loader, ok := s.Loaders.Resolve(cfg.AdapterCode)
	if !ok {
		return nil, false
	}
	sim, ok := loader.(LoaderSimulator)
	return sim, ok
}

func limitSample(recs []record.Record, n int) []record.Record {
	if len(recs) <= n {
		return recs
	}
	return recs[:n]
}
