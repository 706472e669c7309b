package pipeline

import (
	"context"
	"fmt"

	"github.com/dshills/etlgraph-go/record"
)

// stepRun is the result of dispatching one step: its Output, its
// contribution to the terminal tally (zero for non-terminal steps), and
// whether it requested the run to pause (GATE only).
type stepRun struct {
	Output Output
	Tally  ExecutionResult
	Paused bool
}

// dispatchStep routes a step to its executor per the dispatch table:
// TRIGGER is a no-op, EXTRACT/TRANSFORM/ENRICH/VALIDATE/ROUTE produce
// records or branches, LOAD/EXPORT/FEED/SINK are terminal, GATE may pause.
func (s *Scheduler) dispatchStep(ctx context.Context, step Step, in []record.Record, ec *ExecutorContext, wantBranches bool, defCtx Context, opts ExecuteOptions) (stepRun, error) {
	s.Log.stepStart(step.Key)

	switch step.Type {
	case StepTrigger:
		return stepRun{Output: RecordsOutput(in)}, nil

	case StepExtract:
		recs, err := s.extract(ctx, step, ec, opts.OnRecordError)
		if err != nil {
			s.Log.stepFailed(step.Key, err)
			return stepRun{}, err
		}
		s.Log.extractData(step.Key, len(recs))
		s.Log.stepComplete(step.Key, ExecutionResult{})
		return stepRun{Output: RecordsOutput(recs)}, nil

	case StepTransform, StepEnrich:
		recs, err := s.Transform.ExecuteOperator(ctx, step, in, ec, opts.OnRecordError)
		if err != nil {
			s.Log.stepFailed(step.Key, err)
			return stepRun{}, err
		}
		s.Log.transformMapping(step.Key, len(in), len(recs))
		s.Log.stepComplete(step.Key, ExecutionResult{})
		return stepRun{Output: RecordsOutput(recs)}, nil

	case StepValidate:
		recs, err := s.Transform.ExecuteValidate(ctx, step, in, opts.OnRecordError)
		if err != nil {
			s.Log.stepFailed(step.Key, err)
			return stepRun{}, err
		}
		s.Log.stepComplete(step.Key, ExecutionResult{})
		return stepRun{Output: RecordsOutput(recs)}, nil

	case StepRoute:
		if wantBranches {
			bo, err := s.Transform.ExecuteRouteBranches(ctx, step, in)
			if err != nil {
				s.Log.stepFailed(step.Key, err)
				return stepRun{}, err
			}
			s.Log.stepComplete(step.Key, ExecutionResult{})
			return stepRun{Output: Output{Branch: &bo}}, nil
		}
		recs, err := s.Transform.ExecuteRoute(ctx, step, in)
		if err != nil {
			s.Log.stepFailed(step.Key, err)
			return stepRun{}, err
		}
		s.Log.stepComplete(step.Key, ExecutionResult{})
		return stepRun{Output: RecordsOutput(recs)}, nil

	case StepLoad, StepExport, StepFeed, StepSink:
		result, err := s.load(ctx, step, in, ec, defCtx, opts.OnRecordError)
		if err != nil {
			s.Log.stepFailed(step.Key, err)
			return stepRun{}, err
		}
		s.Log.loadData(step.Key, result)
		s.Log.stepComplete(step.Key, result)
		return stepRun{Output: RecordsOutput(nil), Tally: result}, nil

	case StepGate:
		if s.Gate == nil {
			return stepRun{Output: RecordsOutput(in)}, nil
		}
		pause, err := s.Gate.ShouldPause(ctx, step, in, ec)
		if err != nil {
			return stepRun{}, &HandlerError{StepKey: step.Key, Cause: err}
		}
		if pause {
			return stepRun{Output: RecordsOutput(in), Paused: true}, nil
		}
		return stepRun{Output: RecordsOutput(in)}, nil

	default:
		return stepRun{}, &ConfigError{StepKey: step.Key, Message: fmt.Sprintf("unknown step type %q", step.Type)}
	}
}

func (s *Scheduler) extract(ctx context.Context, step Step, ec *ExecutorContext, onErr OnRecordError) ([]record.Record, error) {
	cfg, err := ParseAdapterConfig(step.Key, step.Config)
	if err != nil {
		return nil, err
	}
	if s.Extractors == nil {
		return nil, nil
	}
	extractor, ok := s.Extractors.Resolve(cfg.AdapterCode)
	if !ok {
		// Unknown adapter: return no records and no error. Nothing is
		// logged.
		return nil, nil
	}
	return extractor.Extract(ctx, step, ec, onErr)
}

func (s *Scheduler) load(ctx context.Context, step Step, in []record.Record, ec *ExecutorContext, defCtx Context, onErr OnRecordError) (ExecutionResult, error) {
	cfg, err := ParseAdapterConfig(step.Key, step.Config)
	if err != nil {
		return ExecutionResult{}, err
	}
	if s.Loaders == nil {
		return ExecutionResult{Fail: uint64(len(in))}, nil
	}
	loader, ok := s.Loaders.Resolve(cfg.AdapterCode)
	if !ok {
		// Unknown adapter: count all input as failed, per the
		// load-dispatch contract.
		return ExecutionResult{Fail: uint64(len(in))}, nil
	}

	tc := step.Throughput
	if tc == nil {
		tc = &defCtx.Throughput
	}
	if s.Throughput != nil && (tc.Concurrency > 1 || tc.BatchSize > 0 || tc.RateLimitRPS > 0) {
		return s.Throughput.Run(ctx, step, in, loader, ec.ErrorHandling, *tc, onErr)
	}
	return loader.Execute(ctx, step, in, onErr, ec.ErrorHandling)
}
