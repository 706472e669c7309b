package operator

import (
	"context"
	"time"

	"github.com/dshills/etlgraph-go/pipeline"
	"github.com/dshills/etlgraph-go/record"
)

// Executor implements pipeline.TransformExecutor: it runs TRANSFORM,
// ENRICH, VALIDATE, and ROUTE steps by dispatching through a Registry.
type Executor struct {
	Registry *Registry
	Helpers  Helpers
}

// NewExecutor builds an Executor around a registry and a fixed helper
// bundle (locale, secret resolver) shared by every operator invocation.
func NewExecutor(reg *Registry, helpers Helpers) *Executor {
	return &Executor{Registry: reg, Helpers: helpers}
}

// ExecuteOperator runs a TRANSFORM/ENRICH step's operator chain
// sequentially: operator i's output becomes operator i+1's input.
func (e *Executor) ExecuteOperator(ctx context.Context, step pipeline.Step, in []record.Record, ec *pipeline.ExecutorContext, onErr pipeline.OnRecordError) ([]record.Record, error) {
	cfg, err := pipeline.ParseTransformConfig(step.Key, step.Config)
	if err != nil {
		return nil, err
	}

	chain := cfg.Chain()
	records := in
	for _, oc := range chain {
		op, ok := e.Registry.GetRuntime(oc.Op)
		if !ok {
			return nil, &pipeline.ConfigError{StepKey: step.Key, Message: "unknown operator code: " + oc.Op}
		}
		records, err = e.runOne(ctx, step.Key, op, oc, records, cfg.RetryPerRecord, onErr)
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (e *Executor) runOne(ctx context.Context, stepKey string, op Operator, oc pipeline.OperatorConfig, in []record.Record, retry *pipeline.RetryPerRecord, onErr pipeline.OnRecordError) ([]record.Record, error) {
	if batch, ok := op.(BatchOperator); ok {
		out, err := batch.Apply(ctx, in, oc.Args, e.Helpers)
		if err != nil {
			return nil, &pipeline.HandlerError{StepKey: stepKey, Cause: err}
		}
		return out, nil
	}

	single, ok := op.(SingleRecordOperator)
	if !ok {
		return nil, &pipeline.ConfigError{StepKey: stepKey, Message: "operator " + oc.Op + " implements neither Batch nor SingleRecord"}
	}

	out := make([]record.Record, 0, len(in))
	for _, rec := range in {
		result, keep, err := e.applyWithRetry(ctx, single, oc, rec, retry)
		if err != nil {
			if onErr != nil {
				onErr(stepKey, err.Error(), rec)
			}
			continue
		}
		if keep {
			out = append(out, result)
		}
	}
	return out, nil
}

func (e *Executor) applyWithRetry(ctx context.Context, op SingleRecordOperator, oc pipeline.OperatorConfig, rec record.Record, retry *pipeline.RetryPerRecord) (record.Record, bool, error) {
	if retry == nil {
		return op.ApplyOne(ctx, rec, oc.Args, e.Helpers)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts(retry); attempt++ {
		result, keep, err := op.ApplyOne(ctx, rec, oc.Args, e.Helpers)
		if err == nil {
			return result, keep, nil
		}
		lastErr = err
		if !isRetryable(*retry, err) {
			break
		}
		select {
		case <-time.After(retryDelay(*retry, attempt)):
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
	return nil, false, lastErr
}

func maxAttempts(retry *pipeline.RetryPerRecord) int {
	if retry.MaxRetries < 0 {
		return 1
	}
	return retry.MaxRetries + 1
}
