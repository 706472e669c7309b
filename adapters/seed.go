package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dshills/etlgraph-go/pipeline"
	"github.com/dshills/etlgraph-go/record"
)

// SeedExtractor is the "seed" EXTRACT adapter: returns a fixed list of
// records declared inline in the step's config, useful for fixtures,
// demos, and dry-run exercises that shouldn't depend on an external
// system being reachable.
type SeedExtractor struct{}

func (SeedExtractor) Extract(ctx context.Context, step pipeline.Step, ec *pipeline.ExecutorContext, onErr pipeline.OnRecordError) ([]record.Record, error) {
	cfg, err := pipeline.ParseAdapterConfig(step.Key, step.Config)
	if err != nil {
		return nil, err
	}
	var args struct {
		Records []map[string]any `json:"records"`
	}
	if len(cfg.Args) > 0 {
		if err := json.Unmarshal(cfg.Args, &args); err != nil {
			return nil, fmt.Errorf("seed adapter %q: invalid args: %w", step.Key, err)
		}
	}
	out := make([]record.Record, len(args.Records))
	for i, m := range args.Records {
		out[i] = record.Record(m)
	}
	return out, nil
}

// SinkLoader is the "sink" LOAD adapter: discards every record while
// still tallying ok/fail, useful for dry runs against destinations that
// don't exist yet and for load-testing the scheduler's own overhead.
type SinkLoader struct{}

func (SinkLoader) Execute(ctx context.Context, step pipeline.Step, in []record.Record, onErr pipeline.OnRecordError, eh pipeline.ErrorHandling) (pipeline.ExecutionResult, error) {
	return pipeline.ExecutionResult{OK: uint64(len(in))}, nil
}

func (SinkLoader) Simulate(ctx context.Context, step pipeline.Step, in []record.Record) (any, error) {
	return map[string]any{"discarded": len(in)}, nil
}
