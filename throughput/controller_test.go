package throughput

import (
	"context"
	"testing"

	"github.com/dshills/etlgraph-go/pipeline"
	"github.com/dshills/etlgraph-go/record"
)

type fakeLoader struct {
	failAll bool
}

func (f fakeLoader) Execute(ctx context.Context, step pipeline.Step, in []record.Record, onErr pipeline.OnRecordError, eh pipeline.ErrorHandling) (pipeline.ExecutionResult, error) {
	if f.failAll {
		return pipeline.ExecutionResult{Fail: uint64(len(in))}, nil
	}
	return pipeline.ExecutionResult{OK: uint64(len(in))}, nil
}

func makeRecords(n int) []record.Record {
	out := make([]record.Record, n)
	for i := range out {
		out[i] = record.Record{"id": i}
	}
	return out
}

func TestControllerChunksAndAggregates(t *testing.T) {
	c := New()
	cfg := pipeline.ThroughputConfig{BatchSize: 3, Concurrency: 2}
	result, err := c.Run(context.Background(), pipeline.Step{Key: "load1"}, makeRecords(10), fakeLoader{}, pipeline.ErrorHandling{}, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OK != 10 || result.Fail != 0 {
		t.Fatalf("expected 10 ok, got %+v", result)
	}
}

func TestControllerShedsOnErrorRateSpike(t *testing.T) {
	c := New()
	cfg := pipeline.ThroughputConfig{
		BatchSize:        2,
		Concurrency:      1,
		PauseOnErrorRate: &pipeline.PauseOnErrorRate{Threshold: 0.5, IntervalSec: 0},
		DrainStrategy:    pipeline.DrainShed,
	}
	result, err := c.Run(context.Background(), pipeline.Step{Key: "load1"}, makeRecords(10), fakeLoader{failAll: true}, pipeline.ErrorHandling{}, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Only the first chunk (2 records) is attempted before SHED discards
	// the rest.
	if result.Fail != 2 {
		t.Fatalf("expected only the first chunk counted as failed, got %+v", result)
	}
}

func TestControllerNoThroughputConfigRunsSingleChunk(t *testing.T) {
	c := New()
	result, err := c.Run(context.Background(), pipeline.Step{Key: "load1"}, makeRecords(5), fakeLoader{}, pipeline.ErrorHandling{}, pipeline.ThroughputConfig{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OK != 5 {
		t.Fatalf("expected 5 ok, got %+v", result)
	}
}

// flakyLoader fails only chunks whose first record carries bad=true.
type flakyLoader struct{}

func (flakyLoader) Execute(ctx context.Context, step pipeline.Step, in []record.Record, onErr pipeline.OnRecordError, eh pipeline.ErrorHandling) (pipeline.ExecutionResult, error) {
	if len(in) > 0 {
		if bad, _ := in[0]["bad"].(bool); bad {
			return pipeline.ExecutionResult{Fail: uint64(len(in))}, nil
		}
	}
	return pipeline.ExecutionResult{OK: uint64(len(in))}, nil
}

func TestControllerQueueDefersAndDrains(t *testing.T) {
	c := New()
	cfg := pipeline.ThroughputConfig{
		BatchSize:        2,
		Concurrency:      1,
		PauseOnErrorRate: &pipeline.PauseOnErrorRate{Threshold: 0.5, IntervalSec: 0},
		DrainStrategy:    pipeline.DrainQueue,
	}

	// First chunk is entirely bad; the remaining four chunks are good and
	// must still complete via the deferred queue.
	recs := makeRecords(10)
	recs[0]["bad"] = true
	recs[1]["bad"] = true

	result, err := c.Run(context.Background(), pipeline.Step{Key: "load1"}, recs, flakyLoader{}, pipeline.ErrorHandling{}, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Fail != 2 || result.OK != 8 {
		t.Fatalf("expected deferred chunks drained (8 ok, 2 fail), got %+v", result)
	}
}

func TestControllerBackoffContinuesAfterPause(t *testing.T) {
	c := New()
	cfg := pipeline.ThroughputConfig{
		BatchSize:        2,
		Concurrency:      1,
		PauseOnErrorRate: &pipeline.PauseOnErrorRate{Threshold: 0.5, IntervalSec: 0.001},
		DrainStrategy:    pipeline.DrainBackoff,
	}

	recs := makeRecords(6)
	recs[0]["bad"] = true
	recs[1]["bad"] = true

	result, err := c.Run(context.Background(), pipeline.Step{Key: "load1"}, recs, flakyLoader{}, pipeline.ErrorHandling{}, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Fail != 2 || result.OK != 4 {
		t.Fatalf("expected backoff then continue (4 ok, 2 fail), got %+v", result)
	}
}
