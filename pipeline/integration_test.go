package pipeline_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dshills/etlgraph-go/adapters"
	"github.com/dshills/etlgraph-go/dispatch"
	"github.com/dshills/etlgraph-go/expr"
	"github.com/dshills/etlgraph-go/operator"
	"github.com/dshills/etlgraph-go/pipeline"
)

// newRealScheduler wires the production stack end to end: the operator
// executor with its built-in registry and a live expression evaluator,
// the generic dispatch registries, and the reference seed/sink adapters.
func newRealScheduler() *pipeline.Scheduler {
	registry := operator.NewRegistry()
	registry.SetScriptEvaluator(expr.NewOperatorAdapter(expr.NewEvaluator()))

	extractors := dispatch.NewRegistry[pipeline.Extractor]()
	extractors.Register("seed", adapters.SeedExtractor{})

	loaders := dispatch.NewRegistry[pipeline.Loader]()
	loaders.Register("sink", adapters.SinkLoader{})

	return &pipeline.Scheduler{
		Transform:  operator.NewExecutor(registry, operator.Helpers{}),
		Extractors: extractors,
		Loaders:    loaders,
		Gate:       pipeline.StandardGate{},
	}
}

func rawJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

// The extract → dedup → script transform → load scenario, run against the
// real operator/expr stack instead of a test fake.
func TestRealStackLinearExtractTransformLoad(t *testing.T) {
	def := &pipeline.PipelineDefinition{
		Context: pipeline.Context{IdempotencyKeyField: "sku"},
		Steps: []pipeline.Step{
			{Key: "ext", Type: pipeline.StepExtract, Config: rawJSON(t, map[string]any{
				"adapterCode": "seed",
				"args": map[string]any{"records": []map[string]any{
					{"sku": "A", "price": 10.0},
					{"sku": "A", "price": 10.0},
					{"sku": "B", "price": 2.0},
				}},
			})},
			{Key: "xform", Type: pipeline.StepTransform, Config: rawJSON(t, map[string]any{
				"adapterCode": "script",
				"args":        map[string]any{"expression": "price * 100", "outputPath": "priceMinor"},
			})},
			{Key: "load", Type: pipeline.StepLoad, Config: rawJSON(t, map[string]any{
				"adapterCode": "sink",
			})},
		},
	}

	summary := newRealScheduler().Execute(context.Background(), def, pipeline.ExecuteOptions{})
	if summary.Err != nil {
		t.Fatalf("unexpected error: %v", summary.Err)
	}
	if summary.Processed != 2 || summary.Succeeded != 2 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

// VALIDATE through the real executor: the bad record is reported once and
// the survivors reach the terminal step.
func TestRealStackValidateDropsAndReports(t *testing.T) {
	def := &pipeline.PipelineDefinition{
		Steps: []pipeline.Step{
			{Key: "ext", Type: pipeline.StepExtract, Config: rawJSON(t, map[string]any{
				"adapterCode": "seed",
				"args": map[string]any{"records": []map[string]any{
					{"email": "a@b"}, {"email": ""}, {"email": "c@d"},
				}},
			})},
			{Key: "check", Type: pipeline.StepValidate, Config: rawJSON(t, map[string]any{
				"errorHandlingMode": "FAIL_FAST",
				"fields":            map[string]any{"email": map[string]any{"required": true, "type": "string"}},
			})},
			{Key: "load", Type: pipeline.StepLoad, Config: rawJSON(t, map[string]any{
				"adapterCode": "sink",
			})},
		},
	}

	var reported []string
	onErr := func(stepKey, message string, rec map[string]any) {
		reported = append(reported, stepKey+": "+message)
	}

	summary := newRealScheduler().Execute(context.Background(), def, pipeline.ExecuteOptions{OnRecordError: onErr})
	if summary.Err != nil {
		t.Fatalf("unexpected error: %v", summary.Err)
	}
	if len(reported) != 1 || reported[0] != "check: email is required" {
		t.Fatalf("expected one validation report, got %v", reported)
	}
	if summary.Succeeded != 2 {
		t.Fatalf("expected 2 records loaded, got %+v", summary)
	}
}

// Graph ROUTE through the real executor: branch-qualified edges receive
// their partition, the default branch stays empty.
func TestRealStackGraphRoutePartition(t *testing.T) {
	def := &pipeline.PipelineDefinition{
		Steps: []pipeline.Step{
			{Key: "ext", Type: pipeline.StepExtract, Config: rawJSON(t, map[string]any{
				"adapterCode": "seed",
				"args": map[string]any{"records": []map[string]any{
					{"region": "EU"}, {"region": "US"}, {"region": "CA"},
				}},
			})},
			{Key: "route", Type: pipeline.StepRoute, Config: rawJSON(t, map[string]any{
				"branches": []map[string]any{
					{"name": "eu", "when": []map[string]any{{"field": "region", "cmp": "eq", "value": "EU"}}},
					{"name": "na", "when": []map[string]any{{"field": "region", "cmp": "in", "value": []string{"US", "CA"}}}},
				},
			})},
			{Key: "loadEU", Type: pipeline.StepLoad, Config: rawJSON(t, map[string]any{"adapterCode": "sink"})},
			{Key: "loadNA", Type: pipeline.StepLoad, Config: rawJSON(t, map[string]any{"adapterCode": "sink"})},
		},
		Edges: []pipeline.Edge{
			{From: "ext", To: "route"},
			{From: "route", To: "loadEU", Branch: "eu"},
			{From: "route", To: "loadNA", Branch: "na"},
		},
	}

	summary := newRealScheduler().Execute(context.Background(), def, pipeline.ExecuteOptions{})
	if summary.Err != nil {
		t.Fatalf("unexpected error: %v", summary.Err)
	}
	// loadEU sees 1 record, loadNA sees 2; totals aggregate both.
	if summary.Processed != 3 || summary.Succeeded != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
