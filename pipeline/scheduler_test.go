package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dshills/etlgraph-go/record"
)

func TestLinearExtractTransformLoadWithIdempotency(t *testing.T) {
	seed := []record.Record{
		{"sku": "A", "price": 10.0},
		{"sku": "A", "price": 10.0},
		{"sku": "B", "price": 2.0},
	}

	def := &PipelineDefinition{
		Context: Context{IdempotencyKeyField: "sku"},
		Steps: []Step{
			{Key: "ext", Type: StepExtract, Config: adapterConfig("seed")},
			{Key: "xform", Type: StepTransform},
			{Key: "load", Type: StepLoad, Config: adapterConfig("sink")},
		},
	}

	sched := &Scheduler{
		Extractors: fakeExtractDispatcher{extractors: map[string]Extractor{"seed": seedExtractor{seed: seed}}},
		Loaders:    fakeLoadDispatcher{loaders: map[string]Loader{"sink": countingLoader{}}},
		Transform:  setPriceMinorTransform{},
	}

	summary := sched.Execute(context.Background(), def, ExecuteOptions{})

	if summary.Processed != 2 || summary.Succeeded != 2 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestValidateFailFastReportsFirstErrorAndDropsRecord(t *testing.T) {
	var reported []string
	onErr := func(stepKey, message string, rec map[string]any) {
		reported = append(reported, message)
	}

	def := &PipelineDefinition{
		Context: Context{ErrorHandling: ErrorHandling{Mode: ErrorModeFailFast}},
		Steps: []Step{
			{Key: "ext", Type: StepExtract, Config: adapterConfig("seed")},
			{Key: "validate", Type: StepValidate, Config: mustJSON(map[string]any{
				"fields": map[string]any{"email": map[string]any{"required": true, "type": "string"}},
			})},
			{Key: "load", Type: StepLoad, Config: adapterConfig("sink")},
		},
	}

	seed := []record.Record{{"email": "a@b"}, {"email": ""}, {"email": "c@d"}}
	sched := &Scheduler{
		Extractors: fakeExtractDispatcher{extractors: map[string]Extractor{"seed": seedExtractor{seed: seed}}},
		Loaders:    fakeLoadDispatcher{loaders: map[string]Loader{"sink": countingLoader{}}},
		Transform:  setPriceMinorTransform{},
	}

	summary := sched.Execute(context.Background(), def, ExecuteOptions{OnRecordError: onErr})

	if len(reported) != 1 || reported[0] != "email is required" {
		t.Fatalf("expected one reported error, got %v", reported)
	}
	if summary.Succeeded != 2 {
		t.Fatalf("expected 2 succeeded (downstream load saw 2 records), got %+v", summary)
	}
}

func TestGraphRoutePartitionsByFirstMatch(t *testing.T) {
	def := &PipelineDefinition{
		Steps: []Step{
			{Key: "ext", Type: StepExtract, Config: adapterConfig("seed")},
			{Key: "route", Type: StepRoute, Config: mustJSON(map[string]any{
				"branches": []map[string]any{
					{"name": "eu", "when": []map[string]any{{"field": "region", "cmp": "eq", "value": "EU"}}},
					{"name": "na", "when": []map[string]any{{"field": "region", "cmp": "in", "value": []any{"US", "CA"}}}},
				},
			})},
			{Key: "loadEU", Type: StepLoad, Config: adapterConfig("sink")},
			{Key: "loadNA", Type: StepLoad, Config: adapterConfig("sink")},
		},
		Edges: []Edge{
			{From: "ext", To: "route"},
			{From: "route", To: "loadEU", Branch: "eu"},
			{From: "route", To: "loadNA", Branch: "na"},
		},
	}

	seed := []record.Record{{"region": "EU"}, {"region": "US"}, {"region": "CA"}}
	loadEU := &trackingLoader{}
	loadNA := &trackingLoader{}

	// Route the two LOAD steps to distinct tracking loaders via distinct
	// adapter codes so we can assert per-branch counts.
	def.Steps[2].Config = adapterConfig("sinkEU")
	def.Steps[3].Config = adapterConfig("sinkNA")

	sched := &Scheduler{
		Extractors: fakeExtractDispatcher{extractors: map[string]Extractor{"seed": seedExtractor{seed: seed}}},
		Loaders: fakeLoadDispatcher{loaders: map[string]Loader{
			"sinkEU": loadEU,
			"sinkNA": loadNA,
		}},
		Transform: setPriceMinorTransform{},
	}

	sched.Execute(context.Background(), def, ExecuteOptions{})

	if loadEU.seen != 1 {
		t.Fatalf("expected loadEU to see 1 record, got %d", loadEU.seen)
	}
	if loadNA.seen != 2 {
		t.Fatalf("expected loadNA to see 2 records, got %d", loadNA.seen)
	}
}

type trackingLoader struct {
	seen int
}

func (l *trackingLoader) Execute(ctx context.Context, step Step, in []record.Record, onErr OnRecordError, eh ErrorHandling) (ExecutionResult, error) {
	l.seen += len(in)
	return ExecutionResult{OK: uint64(len(in))}, nil
}

func TestReplayFromStepSkipsExtract(t *testing.T) {
	extractCalled := false
	def := &PipelineDefinition{
		Steps: []Step{
			{Key: "ext", Type: StepExtract, Config: adapterConfig("seed")},
			{Key: "xform", Type: StepTransform},
			{Key: "load", Type: StepLoad, Config: adapterConfig("sink")},
		},
	}

	loader := &trackingLoader{}
	sched := &Scheduler{
		Extractors: fakeExtractDispatcher{extractors: map[string]Extractor{
			"seed": recordingExtractor{called: &extractCalled},
		}},
		Loaders:   fakeLoadDispatcher{loaders: map[string]Loader{"sink": loader}},
		Transform: setPriceMinorTransform{},
	}

	seed := []record.Record{{"x": 1.0}, {"x": 2.0}}
	sched.ReplayFromStep(context.Background(), def, "xform", seed, ExecuteOptions{})

	if extractCalled {
		t.Fatal("expected ext not to be invoked during replay")
	}
	if loader.seen != 2 {
		t.Fatalf("expected load to see 2 records (xform(seed)), got %d", loader.seen)
	}
}

type recordingExtractor struct {
	called *bool
}

func (e recordingExtractor) Extract(ctx context.Context, step Step, ec *ExecutorContext, onErr OnRecordError) ([]record.Record, error) {
	*e.called = true
	return nil, nil
}

func adapterConfig(code string) json.RawMessage {
	b, _ := json.Marshal(AdapterConfig{AdapterCode: code})
	return b
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
