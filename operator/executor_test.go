package operator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dshills/etlgraph-go/pipeline"
	"github.com/dshills/etlgraph-go/record"
)

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func transformStep(t *testing.T, key string, cfg any) pipeline.Step {
	t.Helper()
	return pipeline.Step{Key: key, Type: pipeline.StepTransform, Config: mustJSON(t, cfg)}
}

func newTestExecutor() *Executor {
	return NewExecutor(NewRegistry(), Helpers{})
}

func TestExecuteOperatorSingleAdapterForm(t *testing.T) {
	e := newTestExecutor()
	step := transformStep(t, "xform", map[string]any{
		"adapterCode": "set",
		"args":        map[string]any{"path": "status", "value": "ready"},
	})

	out, err := e.ExecuteOperator(context.Background(), step, []record.Record{{"id": 1.0}}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0]["status"] != "ready" {
		t.Fatalf("expected status set, got %v", out[0])
	}
}

func TestExecuteOperatorChainRunsInOrder(t *testing.T) {
	e := newTestExecutor()
	step := transformStep(t, "xform", map[string]any{
		"operators": []map[string]any{
			{"op": "set", "args": map[string]any{"path": "a", "value": "first"}},
			{"op": "rename", "args": map[string]any{"from": "a", "to": "b"}},
			{"op": "set", "args": map[string]any{"path": "a", "value": "second"}},
		},
	})

	out, err := e.ExecuteOperator(context.Background(), step, []record.Record{{}}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Chain equivalence: op3(op2(op1(r))). rename must have seen op1's
	// write, and op3's write must land after the rename.
	if out[0]["b"] != "first" || out[0]["a"] != "second" {
		t.Fatalf("chain ran out of order: %v", out[0])
	}
}

func TestExecuteOperatorUnknownCodeIsConfigError(t *testing.T) {
	e := newTestExecutor()
	step := transformStep(t, "xform", map[string]any{"adapterCode": "nope"})

	_, err := e.ExecuteOperator(context.Background(), step, []record.Record{{}}, nil, nil)
	var cfgErr *pipeline.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
}

func TestExecuteOperatorCustomRegistryFallback(t *testing.T) {
	reg := NewRegistry()
	reg.Register("double", doublePriceOperator{})
	e := NewExecutor(reg, Helpers{})
	step := transformStep(t, "xform", map[string]any{"adapterCode": "double"})

	out, err := e.ExecuteOperator(context.Background(), step, []record.Record{{"price": 3.0}}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0]["price"] != 6.0 {
		t.Fatalf("custom operator did not run: %v", out[0])
	}
}

func TestExecuteOperatorFilterDropsRecords(t *testing.T) {
	e := newTestExecutor()
	step := transformStep(t, "xform", map[string]any{
		"adapterCode": "when",
		"args": map[string]any{
			"conditions": []map[string]any{{"field": "region", "cmp": "eq", "value": "EU"}},
		},
	})
	in := []record.Record{{"region": "EU"}, {"region": "US"}, {"region": "EU"}}

	out, err := e.ExecuteOperator(context.Background(), step, in, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 surviving records, got %v", out)
	}
}

func TestExecuteOperatorRecordErrorReportedNotFatal(t *testing.T) {
	reg := NewRegistry()
	reg.Register("explode", failingOperator{failOn: "bad"})
	e := NewExecutor(reg, Helpers{})
	step := transformStep(t, "xform", map[string]any{"adapterCode": "explode"})

	var reported []string
	onErr := func(stepKey, message string, rec map[string]any) {
		reported = append(reported, stepKey+": "+message)
	}
	in := []record.Record{{"id": "ok1"}, {"id": "bad"}, {"id": "ok2"}}

	out, err := e.ExecuteOperator(context.Background(), step, in, nil, onErr)
	if err != nil {
		t.Fatalf("record failures must not abort the step: %v", err)
	}
	if len(out) != 2 || len(reported) != 1 {
		t.Fatalf("expected 2 survivors and 1 report, got %v / %v", out, reported)
	}
}

func TestApplyWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	reg := NewRegistry()
	flaky := &flakyOperator{failuresLeft: 2}
	reg.Register("flaky", flaky)
	e := NewExecutor(reg, Helpers{})
	step := transformStep(t, "xform", map[string]any{
		"adapterCode": "flaky",
		"retryPerRecord": map[string]any{
			"maxRetries":   3,
			"retryDelayMs": 1,
			"backoff":      "FIXED",
		},
	})

	out, err := e.ExecuteOperator(context.Background(), step, []record.Record{{"id": 1.0}}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || flaky.calls != 3 {
		t.Fatalf("expected success on 3rd attempt, got out=%v calls=%d", out, flaky.calls)
	}
}

func TestApplyWithRetryStopsOnNonRetryableError(t *testing.T) {
	reg := NewRegistry()
	flaky := &flakyOperator{failuresLeft: 10, errMsg: "permanent: schema mismatch"}
	reg.Register("flaky", flaky)
	e := NewExecutor(reg, Helpers{})
	step := transformStep(t, "xform", map[string]any{
		"adapterCode": "flaky",
		"retryPerRecord": map[string]any{
			"maxRetries":      5,
			"retryDelayMs":    1,
			"backoff":         "FIXED",
			"retryableErrors": []string{"timeout", "connection reset"},
		},
	})

	var reported int
	onErr := func(stepKey, message string, rec map[string]any) { reported++ }

	out, err := e.ExecuteOperator(context.Background(), step, []record.Record{{"id": 1.0}}, nil, onErr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 || reported != 1 {
		t.Fatalf("expected dropped record with one report, got %v / %d", out, reported)
	}
	if flaky.calls != 1 {
		t.Fatalf("non-retryable error must not be retried, got %d calls", flaky.calls)
	}
}

func TestRetryDelayShapes(t *testing.T) {
	fixed := pipeline.RetryPerRecord{RetryDelayMs: 10, Backoff: "FIXED"}
	for attempt, wantMs := range []int{10, 20, 30} {
		if got := retryDelay(fixed, attempt); got.Milliseconds() != int64(wantMs) {
			t.Fatalf("FIXED attempt %d: got %v, want %dms", attempt, got, wantMs)
		}
	}
	exp := pipeline.RetryPerRecord{RetryDelayMs: 10, Backoff: "EXPONENTIAL"}
	for attempt, wantMs := range []int{10, 20, 40, 80} {
		if got := retryDelay(exp, attempt); got.Milliseconds() != int64(wantMs) {
			t.Fatalf("EXPONENTIAL attempt %d: got %v, want %dms", attempt, got, wantMs)
		}
	}
}

// doublePriceOperator is a custom single-record operator for registry
// fallback tests.
type doublePriceOperator struct{}

func (doublePriceOperator) ApplyOne(ctx context.Context, rec record.Record, args json.RawMessage, h Helpers) (record.Record, bool, error) {
	price, _ := record.Get(rec, "price")
	p, _ := price.(float64)
	return record.Set(rec, "price", p*2), true, nil
}

// failingOperator errors for records whose id equals failOn.
type failingOperator struct {
	failOn string
}

func (f failingOperator) ApplyOne(ctx context.Context, rec record.Record, args json.RawMessage, h Helpers) (record.Record, bool, error) {
	if id, _ := rec["id"].(string); id == f.failOn {
		return nil, false, errors.New("refused: " + id)
	}
	return rec, true, nil
}

// flakyOperator fails its first failuresLeft calls, then succeeds.
type flakyOperator struct {
	failuresLeft int
	calls        int
	errMsg       string
}

func (f *flakyOperator) ApplyOne(ctx context.Context, rec record.Record, args json.RawMessage, h Helpers) (record.Record, bool, error) {
	f.calls++
	if f.failuresLeft > 0 {
		f.failuresLeft--
		msg := f.errMsg
		if msg == "" {
			msg = "timeout contacting upstream"
		}
		return nil, false, errors.New(msg)
	}
	return rec, true, nil
}
