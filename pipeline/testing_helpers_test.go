package pipeline

import (
	"context"

	"github.com/dshills/etlgraph-go/record"
)

// fakeExtractDispatcher and fakeLoadDispatcher let scheduler tests exercise real dispatch
// without depending on the operator/dispatch packages (which themselves
// depend on pipeline), keeping this package's test suite self-contained.

type fakeExtractDispatcher struct {
	extractors map[string]Extractor
}

func (d fakeExtractDispatcher) Resolve(code string) (Extractor, bool) {
	e, ok := d.extractors[code]
	return e, ok
}

type seedExtractor struct {
	seed []record.Record
}

func (e seedExtractor) Extract(ctx context.Context, step Step, ec *ExecutorContext, onErr OnRecordError) ([]record.Record, error) {
	return record.CloneAll(e.seed), nil
}

type fakeLoadDispatcher struct {
	loaders map[string]Loader
}

func (d fakeLoadDispatcher) Resolve(code string) (Loader, bool) {
	l, ok := d.loaders[code]
	return l, ok
}

// countingLoader succeeds on every record it sees.
type countingLoader struct {
	simulateResult any
}

func (l countingLoader) Execute(ctx context.Context, step Step, in []record.Record, onErr OnRecordError, eh ErrorHandling) (ExecutionResult, error) {
	return ExecutionResult{OK: uint64(len(in))}, nil
}

func (l countingLoader) Simulate(ctx context.Context, step Step, in []record.Record) (any, error) {
	return l.simulateResult, nil
}

// setPriceMinorTransform is a minimal TransformExecutor stand-in that
// multiplies "price" by 100 into "priceMinor" — enough to exercise the
// scheduler without a real operator registry.
type setPriceMinorTransform struct{}

func (t setPriceMinorTransform) ExecuteOperator(ctx context.Context, step Step, in []record.Record, ec *ExecutorContext, onErr OnRecordError) ([]record.Record, error) {
	out := make([]record.Record, len(in))
	for i, r := range in {
		price, _ := record.Get(r, "price")
		p, _ := price.(float64)
		out[i] = record.Set(r, "priceMinor", p*100)
	}
	return out, nil
}

func (t setPriceMinorTransform) ExecuteValidate(ctx context.Context, step Step, in []record.Record, onErr OnRecordError) ([]record.Record, error) {
	cfg, err := ParseValidateConfig(step.Key, step.Config)
	if err != nil {
		return nil, err
	}
	fields := cfg.Fields()
	var out []record.Record
	for _, r := range in {
		var errs []string
		for field, spec := range fields {
			v, ok := record.Get(r, field)
			if spec.Required && (!ok || v == nil || v == "") {
				errs = append(errs, field+" is required")
			}
		}
		if len(errs) > 0 {
			if onErr != nil {
				onErr(step.Key, joinSemicolon(errs), r)
			}
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func joinSemicolon(errs []string) string {
	out := ""
	for i, e := range errs {
		if i > 0 {
			out += "; "
		}
		out += e
	}
	return out
}

func (t setPriceMinorTransform) ExecuteRoute(ctx context.Context, step Step, in []record.Record) ([]record.Record, error) {
	return in, nil
}

func (t setPriceMinorTransform) ExecuteRouteBranches(ctx context.Context, step Step, in []record.Record) (BranchOutput, error) {
	cfg, err := ParseRouteConfig(step.Key, step.Config)
	if err != nil {
		return BranchOutput{}, err
	}
	branches := map[string][]record.Record{"default": {}}
	for _, b := range cfg.Branches {
		branches[b.Name] = []record.Record{}
	}
	for _, r := range in {
		matched := "default"
		for _, b := range cfg.Branches {
			if branchMatches(r, b) {
				matched = b.Name
				break
			}
		}
		branches[matched] = append(branches[matched], r)
	}
	return BranchOutput{Branches: branches}, nil
}

func branchMatches(r record.Record, b BranchSpec) bool {
	for _, cond := range b.When {
		v, _ := record.Get(r, cond.Field)
		if !conditionMatches(v, cond) {
			return false
		}
	}
	return true
}

func conditionMatches(v any, cond Condition) bool {
	switch cond.Cmp {
	case "eq":
		return v == cond.Value
	case "in":
		list, _ := cond.Value.([]any)
		for _, item := range list {
			if item == v {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// recordingLoader remembers every record it was given, for asserting what
// reached (or never reached) a terminal step.
type recordingLoader struct {
	seen []record.Record
}

func (l *recordingLoader) Execute(ctx context.Context, step Step, in []record.Record, onErr OnRecordError, eh ErrorHandling) (ExecutionResult, error) {
	l.seen = append(l.seen, in...)
	return ExecutionResult{OK: uint64(len(in))}, nil
}
