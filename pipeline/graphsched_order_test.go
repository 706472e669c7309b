package pipeline

import (
	"context"
	"testing"

	"github.com/dshills/etlgraph-go/record"
)

// orderTrackingTransform records the order transform steps actually ran.
type orderTrackingTransform struct {
	setPriceMinorTransform
	order *[]string
}

func (t orderTrackingTransform) ExecuteOperator(ctx context.Context, step Step, in []record.Record, ec *ExecutorContext, onErr OnRecordError) ([]record.Record, error) {
	*t.order = append(*t.order, step.Key)
	return in, nil
}

// A step that unlocks late but was declared early must still run before a
// later-declared step that was already waiting in the ready set.
func TestGraphReadySetPopsInDeclarationOrder(t *testing.T) {
	// "early" (declared second) only unlocks once "src" pops; "late"
	// (declared third, no predecessors) sits in the ready set from the
	// start. A FIFO that never re-sorts would run "late" first.
	def := &PipelineDefinition{
		Steps: []Step{
			{Key: "src", Type: StepExtract, Config: adapterConfig("seed")},
			{Key: "early", Type: StepTransform},
			{Key: "late", Type: StepTransform},
		},
		Edges: []Edge{
			{From: "src", To: "early"},
		},
	}

	var order []string
	sched := &Scheduler{
		Extractors: fakeExtractDispatcher{extractors: map[string]Extractor{
			"seed": seedExtractor{seed: []record.Record{{"x": 1.0}}},
		}},
		Transform: orderTrackingTransform{order: &order},
	}

	summary := sched.Execute(context.Background(), def, ExecuteOptions{})
	if summary.Err != nil {
		t.Fatalf("unexpected error: %v", summary.Err)
	}
	// "late" is ready from the start but "early" is declared before it,
	// so once both are ready "early" must pop first.
	if len(order) != 2 || order[0] != "early" || order[1] != "late" {
		t.Fatalf("expected [early late], got %v", order)
	}
}
