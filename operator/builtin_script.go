package operator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dshills/etlgraph-go/record"
)

// ScriptEvaluator mirrors the expression evaluator's external contract,
// defined locally so operator never imports the expr package directly —
// the registry is wired with an expr.OperatorAdapter at startup, but
// operator's own tests can supply a fake.
type ScriptEvaluator interface {
	Evaluate(expression string, evalContext map[string]any, timeoutMs int) (value any, ok bool, errMsg string)
}

type scriptArgs struct {
	Expression string `json:"expression"`
	OutputPath string `json:"outputPath"`
	TimeoutMs  int    `json:"timeoutMs"`
}

// scriptOperator is the "script" built-in: evaluates a whitelisted
// expression against the record's fields and writes the result to
// outputPath. With a nil evaluator it always fails closed, matching the
// registry's default wiring before SetScriptEvaluator is called.
type scriptOperator struct {
	eval ScriptEvaluator
}

func newScriptOperator(eval ScriptEvaluator) scriptOperator {
	return scriptOperator{eval: eval}
}

func (s scriptOperator) ApplyOne(ctx context.Context, rec record.Record, args json.RawMessage, h Helpers) (record.Record, bool, error) {
	var a scriptArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, false, err
	}
	if a.Expression == "" {
		return nil, false, fmt.Errorf("script: expression is required")
	}
	if a.OutputPath == "" {
		return nil, false, fmt.Errorf("script: outputPath is required")
	}
	if s.eval == nil {
		return nil, false, fmt.Errorf("Script operators are disabled")
	}

	evalContext := map[string]any(rec.Clone())
	value, ok, errMsg := s.eval.Evaluate(a.Expression, evalContext, a.TimeoutMs)
	if !ok {
		return nil, false, fmt.Errorf("script: %s", errMsg)
	}
	return record.Set(rec, a.OutputPath, value), true, nil
}
