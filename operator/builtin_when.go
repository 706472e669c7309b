package operator

import (
	"context"
	"encoding/json"

	"github.com/dshills/etlgraph-go/pipeline"
	"github.com/dshills/etlgraph-go/record"
)

type whenArgs struct {
	Conditions []pipeline.Condition `json:"conditions"`
}

// whenOperator is the "when" built-in: a filter. A record survives only if
// every condition matches (conjunction), matching ROUTE's own
// every-condition-in-a-branch semantics.
type whenOperator struct{}

func (whenOperator) ApplyOne(ctx context.Context, rec record.Record, args json.RawMessage, h Helpers) (record.Record, bool, error) {
	var a whenArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, false, err
	}
	for _, cond := range a.Conditions {
		v, found := record.Get(rec, cond.Field)
		if !conditionMatches(v, found, cond) {
			return nil, false, nil
		}
	}
	return rec, true, nil
}
