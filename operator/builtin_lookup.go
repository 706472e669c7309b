package operator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dshills/etlgraph-go/record"
)

type lookupArgs struct {
	KeyField    string           `json:"keyField"`
	TargetField string           `json:"targetField"`
	Table       map[string]any   `json:"table"`
	Default     any              `json:"default,omitempty"`
}

// lookupOperator is the "lookup" built-in: enriches every record by
// joining keyField's value against a static table and writing the match
// (or the configured default) to targetField.
type lookupOperator struct{}

func (lookupOperator) Apply(ctx context.Context, records []record.Record, args json.RawMessage, h Helpers) ([]record.Record, error) {
	var a lookupArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	out := make([]record.Record, len(records))
	for i, rec := range records {
		v, _ := record.Get(rec, a.KeyField)
		key := fmt.Sprintf("%v", v)
		match, ok := a.Table[key]
		if !ok {
			match = a.Default
		}
		out[i] = record.Set(rec, a.TargetField, match)
	}
	return out, nil
}
