package operator

import (
	"context"
	"encoding/json"

	"github.com/dshills/etlgraph-go/record"
)

// mapArgs declares a set of source→target field copies applied to one
// record at a time.
type mapArgs struct {
	Fields map[string]string `json:"fields"` // target path -> source path
}

// mapOperator is the "map" built-in: copies each source path to a target
// path on the same record.
type mapOperator struct{}

func (mapOperator) ApplyOne(ctx context.Context, rec record.Record, args json.RawMessage, h Helpers) (record.Record, bool, error) {
	var a mapArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, false, err
	}
	out := rec
	for target, source := range a.Fields {
		v, ok := record.Get(rec, source)
		if !ok {
			continue
		}
		out = record.Set(out, target, v)
	}
	return out, true, nil
}
