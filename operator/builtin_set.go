package operator

import (
	"context"
	"encoding/json"

	"github.com/dshills/etlgraph-go/record"
)

type setArgs struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// setOperator is the "set" built-in: writes a literal value to path.
type setOperator struct{}

func (setOperator) ApplyOne(ctx context.Context, rec record.Record, args json.RawMessage, h Helpers) (record.Record, bool, error) {
	var a setArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, false, err
	}
	return record.Set(rec, a.Path, a.Value), true, nil
}
