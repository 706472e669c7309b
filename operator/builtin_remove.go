package operator

import (
	"context"
	"encoding/json"

	"github.com/dshills/etlgraph-go/record"
)

type removeArgs struct {
	Path string `json:"path"`
}

// removeOperator is the "remove" built-in: deletes path from the record.
type removeOperator struct{}

func (removeOperator) ApplyOne(ctx context.Context, rec record.Record, args json.RawMessage, h Helpers) (record.Record, bool, error) {
	var a removeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, false, err
	}
	return record.Remove(rec, a.Path), true, nil
}
