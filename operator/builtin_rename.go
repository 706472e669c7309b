package operator

import (
	"context"
	"encoding/json"

	"github.com/dshills/etlgraph-go/record"
)

type renameArgs struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// renameOperator is the "rename" built-in: moves the value at From to To,
// removing From.
type renameOperator struct{}

func (renameOperator) ApplyOne(ctx context.Context, rec record.Record, args json.RawMessage, h Helpers) (record.Record, bool, error) {
	var a renameArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, false, err
	}
	v, ok := record.Get(rec, a.From)
	if !ok {
		return rec, true, nil
	}
	out := record.Set(rec, a.To, v)
	out = record.Remove(out, a.From)
	return out, true, nil
}
