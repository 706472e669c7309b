package operator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dshills/etlgraph-go/record"
)

type deltaFilterArgs struct {
	KeyField   string `json:"keyField"`
	ValueField string `json:"valueField"`
}

// deltaFilterOperator is the "deltaFilter" built-in: within one batch,
// keeps only the records whose valueField changed from the previously
// seen value for the same keyField — a change-data-capture style dedup
// that drops repeated unchanged readings.
type deltaFilterOperator struct{}

func (deltaFilterOperator) Apply(ctx context.Context, records []record.Record, args json.RawMessage, h Helpers) ([]record.Record, error) {
	var a deltaFilterArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	last := map[string]string{}
	out := make([]record.Record, 0, len(records))
	for _, rec := range records {
		kv, _ := record.Get(rec, a.KeyField)
		key := fmt.Sprintf("%v", kv)
		vv, _ := record.Get(rec, a.ValueField)
		valHash := record.HashStable(vv)

		if prev, seen := last[key]; seen && prev == valHash {
			continue
		}
		last[key] = valHash
		out = append(out, rec)
	}
	return out, nil
}
