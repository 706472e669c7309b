package operator

import (
	"context"
	"encoding/json"

	"github.com/dshills/etlgraph-go/record"
)

type unitArgs struct {
	Field  string `json:"field"`
	Target string `json:"target"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// unitOperator is the "unit" built-in: converts field's numeric value from
// one unit to another via the shared conversion table.
type unitOperator struct{}

func (unitOperator) ApplyOne(ctx context.Context, rec record.Record, args json.RawMessage, h Helpers) (record.Record, bool, error) {
	var a unitArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, false, err
	}
	v, _ := record.Get(rec, a.Field)
	f, _ := v.(float64)
	converted := h.Convert.Unit(f, a.From, a.To)
	return record.Set(rec, a.Target, converted), true, nil
}
