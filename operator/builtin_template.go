package operator

import (
	"context"
	"encoding/json"

	"github.com/dshills/etlgraph-go/record"
)

type templateArgs struct {
	Path     string `json:"path"`
	Template string `json:"template"`
}

// templateOperator is the "template" built-in: expands {{dotted.path}}
// placeholders against the record itself and writes the result to path.
type templateOperator struct{}

func (templateOperator) ApplyOne(ctx context.Context, rec record.Record, args json.RawMessage, h Helpers) (record.Record, bool, error) {
	var a templateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, false, err
	}
	expanded := h.Format.Template(a.Template, rec)
	return record.Set(rec, a.Path, expanded), true, nil
}
