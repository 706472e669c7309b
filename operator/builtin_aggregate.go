package operator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dshills/etlgraph-go/record"
)

type aggregateArgs struct {
	GroupBy string `json:"groupBy"`
	Field   string `json:"field"`
	Op      string `json:"op"` // sum | count | avg | min | max
	Target  string `json:"target"`
}

// aggregateOperator is the "aggregate" built-in: groups the batch by
// groupBy and replaces it with one summary record per group.
type aggregateOperator struct{}

func (aggregateOperator) Apply(ctx context.Context, records []record.Record, args json.RawMessage, h Helpers) ([]record.Record, error) {
	var a aggregateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	type acc struct {
		sum, min, max float64
		count         int
		first         record.Record
	}
	groups := map[string]*acc{}
	order := []string{}

	for _, rec := range records {
		gv, _ := record.Get(rec, a.GroupBy)
		key := fmt.Sprintf("%v", gv)
		g, ok := groups[key]
		if !ok {
			g = &acc{first: rec}
			groups[key] = g
			order = append(order, key)
		}
		fv, _ := record.Get(rec, a.Field)
		f, _ := fv.(float64)
		if g.count == 0 {
			g.min, g.max = f, f
		}
		g.sum += f
		g.count++
		if f < g.min {
			g.min = f
		}
		if f > g.max {
			g.max = f
		}
	}

	out := make([]record.Record, 0, len(order))
	for _, key := range order {
		g := groups[key]
		summary := record.Set(record.Record{a.GroupBy: key}, a.Target, aggregateResult(a.Op, g.sum, g.count, g.min, g.max))
		out = append(out, summary)
	}
	return out, nil
}

func aggregateResult(op string, sum float64, count int, min, max float64) float64 {
	switch op {
	case "count":
		return float64(count)
	case "avg":
		if count == 0 {
			return 0
		}
		return sum / float64(count)
	case "min":
		return min
	case "max":
		return max
	default: // sum
		return sum
	}
}
