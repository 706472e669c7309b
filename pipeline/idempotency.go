package pipeline

import (
	"fmt"

	"github.com/dshills/etlgraph-go/record"
)

// dedupeByIdempotencyKey keeps the first occurrence of each distinct value
// at keyPath, run just after EXTRACT and before the first TRANSFORM. A
// missing or null value maps to the empty string, so records all lacking
// the field collapse to a single survivor. Present values are stringified
// with fmt's %v.
func dedupeByIdempotencyKey(recs []record.Record, keyPath string) []record.Record {
	if keyPath == "" {
		return recs
	}
	seen := make(map[string]struct{}, len(recs))
	out := make([]record.Record, 0, len(recs))
	for _, r := range recs {
		v, ok := record.Get(r, keyPath)
		var key string
		if ok && v != nil {
			key = fmt.Sprintf("%v", v)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
