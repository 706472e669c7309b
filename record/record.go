// Package record defines the universal record currency that flows between
// pipeline steps, along with dotted-path accessors shared by every operator.
package record

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Record is an unordered mapping from string keys to JSON values. Equality
// between two Records is structural, not reference-based.
type Record map[string]any

// Clone returns a deep copy so downstream steps never observe a mid-mutation
// hybrid of another step's output.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Record:
		return t.Clone()
	case map[string]any:
		return Record(t).Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return t
	}
}

// CloneAll deep-copies a batch of records, preserving order.
func CloneAll(in []Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

// Get reads the JSON value at a dotted path. Missing intermediate segments
// return (nil, false). Numeric segments index into arrays.
func Get(rec Record, path string) (any, bool) {
	if rec == nil || path == "" {
		return nil, false
	}
	cur := any(rec)
	for _, seg := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case Record:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			cur = v[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// GetOr is Get with a fallback default when the path is absent.
func GetOr(rec Record, path string, def any) any {
	if v, ok := Get(rec, path); ok {
		return v
	}
	return def
}

// Set writes value at a dotted path, creating missing intermediate objects;
// a numeric segment indexes an array, creating it or extending it with nil
// elements when it is missing or too short. Returns a new Record; the input
// is not mutated.
func Set(rec Record, path string, value any) Record {
	if rec == nil {
		rec = Record{}
	} else {
		rec = rec.Clone()
	}
	segs := strings.Split(path, ".")
	return setSegs(rec, segs, value).(Record)
}

func setSegs(cur any, segs []string, value any) any {
	seg := segs[0]
	rest := segs[1:]

	if idx, err := strconv.Atoi(seg); err == nil {
		arr, _ := cur.([]any)
		arr = growSlice(arr, idx+1)
		if len(rest) == 0 {
			arr[idx] = value
		} else {
			arr[idx] = setSegs(arr[idx], rest, value)
		}
		return arr
	}

	m := toRecord(cur)
	if len(rest) == 0 {
		m[seg] = value
		return m
	}
	m[seg] = setSegs(m[seg], rest, value)
	return m
}

func toRecord(v any) Record {
	switch t := v.(type) {
	case Record:
		return t
	case map[string]any:
		return Record(t)
	default:
		return Record{}
	}
}

func growSlice(arr []any, n int) []any {
	if len(arr) >= n {
		return arr
	}
	grown := make([]any, n)
	copy(grown, arr)
	return grown
}

// Remove deletes the value at a dotted path. A missing path is a no-op.
// Returns a new Record; the input is not mutated.
func Remove(rec Record, path string) Record {
	if rec == nil {
		return rec
	}
	out := rec.Clone()
	segs := strings.Split(path, ".")
	removeSegs(out, segs)
	return out
}

func removeSegs(cur any, segs []string) {
	if len(segs) == 0 {
		return
	}
	seg := segs[0]
	m, ok := cur.(Record)
	if !ok {
		if mm, ok2 := cur.(map[string]any); ok2 {
			m = Record(mm)
		} else {
			return
		}
	}
	if len(segs) == 1 {
		delete(m, seg)
		return
	}
	next, ok := m[seg]
	if !ok {
		return
	}
	removeSegs(next, segs[1:])
}

// FromJSONPath is a gjson/sjson-backed fast path for record access when the
// record is already serialized as JSON bytes (used by extractors/loaders
// that parse wire payloads). It is a thin convenience wrapper, not a
// replacement for Get/Set which must handle in-memory Record values without
// a marshal round trip.
func FromJSONPath(jsonBytes []byte, path string) (gjson.Result, error) {
	if !gjson.ValidBytes(jsonBytes) {
		return gjson.Result{}, fmt.Errorf("record: invalid JSON payload")
	}
	return gjson.GetBytes(jsonBytes, path), nil
}

// SetJSONPath sets a value on a raw JSON payload via sjson, mirroring Set's
// semantics for callers operating directly on wire bytes.
func SetJSONPath(jsonBytes []byte, path string, value any) ([]byte, error) {
	return sjson.SetBytes(jsonBytes, path, value)
}
