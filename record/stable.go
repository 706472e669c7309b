package record

import (
	"crypto/sha1" //nolint:gosec // spec requires SHA-1 for stable content hashing, not security
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// StableStringify produces deterministic bytes for any JSON-shaped value:
// null maps to "null", objects sort their keys ascending, arrays are
// serialized elementwise. Two values that are structurally equal always
// stringify identically regardless of map insertion order.
func StableStringify(v any) string {
	var b strings.Builder
	stableWrite(&b, v)
	return b.String()
}

func stableWrite(b *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case Record:
		writeObject(b, t)
	case map[string]any:
		writeObject(b, t)
	case []any:
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			stableWrite(b, e)
		}
		b.WriteByte(']')
	case string:
		b.WriteString(strconv.Quote(t))
	case bool:
		b.WriteString(strconv.FormatBool(t))
	case float64:
		b.WriteString(formatNumber(t))
	case int:
		b.WriteString(strconv.Itoa(t))
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))
	default:
		b.WriteString(strconv.Quote(fmt.Sprintf("%v", t)))
	}
}

func writeObject(b *strings.Builder, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		stableWrite(b, m[k])
	}
	b.WriteByte('}')
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// HashStable returns the lowercase hex SHA-1 digest of StableStringify(v),
// used by the deltaFilter operator and the crypto.hash() operator helper.
func HashStable(v any) string {
	sum := sha1.Sum([]byte(StableStringify(v))) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// Equal reports structural equality between two JSON-shaped values using
// the same canonicalization as StableStringify.
func Equal(a, b any) bool {
	return StableStringify(a) == StableStringify(b)
}
