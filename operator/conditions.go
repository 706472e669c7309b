package operator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/etlgraph-go/pipeline"
)

// conditionMatches evaluates one ROUTE/when condition against a resolved
// field value. Comparators mirror the documented vocabulary: eq, ne, gt,
// lt, gte, lte, in, notIn, contains, notContains, startsWith, endsWith,
// regex, exists, isNull.
func conditionMatches(v any, found bool, cond pipeline.Condition) bool {
	switch cond.Cmp {
	case "exists":
		return found
	case "isNull":
		return !found || v == nil
	case "eq":
		return found && looseEqual(v, cond.Value)
	case "ne":
		return !found || !looseEqual(v, cond.Value)
	case "gt", "lt", "gte", "lte":
		return found && numericCompare(v, cond.Value, cond.Cmp)
	case "in":
		return found && membership(v, cond.Value)
	case "notIn":
		return !found || !membership(v, cond.Value)
	case "contains":
		return found && stringContains(v, cond.Value)
	case "notContains":
		return !found || !stringContains(v, cond.Value)
	case "startsWith":
		s, ok1 := v.(string)
		p, ok2 := cond.Value.(string)
		return found && ok1 && ok2 && strings.HasPrefix(s, p)
	case "endsWith":
		s, ok1 := v.(string)
		p, ok2 := cond.Value.(string)
		return found && ok1 && ok2 && strings.HasSuffix(s, p)
	case "regex":
		s, ok1 := v.(string)
		p, ok2 := cond.Value.(string)
		if !found || !ok1 || !ok2 {
			return false
		}
		re, err := regexp.Compile(p)
		return err == nil && re.MatchString(s)
	default:
		return false
	}
}

func looseEqual(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

func numericCompare(a, b any, cmp string) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return false
	}
	switch cmp {
	case "gt":
		return af > bf
	case "lt":
		return af < bf
	case "gte":
		return af >= bf
	case "lte":
		return af <= bf
	default:
		return false
	}
}

func membership(v, list any) bool {
	items, ok := list.([]any)
	if !ok {
		return false
	}
	for _, item := range items {
		if looseEqual(v, item) {
			return true
		}
	}
	return false
}

func stringContains(v, needle any) bool {
	s, ok1 := v.(string)
	n, ok2 := needle.(string)
	return ok1 && ok2 && strings.Contains(s, n)
}
