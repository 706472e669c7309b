package expr

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// evalEnv is a chained lexical scope: the run's context map at the root,
// with one child frame per arrow-function invocation.
type evalEnv struct {
	vars   map[string]any
	parent *evalEnv
}

func (e *evalEnv) get(name string) (any, bool) {
	if v, ok := e.vars[name]; ok {
		return v, true
	}
	if e.parent != nil {
		return e.parent.get(name)
	}
	return nil, false
}

// evalState carries the deadline every node evaluation checks, turning the
// hard-timeout contract into a cooperative check rather than a forcibly
// killed goroutine — the grammar has no loops or recursion outside
// map/filter/reduce over a caller-supplied array, so a node-count-bounded
// evaluator cannot run away; the deadline guards against pathologically
// large context arrays.
type evalState struct {
	deadline time.Time
}

var errTimeout = fmt.Errorf("timeout")

func (s *evalState) checkDeadline() error {
	if time.Now().After(s.deadline) {
		return errTimeout
	}
	return nil
}

func evalNode(n node, env *evalEnv, st *evalState) (any, error) {
	if err := st.checkDeadline(); err != nil {
		return nil, err
	}
	switch t := n.(type) {
	case numberLit:
		return t.value, nil
	case stringLit:
		return t.value, nil
	case boolLit:
		return t.value, nil
	case nullLit:
		return nil, nil
	case identifier:
		return evalIdentifier(t, env)
	case arrayLit:
		out := make([]any, len(t.elements))
		for i, e := range t.elements {
			v, err := evalNode(e, env, st)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case unaryExpr:
		return evalUnary(t, env, st)
	case binaryExpr:
		return evalBinary(t, env, st)
	case logicalExpr:
		return evalLogical(t, env, st)
	case conditionalExpr:
		test, err := evalNode(t.test, env, st)
		if err != nil {
			return nil, err
		}
		if truthy(test) {
			return evalNode(t.cons, env, st)
		}
		return evalNode(t.alt, env, st)
	case memberExpr:
		return evalMember(t, env, st)
	case callExpr:
		return evalCall(t, env, st)
	case arrowFunc:
		return t, nil // arrow functions evaluate to themselves as values
	default:
		return nil, fmt.Errorf("expr: unsupported node %T", n)
	}
}

func evalIdentifier(id identifier, env *evalEnv) (any, error) {
	if id.name == "Math" {
		return mathSandbox{}, nil
	}
	if v, ok := env.get(id.name); ok {
		return v, nil
	}
	return nil, fmt.Errorf("expr: unknown identifier %q", id.name)
}

func evalUnary(t unaryExpr, env *evalEnv, st *evalState) (any, error) {
	v, err := evalNode(t.operand, env, st)
	if err != nil {
		return nil, err
	}
	switch t.op {
	case "!":
		return !truthy(v), nil
	case "-":
		f, ok := toNumber(v)
		if !ok {
			return nil, fmt.Errorf("expr: unary '-' requires a number")
		}
		return -f, nil
	default:
		return nil, fmt.Errorf("expr: unknown unary operator %q", t.op)
	}
}

func evalLogical(t logicalExpr, env *evalEnv, st *evalState) (any, error) {
	left, err := evalNode(t.left, env, st)
	if err != nil {
		return nil, err
	}
	switch t.op {
	case "&&":
		if !truthy(left) {
			return left, nil
		}
		return evalNode(t.right, env, st)
	case "||":
		if truthy(left) {
			return left, nil
		}
		return evalNode(t.right, env, st)
	case "??":
		if left != nil {
			return left, nil
		}
		return evalNode(t.right, env, st)
	default:
		return nil, fmt.Errorf("expr: unknown logical operator %q", t.op)
	}
}

func evalBinary(t binaryExpr, env *evalEnv, st *evalState) (any, error) {
	left, err := evalNode(t.left, env, st)
	if err != nil {
		return nil, err
	}
	right, err := evalNode(t.right, env, st)
	if err != nil {
		return nil, err
	}
	switch t.op {
	case "+":
		ls, lok := left.(string)
		rs, rok := right.(string)
		if lok || rok {
			if !lok {
				ls = toDisplayString(left)
			}
			if !rok {
				rs = toDisplayString(right)
			}
			return ls + rs, nil
		}
		lf, lok := toNumber(left)
		rf, rok := toNumber(right)
		if !lok || !rok {
			return nil, fmt.Errorf("expr: '+' requires numbers or strings")
		}
		return lf + rf, nil
	case "-", "*", "/", "%":
		lf, lok := toNumber(left)
		rf, rok := toNumber(right)
		if !lok || !rok {
			return nil, fmt.Errorf("expr: %q requires numbers", t.op)
		}
		switch t.op {
		case "-":
			return lf - rf, nil
		case "*":
			return lf * rf, nil
		case "/":
			return lf / rf, nil
		case "%":
			return math.Mod(lf, rf), nil
		}
	case "===":
		return strictEqual(left, right), nil
	case "!==":
		return !strictEqual(left, right), nil
	case "==":
		return looseEqual(left, right), nil
	case "!=":
		return !looseEqual(left, right), nil
	case ">", "<", ">=", "<=":
		return compare(left, right, t.op)
	}
	return nil, fmt.Errorf("expr: unknown binary operator %q", t.op)
}

func compare(left, right any, op string) (any, error) {
	if ls, ok := left.(string); ok {
		if rs, ok := right.(string); ok {
			switch op {
			case ">":
				return ls > rs, nil
			case "<":
				return ls < rs, nil
			case ">=":
				return ls >= rs, nil
			case "<=":
				return ls <= rs, nil
			}
		}
	}
	lf, lok := toNumber(left)
	rf, rok := toNumber(right)
	if !lok || !rok {
		return nil, fmt.Errorf("expr: %q requires comparable operands", op)
	}
	switch op {
	case ">":
		return lf > rf, nil
	case "<":
		return lf < rf, nil
	case ">=":
		return lf >= rf, nil
	case "<=":
		return lf <= rf, nil
	}
	return nil, fmt.Errorf("expr: unknown comparison %q", op)
}

func evalMember(t memberExpr, env *evalEnv, st *evalState) (any, error) {
	obj, err := evalNode(t.object, env, st)
	if err != nil {
		return nil, err
	}
	if t.computed {
		idx, err := evalNode(t.computedExpr, env, st)
		if err != nil {
			return nil, err
		}
		return indexInto(obj, idx)
	}
	return propertyOf(obj, t.property)
}

func propertyOf(obj any, name string) (any, error) {
	switch v := obj.(type) {
	case string:
		if name == "length" {
			return float64(len([]rune(v))), nil
		}
	case []any:
		if name == "length" {
			return float64(len(v)), nil
		}
	case map[string]any:
		val, ok := v[name]
		if !ok {
			return nil, nil
		}
		return val, nil
	case mathSandbox:
		return v.constant(name)
	}
	return nil, fmt.Errorf("expr: unknown property %q", name)
}

func indexInto(obj, idx any) (any, error) {
	i, ok := toNumber(idx)
	if !ok {
		return nil, fmt.Errorf("expr: index must be a number")
	}
	n := int(i)
	switch v := obj.(type) {
	case []any:
		if n < 0 || n >= len(v) {
			return nil, nil
		}
		return v[n], nil
	case string:
		r := []rune(v)
		if n < 0 || n >= len(r) {
			return nil, nil
		}
		return string(r[n]), nil
	default:
		return nil, fmt.Errorf("expr: cannot index into %T", obj)
	}
}

// callArrow invokes an arrow function value with positional arguments in a
// fresh child scope.
func callArrow(fn arrowFunc, args []any, env *evalEnv, st *evalState) (any, error) {
	frame := &evalEnv{vars: map[string]any{}, parent: env}
	for i, p := range fn.params {
		if i < len(args) {
			frame.vars[p] = args[i]
		}
	}
	return evalNode(fn.body, frame, st)
}

func evalCall(t callExpr, env *evalEnv, st *evalState) (any, error) {
	obj, err := evalNode(t.object, env, st)
	if err != nil {
		return nil, err
	}
	if ms, ok := obj.(mathSandbox); ok {
		return ms.call(t.method, t.args, env, st)
	}
	switch v := obj.(type) {
	case string:
		return callStringMethod(v, t.method, t.args, env, st)
	case []any:
		return callArrayMethod(v, t.method, t.args, env, st)
	case float64:
		return callNumberMethod(v, t.method, t.args, env, st)
	default:
		return nil, fmt.Errorf("expr: cannot call method %q on %T", t.method, obj)
	}
}

func evalArgs(args []node, env *evalEnv, st *evalState) ([]any, error) {
	out := make([]any, len(args))
	for i, a := range args {
		v, err := evalNode(a, env, st)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

var stringMethodWhitelist = map[string]bool{
	"toLowerCase": true, "toUpperCase": true, "trim": true, "split": true,
	"slice": true, "includes": true, "startsWith": true, "endsWith": true,
	"replace": true, "indexOf": true, "charAt": true, "repeat": true,
	"padStart": true, "padEnd": true, "concat": true,
}

func callStringMethod(s string, method string, argNodes []node, env *evalEnv, st *evalState) (any, error) {
	if !stringMethodWhitelist[method] {
		return nil, fmt.Errorf("expr: method %q is not whitelisted", method)
	}
	args, err := evalArgs(argNodes, env, st)
	if err != nil {
		return nil, err
	}
	switch method {
	case "toLowerCase":
		return strings.ToLower(s), nil
	case "toUpperCase":
		return strings.ToUpper(s), nil
	case "trim":
		return strings.TrimSpace(s), nil
	case "split":
		sep := argString(args, 0, "")
		parts := strings.Split(s, sep)
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = p
		}
		return out, nil
	case "slice":
		return sliceString(s, args), nil
	case "includes":
		return strings.Contains(s, argString(args, 0, "")), nil
	case "startsWith":
		return strings.HasPrefix(s, argString(args, 0, "")), nil
	case "endsWith":
		return strings.HasSuffix(s, argString(args, 0, "")), nil
	case "replace":
		return strings.Replace(s, argString(args, 0, ""), argString(args, 1, ""), 1), nil
	case "indexOf":
		return float64(strings.Index(s, argString(args, 0, ""))), nil
	case "charAt":
		idx := int(argNumber(args, 0, 0))
		r := []rune(s)
		if idx < 0 || idx >= len(r) {
			return "", nil
		}
		return string(r[idx]), nil
	case "repeat":
		return strings.Repeat(s, int(argNumber(args, 0, 0))), nil
	case "padStart":
		return padString(s, args, true), nil
	case "padEnd":
		return padString(s, args, false), nil
	case "concat":
		return s + argString(args, 0, ""), nil
	}
	return nil, fmt.Errorf("expr: unimplemented string method %q", method)
}

func sliceString(s string, args []any) string {
	r := []rune(s)
	start, end := sliceBounds(len(r), args)
	return string(r[start:end])
}

func sliceBounds(n int, args []any) (int, int) {
	start, end := 0, n
	if len(args) > 0 {
		start = normalizeIndex(int(mustNumber(args[0])), n)
	}
	if len(args) > 1 {
		end = normalizeIndex(int(mustNumber(args[1])), n)
	}
	if end < start {
		end = start
	}
	return start, end
}

func normalizeIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		i = 0
	}
	if i > n {
		i = n
	}
	return i
}

func mustNumber(v any) float64 {
	f, _ := toNumber(v)
	return f
}

func padString(s string, args []any, start bool) string {
	target := int(argNumber(args, 0, 0))
	pad := argString(args, 1, " ")
	if pad == "" || len([]rune(s)) >= target {
		return s
	}
	var b strings.Builder
	for len([]rune(s))+b.Len()/len([]rune(pad))*len([]rune(pad)) < target {
		b.WriteString(pad)
	}
	fill := []rune(b.String())
	need := target - len([]rune(s))
	if need > len(fill) {
		need = len(fill)
	}
	fillStr := string(fill[:need])
	if start {
		return fillStr + s
	}
	return s + fillStr
}

var arrayMethodWhitelist = map[string]bool{
	"map": true, "filter": true, "reduce": true, "includes": true,
	"indexOf": true, "slice": true, "join": true, "find": true,
	"some": true, "every": true, "sort": true, "reverse": true,
}

func callArrayMethod(arr []any, method string, argNodes []node, env *evalEnv, st *evalState) (any, error) {
	if !arrayMethodWhitelist[method] {
		return nil, fmt.Errorf("expr: method %q is not whitelisted", method)
	}
	switch method {
	case "map":
		fn, err := arrowArg(argNodes, env, st)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(arr))
		for i, v := range arr {
			r, err := callArrow(fn, []any{v, float64(i)}, env, st)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case "filter":
		fn, err := arrowArg(argNodes, env, st)
		if err != nil {
			return nil, err
		}
		var out []any
		for i, v := range arr {
			r, err := callArrow(fn, []any{v, float64(i)}, env, st)
			if err != nil {
				return nil, err
			}
			if truthy(r) {
				out = append(out, v)
			}
		}
		return out, nil
	case "reduce":
		fn, err := arrowArg(argNodes, env, st)
		if err != nil {
			return nil, err
		}
		var acc any
		start := 0
		if len(argNodes) > 1 {
			v, err := evalNode(argNodes[1], env, st)
			if err != nil {
				return nil, err
			}
			acc = v
		} else if len(arr) > 0 {
			acc = arr[0]
			start = 1
		}
		for i := start; i < len(arr); i++ {
			r, err := callArrow(fn, []any{acc, arr[i], float64(i)}, env, st)
			if err != nil {
				return nil, err
			}
			acc = r
		}
		return acc, nil
	case "find":
		fn, err := arrowArg(argNodes, env, st)
		if err != nil {
			return nil, err
		}
		for i, v := range arr {
			r, err := callArrow(fn, []any{v, float64(i)}, env, st)
			if err != nil {
				return nil, err
			}
			if truthy(r) {
				return v, nil
			}
		}
		return nil, nil
	case "some":
		fn, err := arrowArg(argNodes, env, st)
		if err != nil {
			return nil, err
		}
		for i, v := range arr {
			r, err := callArrow(fn, []any{v, float64(i)}, env, st)
			if err != nil {
				return nil, err
			}
			if truthy(r) {
				return true, nil
			}
		}
		return false, nil
	case "every":
		fn, err := arrowArg(argNodes, env, st)
		if err != nil {
			return nil, err
		}
		for i, v := range arr {
			r, err := callArrow(fn, []any{v, float64(i)}, env, st)
			if err != nil {
				return nil, err
			}
			if !truthy(r) {
				return false, nil
			}
		}
		return true, nil
	}

	args, err := evalArgs(argNodes, env, st)
	if err != nil {
		return nil, err
	}
	switch method {
	case "includes":
		for _, v := range arr {
			if strictEqual(v, args[0]) {
				return true, nil
			}
		}
		return false, nil
	case "indexOf":
		for i, v := range arr {
			if strictEqual(v, args[0]) {
				return float64(i), nil
			}
		}
		return float64(-1), nil
	case "slice":
		start, end := sliceBounds(len(arr), args)
		out := make([]any, end-start)
		copy(out, arr[start:end])
		return out, nil
	case "join":
		sep := ","
		if len(args) > 0 {
			sep = argString(args, 0, ",")
		}
		parts := make([]string, len(arr))
		for i, v := range arr {
			parts[i] = toDisplayString(v)
		}
		return strings.Join(parts, sep), nil
	case "sort":
		out := append([]any(nil), arr...)
		sort.Slice(out, func(i, j int) bool {
			return toDisplayString(out[i]) < toDisplayString(out[j])
		})
		return out, nil
	case "reverse":
		out := make([]any, len(arr))
		for i, v := range arr {
			out[len(arr)-1-i] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("expr: unimplemented array method %q", method)
}

func arrowArg(argNodes []node, env *evalEnv, st *evalState) (arrowFunc, error) {
	if len(argNodes) == 0 {
		return arrowFunc{}, fmt.Errorf("expr: method requires a callback argument")
	}
	v, err := evalNode(argNodes[0], env, st)
	if err != nil {
		return arrowFunc{}, err
	}
	fn, ok := v.(arrowFunc)
	if !ok {
		return arrowFunc{}, fmt.Errorf("expr: callback argument must be a function")
	}
	return fn, nil
}

var numberMethodWhitelist = map[string]bool{"toFixed": true, "toString": true}

func callNumberMethod(f float64, method string, argNodes []node, env *evalEnv, st *evalState) (any, error) {
	if !numberMethodWhitelist[method] {
		return nil, fmt.Errorf("expr: method %q is not whitelisted", method)
	}
	args, err := evalArgs(argNodes, env, st)
	if err != nil {
		return nil, err
	}
	switch method {
	case "toFixed":
		prec := int(argNumber(args, 0, 0))
		return strconv.FormatFloat(f, 'f', prec, 64), nil
	case "toString":
		return toDisplayString(f), nil
	}
	return nil, fmt.Errorf("expr: unimplemented number method %q", method)
}

func argString(args []any, i int, def string) string {
	if i >= len(args) {
		return def
	}
	if s, ok := args[i].(string); ok {
		return s
	}
	return toDisplayString(args[i])
}

func argNumber(args []any, i int, def float64) float64 {
	if i >= len(args) {
		return def
	}
	f, ok := toNumber(args[i])
	if !ok {
		return def
	}
	return f
}

func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toDisplayString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return "null"
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return true
	default:
		return true
	}
}

func strictEqual(a, b any) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		return af == bf
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as == bs
	}
	ab, aok := a.(bool)
	bb, bok := b.(bool)
	if aok && bok {
		return ab == bb
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return false
}

func looseEqual(a, b any) bool {
	if strictEqual(a, b) {
		return true
	}
	af, aok := toNumber(a)
	bf, bok := toNumber(b)
	return aok && bok && af == bf
}

// mathSandbox is the frozen "Math" object the evaluator exposes —
// constants and pure functions only, no global identifier access.
type mathSandbox struct{}

func (mathSandbox) constant(name string) (any, error) {
	switch name {
	case "PI":
		return math.Pi, nil
	case "E":
		return math.E, nil
	default:
		return nil, fmt.Errorf("expr: unknown Math constant %q", name)
	}
}

var mathMethodWhitelist = map[string]bool{
	"floor": true, "ceil": true, "round": true, "abs": true,
	"min": true, "max": true, "pow": true, "sqrt": true, "trunc": true,
}

func (mathSandbox) call(method string, argNodes []node, env *evalEnv, st *evalState) (any, error) {
	if !mathMethodWhitelist[method] {
		return nil, fmt.Errorf("expr: Math.%s is not whitelisted", method)
	}
	args, err := evalArgs(argNodes, env, st)
	if err != nil {
		return nil, err
	}
	nums := make([]float64, len(args))
	for i, a := range args {
		f, ok := toNumber(a)
		if !ok {
			return nil, fmt.Errorf("expr: Math.%s requires numeric arguments", method)
		}
		nums[i] = f
	}
	switch method {
	case "floor":
		return math.Floor(nums[0]), nil
	case "ceil":
		return math.Ceil(nums[0]), nil
	case "round":
		return math.Round(nums[0]), nil
	case "abs":
		return math.Abs(nums[0]), nil
	case "trunc":
		return math.Trunc(nums[0]), nil
	case "sqrt":
		return math.Sqrt(nums[0]), nil
	case "pow":
		return math.Pow(nums[0], nums[1]), nil
	case "min":
		m := nums[0]
		for _, n := range nums[1:] {
			if n < m {
				m = n
			}
		}
		return m, nil
	case "max":
		m := nums[0]
		for _, n := range nums[1:] {
			if n > m {
				m = n
			}
		}
		return m, nil
	}
	return nil, fmt.Errorf("expr: unimplemented Math method %q", method)
}
