package expr

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Result is the outcome of a single evaluation, matching the evaluator's
// external contract: evaluate(expr, context, timeoutMs) -> {success,
// value?, error?, elapsedMs}.
type Result struct {
	Success   bool
	Value     any
	Error     string
	ElapsedMs int64
}

// Evaluator compiles and runs whitelisted expressions against a context
// map. It is safe for concurrent use.
type Evaluator struct {
	cache          *scriptCache
	disabled       bool
	defaultTimeout time.Duration
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithCacheSize sets the compiled-script cache's max entries and bulk
// eviction fraction (e.g. 0.2 evicts the oldest 20% when full).
func WithCacheSize(maxSize int, evictFraction float64) Option {
	return func(e *Evaluator) {
		e.cache = newScriptCache(maxSize, evictFraction)
	}
}

// WithDisabled sets scriptOperatorsEnabled=false: every Evaluate call
// short-circuits without compiling.
func WithDisabled(disabled bool) Option {
	return func(e *Evaluator) { e.disabled = disabled }
}

// WithDefaultTimeout sets the timeout used when Evaluate is called with
// timeoutMs <= 0.
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Evaluator) { e.defaultTimeout = d }
}

// NewEvaluator builds an Evaluator with a 500-entry cache and a 100ms
// default timeout unless overridden.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		cache:          newScriptCache(500, 0.2),
		defaultTimeout: 100 * time.Millisecond,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// cacheKey combines the expression text with its sorted context keys, per
// the evaluator's caching contract — two calls with the same expression
// but structurally different contexts (different available identifiers)
// are treated as distinct cache entries.
func cacheKey(expression string, context map[string]any) string {
	keys := make([]string, 0, len(context))
	for k := range context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return expression + "\x00" + strings.Join(keys, ",")
}

// Evaluate compiles (or reuses a cached compile of) expression and runs it
// against context, enforcing timeoutMs (or the evaluator's default when
// timeoutMs <= 0) as a cooperative per-node deadline.
func (e *Evaluator) Evaluate(expression string, context map[string]any, timeoutMs int) Result {
	start := time.Now()
	if e.disabled {
		return Result{Success: false, Error: "Script operators are disabled"}
	}

	timeout := e.defaultTimeout
	if timeoutMs > 0 {
		timeout = time.Duration(timeoutMs) * time.Millisecond
	}

	key := cacheKey(expression, context)
	prog, err := e.cacheCompile(key, expression)
	if err != nil {
		return Result{Success: false, Error: err.Error(), ElapsedMs: elapsedMs(start)}
	}

	env := &evalEnv{vars: context}
	st := &evalState{deadline: start.Add(timeout)}

	value, err := evalNode(prog.root, env, st)
	if err != nil {
		if err == errTimeout {
			return Result{
				Success:   false,
				Error:     fmt.Sprintf("Expression timeout after %dms", timeout.Milliseconds()),
				ElapsedMs: elapsedMs(start),
			}
		}
		return Result{Success: false, Error: err.Error(), ElapsedMs: elapsedMs(start)}
	}
	return Result{Success: true, Value: value, ElapsedMs: elapsedMs(start)}
}

// cacheCompile parses expression under key, reusing the scriptCache's
// normal expression-keyed storage but with the combined (expr, sorted
// context keys) key so contexts with different available identifiers
// don't collide.
func (e *Evaluator) cacheCompile(key, expression string) (*program, error) {
	return e.cache.compileWithKey(key, expression)
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

// OperatorAdapter satisfies operator.ScriptEvaluator's structural
// interface (value, ok, errMsg) without this package importing operator —
// operator's "script" built-in is wired with one of these at registry
// construction.
type OperatorAdapter struct {
	Evaluator *Evaluator
}

// NewOperatorAdapter wraps e for use as the operator package's
// ScriptEvaluator.
func NewOperatorAdapter(e *Evaluator) OperatorAdapter {
	return OperatorAdapter{Evaluator: e}
}

// Evaluate adapts Evaluator.Evaluate's Result return to the
// (value, ok, errMsg) shape the operator package's built-in expects.
func (a OperatorAdapter) Evaluate(expression string, evalContext map[string]any, timeoutMs int) (any, bool, string) {
	r := a.Evaluator.Evaluate(expression, evalContext, timeoutMs)
	if !r.Success {
		return nil, false, r.Error
	}
	return r.Value, true, ""
}
