package pipeline

import (
	"context"

	"github.com/dshills/etlgraph-go/record"
)

// runGraph executes def using a Kahn-style, data-driven scheduler: steps
// become ready once every predecessor has produced output, and the ready
// set is drained in declaration order for determinism. Concurrency lives
// only in the throughput controller, never in this loop.
func (s *Scheduler) runGraph(ctx context.Context, def *PipelineDefinition, ec *ExecutorContext, seeds map[string][]record.Record, opts ExecuteOptions) Summary {
	g := buildGraph(def)
	outputs := map[string]Output{}
	var summary Summary

	applyIdempotency := def.Context.IdempotencyKeyField != ""
	appliedDedup := false

	ready := append([]string(nil), g.initialReady...)
	inDegree := map[string]int{}
	for k, v := range g.inDegree {
		inDegree[k] = v
	}

	for len(ready) > 0 {
		if opts.OnCancelRequested != nil && opts.OnCancelRequested() {
			summary.Err = &CancelledError{AtStep: ready[0]}
			return summary
		}

		key := ready[0]
		ready = ready[1:]
		step := g.stepsByKey[key]

		in := g.assembleInput(key, outputs)
		if seeded, ok := seeds[key]; ok {
			in = seeded
		}

		run, err := s.dispatchStep(ctx, step, in, ec, step.Type == StepRoute, def.Context, opts)
		if err != nil {
			if isConfigOrCancel(err) || def.Context.ErrorHandling.Mode == ErrorModeFailFast {
				summary.Err = err
				return summary
			}
			summary.Failed += uint64(len(in))
			summary.Processed += uint64(len(in))
			outputs[key] = RecordsOutput(nil)
		} else {
			out := run.Output
			if step.Type == StepExtract && applyIdempotency && !appliedDedup {
				out = RecordsOutput(dedupeByIdempotencyKey(out.Records, def.Context.IdempotencyKeyField))
				appliedDedup = true
			}
			outputs[key] = out

			if step.Type.IsTerminal() {
				summary.Processed += uint64(len(in))
				summary.Succeeded += run.Tally.OK
				summary.Failed += run.Tally.Fail
			}
			if run.Paused {
				summary.Paused = true
				summary.PausedAtStep = key
				return summary
			}
		}

		for _, succ := range g.successors[key] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				ready = append(ready, succ)
			}
		}
		// A successor can unlock with an earlier declaration index than
		// steps already waiting; re-sort so the tie-break stays
		// declaration order, not arrival order.
		g.sortByDecl(ready)
	}

	return summary
}

// replayGraph re-executes startKey and its descendants, using seed as
// startKey's input.
func (s *Scheduler) replayGraph(ctx context.Context, def *PipelineDefinition, ec *ExecutorContext, startKey string, seed []record.Record, opts ExecuteOptions) Summary {
	g := buildGraph(def)
	if _, ok := g.stepsByKey[startKey]; !ok {
		return Summary{Err: &ConfigError{StepKey: startKey, Message: "replay step not found"}}
	}

	descendants := g.descendantsOf(startKey)
	descendants[startKey] = true
	outputs := map[string]Output{}
	var summary Summary

	order := g.topoOrder()
	for _, key := range order {
		if !descendants[key] {
			continue
		}
		step := g.stepsByKey[key]
		in := seed
		if key != startKey {
			in = g.assembleInput(key, outputs)
		}

		run, err := s.dispatchStep(ctx, step, in, ec, step.Type == StepRoute, def.Context, opts)
		if err != nil {
			if isConfigOrCancel(err) || def.Context.ErrorHandling.Mode == ErrorModeFailFast {
				summary.Err = err
				return summary
			}
			summary.Failed += uint64(len(in))
			summary.Processed += uint64(len(in))
			outputs[key] = RecordsOutput(nil)
			continue
		}
		outputs[key] = run.Output
		if step.Type.IsTerminal() {
			summary.Processed += uint64(len(in))
			summary.Succeeded += run.Tally.OK
			summary.Failed += run.Tally.Fail
		}
	}

	return summary
}

// stepGraph is the predecessor/successor index built once per run.
type stepGraph struct {
	stepsByKey   map[string]Step
	edgesFrom    map[string][]Edge
	edgesTo      map[string][]Edge
	successors   map[string][]string
	inDegree     map[string]int
	initialReady []string
	declOrder    map[string]int
}

func buildGraph(def *PipelineDefinition) *stepGraph {
	g := &stepGraph{
		stepsByKey: map[string]Step{},
		edgesFrom:  map[string][]Edge{},
		edgesTo:    map[string][]Edge{},
		successors: map[string][]string{},
		inDegree:   map[string]int{},
		declOrder:  map[string]int{},
	}
	for i, step := range def.Steps {
		g.stepsByKey[step.Key] = step
		g.declOrder[step.Key] = i
		g.inDegree[step.Key] = 0
	}
	for _, e := range def.Edges {
		g.edgesFrom[e.From] = append(g.edgesFrom[e.From], e)
		g.edgesTo[e.To] = append(g.edgesTo[e.To], e)
		g.successors[e.From] = append(g.successors[e.From], e.To)
		g.inDegree[e.To]++
	}

	for _, step := range def.Steps {
		if g.inDegree[step.Key] == 0 {
			g.initialReady = append(g.initialReady, step.Key)
		}
	}
	g.sortByDecl(g.initialReady)
	for k := range g.successors {
		g.sortByDecl(g.successors[k])
	}
	return g
}

func (g *stepGraph) sortByDecl(keys []string) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && g.declOrder[keys[j-1]] > g.declOrder[keys[j]]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
}

// assembleInput concatenates the outputs of every predecessor edge into
// key, taking only the named branch for branch-qualified edges and
// flattening all branches for unqualified edges from a ROUTE step.
func (g *stepGraph) assembleInput(key string, outputs map[string]Output) []record.Record {
	var in []record.Record
	for _, e := range g.edgesTo[key] {
		out, ok := outputs[e.From]
		if !ok {
			continue
		}
		if e.Branch != "" {
			in = append(in, out.ForBranch(e.Branch)...)
		} else {
			in = append(in, out.Flatten()...)
		}
	}
	return in
}

// topoOrder returns a Kahn-order traversal of every step, used by replay to
// walk descendants in dependency order.
func (g *stepGraph) topoOrder() []string {
	inDegree := map[string]int{}
	for k, v := range g.inDegree {
		inDegree[k] = v
	}
	ready := append([]string(nil), g.initialReady...)
	var order []string
	for len(ready) > 0 {
		key := ready[0]
		ready = ready[1:]
		order = append(order, key)
		for _, succ := range g.successors[key] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				ready = append(ready, succ)
			}
		}
		g.sortByDecl(ready)
	}
	return order
}

// descendantsOf returns the set of steps reachable from key, key itself
// excluded, used by replay to limit re-execution to the affected suffix.
func (g *stepGraph) descendantsOf(key string) map[string]bool {
	seen := map[string]bool{}
	var visit func(string)
	visit = func(k string) {
		for _, succ := range g.successors[k] {
			if !seen[succ] {
				seen[succ] = true
				visit(succ)
			}
		}
	}
	visit(key)
	return seen
}
