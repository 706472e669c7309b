package operator

import (
	"context"

	"github.com/dshills/etlgraph-go/pipeline"
	"github.com/dshills/etlgraph-go/record"
)

// matchBranch returns the name of the first branch whose every condition
// matches rec, or "default" if none do.
func matchBranch(rec record.Record, branches []pipeline.BranchSpec) string {
	for _, b := range branches {
		matched := true
		for _, cond := range b.When {
			v, found := record.Get(rec, cond.Field)
			if !conditionMatches(v, found, cond) {
				matched = false
				break
			}
		}
		if matched {
			return b.Name
		}
	}
	return "default"
}

// ExecuteRoute implements linear-mode ROUTE semantics: the declared
// branches are evaluated in order and the step returns the records of the
// first branch with at least one match; unmatched records are dropped
// from the linear result (they still exist logically in "default", but
// linear mode only ever forwards one branch downstream).
func (e *Executor) ExecuteRoute(ctx context.Context, step pipeline.Step, in []record.Record) ([]record.Record, error) {
	cfg, err := pipeline.ParseRouteConfig(step.Key, step.Config)
	if err != nil {
		return nil, err
	}
	for _, b := range cfg.Branches {
		var matched []record.Record
		for _, rec := range in {
			if branchConditionsMatch(rec, b) {
				matched = append(matched, rec)
			}
		}
		if len(matched) > 0 {
			return matched, nil
		}
	}
	return nil, nil
}

// ExecuteRouteBranches implements graph-mode ROUTE semantics: every input
// record is partitioned into exactly one branch using first-match order,
// falling into "default" when none match. The union of branches always
// equals the input set.
func (e *Executor) ExecuteRouteBranches(ctx context.Context, step pipeline.Step, in []record.Record) (pipeline.BranchOutput, error) {
	cfg, err := pipeline.ParseRouteConfig(step.Key, step.Config)
	if err != nil {
		return pipeline.BranchOutput{}, err
	}
	branches := map[string][]record.Record{"default": {}}
	for _, b := range cfg.Branches {
		branches[b.Name] = []record.Record{}
	}
	for _, rec := range in {
		name := matchBranch(rec, cfg.Branches)
		branches[name] = append(branches[name], rec)
	}
	return pipeline.BranchOutput{Branches: branches}, nil
}

func branchConditionsMatch(rec record.Record, b pipeline.BranchSpec) bool {
	for _, cond := range b.When {
		v, found := record.Get(rec, cond.Field)
		if !conditionMatches(v, found, cond) {
			return false
		}
	}
	return true
}
