// Package pipeline implements the scheduler that drives a PipelineDefinition
// to terminal completion: linear and graph (Kahn-style) execution, replay,
// dry-run simulation, and the checkpoint/idempotency machinery shared by
// both modes.
package pipeline

import (
	"encoding/json"

	"github.com/dshills/etlgraph-go/record"
)

// StepType identifies what a Step does and which executor dispatches it.
type StepType string

const (
	StepTrigger   StepType = "TRIGGER"
	StepExtract   StepType = "EXTRACT"
	StepTransform StepType = "TRANSFORM"
	StepEnrich    StepType = "ENRICH"
	StepValidate  StepType = "VALIDATE"
	StepRoute     StepType = "ROUTE"
	StepLoad      StepType = "LOAD"
	StepExport    StepType = "EXPORT"
	StepFeed      StepType = "FEED"
	StepSink      StepType = "SINK"
	StepGate      StepType = "GATE"
)

// IsTerminal reports whether a step of this type emits no records
// downstream once it completes.
func (t StepType) IsTerminal() bool {
	switch t {
	case StepLoad, StepExport, StepFeed, StepSink:
		return true
	default:
		return false
	}
}

// ThroughputConfig bounds concurrency and rate for a terminal step, and
// defines the drain behaviour when the error rate spikes mid-run. Step-level
// config wins over the definition-level default.
type ThroughputConfig struct {
	RateLimitRPS     float64           `json:"rateLimitRps,omitempty"`
	BatchSize        int               `json:"batchSize,omitempty"`
	Concurrency      int               `json:"concurrency,omitempty"`
	PauseOnErrorRate *PauseOnErrorRate `json:"pauseOnErrorRate,omitempty"`
	DrainStrategy    DrainStrategy     `json:"drainStrategy,omitempty"`
}

// PauseOnErrorRate configures the chunk error-ratio threshold that triggers
// a drain strategy.
type PauseOnErrorRate struct {
	Threshold   float64 `json:"threshold"`
	IntervalSec float64 `json:"intervalSec"`
}

// DrainStrategy names how the throughput controller handles remaining
// chunks once the error-rate threshold trips.
type DrainStrategy string

const (
	DrainBackoff DrainStrategy = "BACKOFF"
	DrainShed    DrainStrategy = "SHED"
	DrainQueue   DrainStrategy = "QUEUE"
)

// ErrorHandlingMode governs whether a single bad record/handler aborts the
// owning run or is merely counted.
type ErrorHandlingMode string

const (
	ErrorModeCollect  ErrorHandlingMode = "COLLECT"
	ErrorModeFailFast ErrorHandlingMode = "FAIL_FAST"
)

// ErrorHandling is the run-wide (or step-level override) error policy.
type ErrorHandling struct {
	Mode ErrorHandlingMode `json:"mode,omitempty"`
}

// Checkpointing toggles whether a run persists CheckpointData at all.
type Checkpointing struct {
	Enabled bool `json:"enabled"`
}

// Context carries the cross-cutting policy that applies to an entire run:
// error handling defaults, checkpointing, throughput defaults, the
// idempotency key path, and channel/locale hints (Channel,
// ContentLanguage), which no executor in this module reads.
type Context struct {
	ErrorHandling      ErrorHandling    `json:"errorHandling,omitempty"`
	Checkpointing      Checkpointing    `json:"checkpointing,omitempty"`
	Throughput         ThroughputConfig `json:"throughput,omitempty"`
	IdempotencyKeyField string          `json:"idempotencyKeyField,omitempty"`
	Channel            string           `json:"channel,omitempty"`
	ContentLanguage    string           `json:"contentLanguage,omitempty"`
}

// Step is one node of a PipelineDefinition. Config is opaque at this layer;
// the Parse*Config function for the step's Type (configs.go, gate.go)
// decodes it when the step is dispatched.
type Step struct {
	Key        string          `json:"key"`
	Name       string          `json:"name,omitempty"`
	Type       StepType        `json:"type"`
	Config     json.RawMessage `json:"config,omitempty"`
	Throughput *ThroughputConfig `json:"throughput,omitempty"`
}

// Edge connects two steps by key. A Branch name restricts the edge to
// records a ROUTE step assigned to that branch; an unqualified edge from a
// ROUTE step receives every branch concatenated.
type Edge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Branch string `json:"branch,omitempty"`
}

// PipelineDefinition is an ordered sequence of Steps, an optional set of
// Edges (present ⇒ graph mode, absent ⇒ strictly linear), and the run-wide
// Context.
type PipelineDefinition struct {
	Steps   []Step  `json:"steps"`
	Edges   []Edge  `json:"edges,omitempty"`
	Context Context `json:"context,omitempty"`
}

// IsGraph reports whether the definition carries edges and must be
// scheduled with the Kahn-style graph scheduler rather than linear order.
func (d *PipelineDefinition) IsGraph() bool {
	return len(d.Edges) > 0
}

// StepByKey looks up a step by its unique key.
func (d *PipelineDefinition) StepByKey(key string) (Step, bool) {
	for _, s := range d.Steps {
		if s.Key == key {
			return s, true
		}
	}
	return Step{}, false
}

// BranchOutput is the tagged output shape produced only by ROUTE steps in
// graph mode: one record slice per matched branch name, including
// "default" for records matching no declared branch.
type BranchOutput struct {
	Branches map[string][]record.Record
}

// Output is the sum type every step produces: either a flat record slice
// or (ROUTE only) a BranchOutput. Exactly one of Records/Branch is set.
type Output struct {
	Records []record.Record
	Branch  *BranchOutput
}

// RecordsOutput wraps a plain record slice as an Output.
func RecordsOutput(recs []record.Record) Output {
	return Output{Records: recs}
}

// Flatten concatenates every branch (in a stable, sorted-name order for
// determinism) into a single record slice, used when an edge from a ROUTE
// step does not name a branch.
func (o Output) Flatten() []record.Record {
	if o.Branch == nil {
		return o.Records
	}
	names := make([]string, 0, len(o.Branch.Branches))
	for name := range o.Branch.Branches {
		names = append(names, name)
	}
	sortStrings(names)
	var out []record.Record
	for _, name := range names {
		out = append(out, o.Branch.Branches[name]...)
	}
	return out
}

// ForBranch returns the records assigned to a named branch, or nil.
func (o Output) ForBranch(name string) []record.Record {
	if o.Branch == nil {
		return nil
	}
	return o.Branch.Branches[name]
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// ExecutionResult is the per-terminal-step tally the throughput controller
// and terminal executors report back to the scheduler.
type ExecutionResult struct {
	OK   uint64
	Fail uint64
}

// Summary is the outcome of a full (or paused) run.
type Summary struct {
	Processed    uint64
	Succeeded    uint64
	Failed       uint64
	Details      []map[string]any
	Paused       bool
	PausedAtStep string
	Err          error
}
