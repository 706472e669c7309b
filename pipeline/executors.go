package pipeline

import (
	"context"

	"github.com/dshills/etlgraph-go/record"
)

// TransformExecutor runs any step that mutates or filters records in
// memory: TRANSFORM, ENRICH, VALIDATE, ROUTE. Implemented by the operator
// package.
type TransformExecutor interface {
	ExecuteOperator(ctx context.Context, step Step, in []record.Record, ec *ExecutorContext, onErr OnRecordError) ([]record.Record, error)
	ExecuteValidate(ctx context.Context, step Step, in []record.Record, onErr OnRecordError) ([]record.Record, error)
	// ExecuteRoute implements linear-mode ROUTE semantics: the records of
	// the first branch with at least one match, or [] if none match.
	ExecuteRoute(ctx context.Context, step Step, in []record.Record) ([]record.Record, error)
	// ExecuteRouteBranches implements graph-mode ROUTE semantics: every
	// input record is partitioned into exactly one branch (first match,
	// else "default").
	ExecuteRouteBranches(ctx context.Context, step Step, in []record.Record) (BranchOutput, error)
}

// Extractor is a thin adapter-coded handler that produces records. It may
// read and write only its own checkpoint sub-map via ec.
type Extractor interface {
	Extract(ctx context.Context, step Step, ec *ExecutorContext, onErr OnRecordError) ([]record.Record, error)
}

// Loader is a thin adapter-coded handler that consumes a batch of records.
type Loader interface {
	Execute(ctx context.Context, step Step, in []record.Record, onErr OnRecordError, eh ErrorHandling) (ExecutionResult, error)
}

// LoaderSimulator is an optional capability a Loader may also implement, so
// that dry-run can observe its behaviour without mutating anything.
type LoaderSimulator interface {
	Simulate(ctx context.Context, step Step, in []record.Record) (any, error)
}

// GateExecutor decides whether a GATE step pauses the run. It receives
// the ExecutorContext so a gate can record its release in its own
// checkpoint sub-map and let a resumed run pass through.
type GateExecutor interface {
	ShouldPause(ctx context.Context, step Step, in []record.Record, ec *ExecutorContext) (bool, error)
}

// ThroughputController wraps a Loader with bounded concurrency, rate
// limiting, and adaptive drain behaviour. Implemented by the throughput
// package.
type ThroughputController interface {
	Run(ctx context.Context, step Step, in []record.Record, loader Loader, eh ErrorHandling, cfg ThroughputConfig, onErr OnRecordError) (ExecutionResult, error)
}

// ExtractDispatcher resolves a step's adapterCode to a registered
// Extractor. Implemented by the dispatch package.
type ExtractDispatcher interface {
	Resolve(adapterCode string) (Extractor, bool)
}

// LoadDispatcher resolves a step's adapterCode to a registered Loader.
type LoadDispatcher interface {
	Resolve(adapterCode string) (Loader, bool)
}
