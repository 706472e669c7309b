// Package operator implements the TRANSFORM/ENRICH/VALIDATE/ROUTE
// executors: the built-in operator catalog, the two-tier registry that
// resolves a step's registry code to a concrete implementation, and the
// capability bundle ("helpers") every operator receives.
package operator

import (
	"context"
	"encoding/json"

	"github.com/dshills/etlgraph-go/record"
)

// Operator is a marker interface: a registered implementation satisfies
// either BatchOperator or SingleRecordOperator (never both), and the
// executor dispatches via a type assertion against whichever it
// implements.
type Operator interface{}

// BatchOperator sees the whole batch at once — used by operators whose
// output for one record depends on others in the batch (aggregate,
// lookup).
type BatchOperator interface {
	Apply(ctx context.Context, records []record.Record, args json.RawMessage, h Helpers) ([]record.Record, error)
}

// SingleRecordOperator runs once per record and supports the shared
// per-record retry loop. Returning ok=false filters the record out of the
// step's output.
type SingleRecordOperator interface {
	ApplyOne(ctx context.Context, rec record.Record, args json.RawMessage, h Helpers) (out record.Record, ok bool, err error)
}

// Helpers is the capability bundle passed to every operator invocation.
type Helpers struct {
	Format  FormatHelpers
	Convert ConvertHelpers
	Crypto  CryptoHelpers
	Secrets SecretsHelpers
}
