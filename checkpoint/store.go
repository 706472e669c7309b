// Package checkpoint implements the Checkpoint Manager and its backing
// stores: one CheckpointData document per pipeline, loaded at run start,
// mutated in place by extractors via ExecutorContext, and persisted
// atomically at run end if dirty. Each backend stores the whole
// CheckpointData document as one row per pipeline, replaced wholesale
// on save.
package checkpoint

import (
	"context"

	"github.com/dshills/etlgraph-go/record"
)

// Store is the persistence contract the Manager consumes. It matches the
// external CheckpointStore interface exactly: one document per pipeline,
// replaced wholesale on every save.
type Store interface {
	GetByPipeline(ctx context.Context, pipelineID string) (record.CheckpointData, bool, error)
	SetForPipeline(ctx context.Context, pipelineID string, data record.CheckpointData) error
	ClearForPipeline(ctx context.Context, pipelineID string) error
}
