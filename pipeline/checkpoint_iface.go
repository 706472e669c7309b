package pipeline

import "context"

// CheckpointManager owns the one checkpoint lifecycle per run: load at
// start (or clear, for a fresh run), mutate in place via ExecutorContext,
// and save atomically at run end if dirty. Implemented by the checkpoint
// package.
type CheckpointManager interface {
	LoadCheckpoint(ctx context.Context, pipelineID string, ec *ExecutorContext) error
	ClearCheckpoint(ctx context.Context, pipelineID string) error
	SaveCheckpoint(ctx context.Context, pipelineID string, ec *ExecutorContext) error
}
