package pipeline

import "github.com/dshills/etlgraph-go/record"

// ExecutorContext lives for the duration of one pipeline run. It carries
// the loaded checkpoint (nil when the run doesn't checkpoint at all) and
// the run-wide policy every executor consults.
type ExecutorContext struct {
	cpData        record.CheckpointData
	cpDirty       bool
	ErrorHandling ErrorHandling
	Checkpointing Checkpointing
}

// NewExecutorContext constructs a run context. cpData is nil until
// LoadCheckpoint is called by the checkpoint manager.
func NewExecutorContext(eh ErrorHandling, cp Checkpointing) *ExecutorContext {
	return &ExecutorContext{ErrorHandling: eh, Checkpointing: cp}
}

// CPData returns the loaded checkpoint data, or nil if the run isn't
// checkpointing or the checkpoint hasn't been loaded.
func (ec *ExecutorContext) CPData() record.CheckpointData {
	return ec.cpData
}

// SetCPData installs checkpoint data (called by the checkpoint manager
// after load, or after clearing to start a fresh run).
func (ec *ExecutorContext) SetCPData(data record.CheckpointData) {
	ec.cpData = data
	ec.cpDirty = false
}

// MarkDirty sets the dirty bit. Idempotent.
func (ec *ExecutorContext) MarkDirty() {
	ec.cpDirty = true
}

// IsDirty reports whether checkpoint data has been written to since the
// last load/save.
func (ec *ExecutorContext) IsDirty() bool {
	return ec.cpDirty
}

// StepCheckpoint returns the sub-map owned by stepKey, creating it (and the
// top-level map, if absent) on first access. A step must only read and
// write its own sub-map.
func (ec *ExecutorContext) StepCheckpoint(stepKey string) map[string]any {
	if ec.cpData == nil {
		ec.cpData = record.CheckpointData{}
	}
	return ec.cpData.SubMap(stepKey)
}
