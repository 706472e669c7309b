package checkpoint

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dshills/etlgraph-go/pipeline"
	"github.com/dshills/etlgraph-go/record"
)

// Manager is the one-per-run Checkpoint Manager: loads at start, lets
// extractors mutate their own sub-map via ExecutorContext during the run,
// and saves atomically at the end if dirty. Store failures are logged and
// non-fatal, matching the "log and proceed with {}" contract.
type Manager struct {
	store Store
	log   zerolog.Logger
}

// NewManager builds a Manager backed by store, logging through log.
func NewManager(store Store, log zerolog.Logger) *Manager {
	return &Manager{store: store, log: log.With().Str("component", "checkpoint").Logger()}
}

// LoadCheckpoint fetches pipelineID's existing CheckpointData and installs
// it on ec. A store failure is logged and the run proceeds with an empty
// map rather than aborting.
func (m *Manager) LoadCheckpoint(ctx context.Context, pipelineID string, ec *pipeline.ExecutorContext) error {
	if pipelineID == "" {
		return nil
	}
	data, found, err := m.store.GetByPipeline(ctx, pipelineID)
	if err != nil {
		m.log.Warn().Err(err).Str("pipelineId", pipelineID).Msg("checkpoint load failed, starting empty")
		ec.SetCPData(record.CheckpointData{})
		return nil
	}
	if !found {
		ec.SetCPData(record.CheckpointData{})
		return nil
	}
	ec.SetCPData(data)
	return nil
}

// ClearCheckpoint deletes the persisted row, used when a run starts fresh
// rather than resuming.
func (m *Manager) ClearCheckpoint(ctx context.Context, pipelineID string) error {
	if pipelineID == "" {
		return nil
	}
	if err := m.store.ClearForPipeline(ctx, pipelineID); err != nil {
		m.log.Warn().Err(err).Str("pipelineId", pipelineID).Msg("checkpoint clear failed")
	}
	return nil
}

// SaveCheckpoint persists ec's checkpoint data if it was marked dirty
// during the run. A store failure is logged, not returned, per the
// "failures are logged and not fatal" contract.
func (m *Manager) SaveCheckpoint(ctx context.Context, pipelineID string, ec *pipeline.ExecutorContext) error {
	if pipelineID == "" || !ec.IsDirty() || ec.CPData() == nil {
		return nil
	}
	if err := m.store.SetForPipeline(ctx, pipelineID, ec.CPData()); err != nil {
		m.log.Warn().Err(err).Str("pipelineId", pipelineID).Msg("checkpoint save failed")
	}
	return nil
}
