package checkpoint

import (
	"context"
	"sync"

	"github.com/dshills/etlgraph-go/record"
)

// MemoryStore is an in-process Store, useful for tests and for pipelines
// that never need checkpoints to survive a process restart.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]record.CheckpointData
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]record.CheckpointData)}
}

func (m *MemoryStore) GetByPipeline(ctx context.Context, pipelineID string) (record.CheckpointData, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.rows[pipelineID]
	if !ok {
		return nil, false, nil
	}
	return data.Clone(), true, nil
}

func (m *MemoryStore) SetForPipeline(ctx context.Context, pipelineID string, data record.CheckpointData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[pipelineID] = data.Clone()
	return nil
}

func (m *MemoryStore) ClearForPipeline(ctx context.Context, pipelineID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, pipelineID)
	return nil
}
