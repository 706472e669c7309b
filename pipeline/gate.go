package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dshills/etlgraph-go/record"
)

// GateConfig is the parsed config for a GATE step. A gate triggers when
// Pause is set (an unconditional approval gate) or when the batch exceeds
// MaxRecords (a volume guard before an expensive terminal step). An empty
// config never pauses.
type GateConfig struct {
	Pause      bool `json:"pause,omitempty"`
	MaxRecords int  `json:"maxRecords,omitempty"`
}

// ParseGateConfig decodes a GATE step's raw config.
func ParseGateConfig(stepKey string, raw json.RawMessage) (GateConfig, error) {
	var cfg GateConfig
	if len(raw) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, &ConfigError{StepKey: stepKey, Message: fmt.Sprintf("invalid gate config: %v", err), Cause: err}
	}
	return cfg, nil
}

// StandardGate implements GateExecutor with release-once semantics: the
// first run that trips the gate pauses and records the release in the
// gate's own checkpoint sub-map, so an execute(resume=true) continues
// straight through. A fresh (non-resume) run clears the checkpoint and
// arms the gate again.
type StandardGate struct{}

func (StandardGate) ShouldPause(_ context.Context, step Step, in []record.Record, ec *ExecutorContext) (bool, error) {
	cfg, err := ParseGateConfig(step.Key, step.Config)
	if err != nil {
		return false, err
	}

	triggered := cfg.Pause || (cfg.MaxRecords > 0 && len(in) > cfg.MaxRecords)
	if !triggered {
		return false, nil
	}

	cp := ec.StepCheckpoint(step.Key)
	if released, _ := cp["released"].(bool); released {
		return false, nil
	}
	cp["released"] = true
	ec.MarkDirty()
	return true, nil
}
