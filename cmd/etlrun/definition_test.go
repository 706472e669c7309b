package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/etlgraph-go/pipeline"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefinitionJSON(t *testing.T) {
	path := writeFile(t, "def.json", `{
		"steps": [
			{"key": "ext", "type": "EXTRACT", "config": {"adapterCode": "seed", "args": {"records": [{"sku": "A"}]}}},
			{"key": "load", "type": "LOAD", "config": {"adapterCode": "sink"}}
		],
		"context": {"idempotencyKeyField": "sku"}
	}`)

	def, err := loadDefinition(path)
	require.NoError(t, err)
	require.Len(t, def.Steps, 2)
	assert.Equal(t, pipeline.StepExtract, def.Steps[0].Type)
	assert.Equal(t, "sku", def.Context.IdempotencyKeyField)
	require.NoError(t, def.Validate())
}

func TestLoadDefinitionYAML(t *testing.T) {
	path := writeFile(t, "def.yaml", `
steps:
  - key: ext
    type: EXTRACT
    config:
      adapterCode: seed
      args:
        records:
          - region: EU
          - region: US
  - key: route
    type: ROUTE
    config:
      branches:
        - name: eu
          when:
            - field: region
              cmp: eq
              value: EU
  - key: loadEU
    type: LOAD
    config:
      adapterCode: sink
edges:
  - from: ext
    to: route
  - from: route
    to: loadEU
    branch: eu
`)

	def, err := loadDefinition(path)
	require.NoError(t, err)
	require.Len(t, def.Steps, 3)
	require.Len(t, def.Edges, 2)
	assert.Equal(t, "eu", def.Edges[1].Branch)
	require.NoError(t, def.Validate())

	// The YAML round-trip must leave configs parseable as their tagged
	// variants.
	require.NoError(t, validateStepConfigs(def))
}

func TestLoadDefinitionRejectsMalformedYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "steps: [unclosed")
	_, err := loadDefinition(path)
	assert.Error(t, err)
}

func TestValidateStepConfigsRejectsMissingAdapterCode(t *testing.T) {
	path := writeFile(t, "def.json", `{
		"steps": [{"key": "ext", "type": "EXTRACT", "config": {"args": {}}}]
	}`)
	def, err := loadDefinition(path)
	require.NoError(t, err)

	err = validateStepConfigs(def)
	require.Error(t, err)
	var cfgErr *pipeline.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestLoadSeed(t *testing.T) {
	path := writeFile(t, "seed.json", `[{"x": 1}, {"x": 2}]`)
	recs, err := loadSeed(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, float64(2), recs[1]["x"])
}

func TestToSummaryOutput(t *testing.T) {
	out := toSummaryOutput(pipeline.Summary{
		Processed: 10, Succeeded: 8, Failed: 2,
		Paused: true, PausedAtStep: "gate",
		Err: errors.New("boom"),
	})
	assert.Equal(t, uint64(10), out.Processed)
	assert.Equal(t, "gate", out.PausedAtStep)
	assert.Equal(t, "boom", out.Error)
}
