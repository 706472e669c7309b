package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dshills/etlgraph-go/pipeline"
	"github.com/dshills/etlgraph-go/record"
)

type csvConfig struct {
	Path          string `json:"path"`
	Delimiter     string `json:"delimiter,omitempty"`
	HasHeader     bool   `json:"hasHeader,omitempty"`
	IncludeHeader bool   `json:"includeHeader,omitempty"`
}

func (c csvConfig) delim() rune {
	if c.Delimiter == "" {
		return ','
	}
	return []rune(c.Delimiter)[0]
}

func parseCSVConfig(step pipeline.Step) (csvConfig, error) {
	cfg, err := pipeline.ParseAdapterConfig(step.Key, step.Config)
	if err != nil {
		return csvConfig{}, err
	}
	var cc csvConfig
	if len(cfg.Args) > 0 {
		if err := json.Unmarshal(cfg.Args, &cc); err != nil {
			return csvConfig{}, fmt.Errorf("csv adapter %q: invalid args: %w", step.Key, err)
		}
	}
	if cc.Path == "" {
		return csvConfig{}, fmt.Errorf("csv adapter %q: path is required", step.Key)
	}
	return cc, nil
}

// CSVExtractor is the "csv" EXTRACT adapter: reads a local CSV file into
// records.
type CSVExtractor struct{}

func (CSVExtractor) Extract(ctx context.Context, step pipeline.Step, ec *pipeline.ExecutorContext, onErr pipeline.OnRecordError) ([]record.Record, error) {
	cc, err := parseCSVConfig(step)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(cc.Path)
	if err != nil {
		return nil, fmt.Errorf("csv adapter %q: read %s: %w", step.Key, cc.Path, err)
	}
	return record.ParseCSV(string(data), cc.delim(), cc.HasHeader)
}

// CSVLoader is the "csv" LOAD adapter: appends incoming records to a
// local CSV file. The header is written only when includeHeader is set
// and the file doesn't exist yet.
type CSVLoader struct{}

func (CSVLoader) Execute(ctx context.Context, step pipeline.Step, in []record.Record, onErr pipeline.OnRecordError, eh pipeline.ErrorHandling) (pipeline.ExecutionResult, error) {
	cc, err := parseCSVConfig(step)
	if err != nil {
		return pipeline.ExecutionResult{}, err
	}
	_, statErr := os.Stat(cc.Path)
	includeHeader := cc.IncludeHeader && os.IsNotExist(statErr)

	csvText := record.RecordsToCSV(in, cc.delim(), includeHeader)

	f, err := os.OpenFile(cc.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return pipeline.ExecutionResult{Fail: uint64(len(in))}, fmt.Errorf("csv adapter %q: open %s: %w", step.Key, cc.Path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(csvText); err != nil {
		return pipeline.ExecutionResult{Fail: uint64(len(in))}, fmt.Errorf("csv adapter %q: write %s: %w", step.Key, cc.Path, err)
	}
	return pipeline.ExecutionResult{OK: uint64(len(in))}, nil
}

// Simulate satisfies pipeline.LoaderSimulator without touching the
// filesystem.
func (CSVLoader) Simulate(ctx context.Context, step pipeline.Step, in []record.Record) (any, error) {
	cc, err := parseCSVConfig(step)
	if err != nil {
		return nil, err
	}
	return map[string]any{"path": cc.Path, "recordCount": len(in)}, nil
}
