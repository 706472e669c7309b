package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dshills/etlgraph-go/record"
)

type dryRunOutput struct {
	Metrics       summaryOutput     `json:"metrics"`
	SampleRecords []dryRunSample    `json:"sampleRecords"`
	Details       []map[string]any  `json:"details,omitempty"`
	Errors        []string          `json:"errors,omitempty"`
}

type dryRunSample struct {
	Step   string          `json:"step"`
	Before []record.Record `json:"before"`
	After  []record.Record `json:"after"`
}

func newDryRunCmd(root *rootFlags) *cobra.Command {
	var definitionPath string

	cmd := &cobra.Command{
		Use:   "dry-run",
		Short: "Simulate a pipeline without touching any destination",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(root)
			if err != nil {
				return err
			}
			def, err := loadDefinition(definitionPath)
			if err != nil {
				return err
			}
			if err := def.Validate(); err != nil {
				return err
			}

			result := app.Scheduler.DryRun(context.Background(), def)

			out := dryRunOutput{
				Metrics: toSummaryOutput(result.Metrics),
				Details: result.Details,
				Errors:  result.Errors,
			}
			out.SampleRecords = make([]dryRunSample, len(result.SampleRecords))
			for i, s := range result.SampleRecords {
				out.SampleRecords[i] = dryRunSample{Step: s.Step, Before: s.Before, After: s.After}
			}
			return printJSON(out)
		},
	}

	cmd.Flags().StringVarP(&definitionPath, "file", "f", "", "Pipeline definition (JSON or YAML)")
	cmd.MarkFlagRequired("file") //nolint:errcheck

	return cmd
}
