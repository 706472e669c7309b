package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/etlgraph-go/pipeline"
)

func newValidateCmd(root *rootFlags) *cobra.Command {
	var definitionPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a pipeline definition without executing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := loadDefinition(definitionPath)
			if err != nil {
				return err
			}
			if err := def.Validate(); err != nil {
				return err
			}
			if err := validateStepConfigs(def); err != nil {
				return err
			}
			fmt.Printf("%s: %d steps, %d edges, OK\n", definitionPath, len(def.Steps), len(def.Edges))
			return nil
		},
	}

	cmd.Flags().StringVarP(&definitionPath, "file", "f", "", "Pipeline definition (JSON or YAML)")
	cmd.MarkFlagRequired("file") //nolint:errcheck

	return cmd
}

// validateStepConfigs parses every step's config through its type's
// tagged-variant parser, so a malformed config fails here instead of
// mid-run.
func validateStepConfigs(def *pipeline.PipelineDefinition) error {
	for _, step := range def.Steps {
		var err error
		switch step.Type {
		case pipeline.StepTransform, pipeline.StepEnrich:
			_, err = pipeline.ParseTransformConfig(step.Key, step.Config)
		case pipeline.StepValidate:
			_, err = pipeline.ParseValidateConfig(step.Key, step.Config)
		case pipeline.StepRoute:
			_, err = pipeline.ParseRouteConfig(step.Key, step.Config)
		case pipeline.StepExtract, pipeline.StepLoad, pipeline.StepExport, pipeline.StepFeed, pipeline.StepSink:
			_, err = pipeline.ParseAdapterConfig(step.Key, step.Config)
		case pipeline.StepGate:
			_, err = pipeline.ParseGateConfig(step.Key, step.Config)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
