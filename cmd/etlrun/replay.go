package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/etlgraph-go/emit"
	"github.com/dshills/etlgraph-go/pipeline"
)

func newReplayCmd(root *rootFlags) *cobra.Command {
	var (
		definitionPath string
		pipelineID     string
		fromStep       string
		seedPath       string
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-execute a pipeline suffix from a chosen step with a seed",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(root)
			if err != nil {
				return err
			}
			def, err := loadDefinition(definitionPath)
			if err != nil {
				return err
			}
			seed, err := loadSeed(seedPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app.Scheduler.Log = emit.Callback(pipelineID, emit.NewLogEmitter(app.Log))
			onErr := func(stepKey, message string, rec map[string]any) {
				app.Log.Warn().Str("stepKey", stepKey).Str("error", message).Msg("record failed")
			}

			summary := app.Scheduler.ReplayFromStep(ctx, def, fromStep, seed, pipeline.ExecuteOptions{
				PipelineID:        pipelineID,
				OnRecordError:     onErr,
				OnCancelRequested: func() bool { return ctx.Err() != nil },
			})
			return printJSON(toSummaryOutput(summary))
		},
	}

	cmd.Flags().StringVarP(&definitionPath, "file", "f", "", "Pipeline definition (JSON or YAML)")
	cmd.Flags().StringVar(&pipelineID, "pipeline-id", "", "Stable pipeline identifier for checkpointing")
	cmd.Flags().StringVar(&fromStep, "from", "", "Step key whose output the seed replaces")
	cmd.Flags().StringVar(&seedPath, "seed", "", "JSON file holding the seed records")
	cmd.MarkFlagRequired("file") //nolint:errcheck
	cmd.MarkFlagRequired("from") //nolint:errcheck
	cmd.MarkFlagRequired("seed") //nolint:errcheck

	return cmd
}
