package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dshills/etlgraph-go/emit"
	"github.com/dshills/etlgraph-go/pipeline"
)

type runOptions struct {
	DefinitionPath string
	PipelineID     string
	Resume         bool
	MetricsListen  string
}

// summaryOutput is the wire shape run/replay print to stdout.
type summaryOutput struct {
	Processed    uint64           `json:"processed"`
	Succeeded    uint64           `json:"succeeded"`
	Failed       uint64           `json:"failed"`
	Paused       bool             `json:"paused,omitempty"`
	PausedAtStep string           `json:"pausedAtStep,omitempty"`
	Details      []map[string]any `json:"details,omitempty"`
	Error        string           `json:"error,omitempty"`
}

func toSummaryOutput(s pipeline.Summary) summaryOutput {
	out := summaryOutput{
		Processed:    s.Processed,
		Succeeded:    s.Succeeded,
		Failed:       s.Failed,
		Paused:       s.Paused,
		PausedAtStep: s.PausedAtStep,
		Details:      s.Details,
	}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	return out
}

func newRunCmd(root *rootFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a pipeline definition to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(root)
			if err != nil {
				return err
			}
			return runPipeline(app, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.DefinitionPath, "file", "f", "", "Pipeline definition (JSON or YAML)")
	cmd.Flags().StringVar(&opts.PipelineID, "pipeline-id", "", "Stable pipeline identifier for checkpointing")
	cmd.Flags().BoolVar(&opts.Resume, "resume", false, "Preserve the existing checkpoint instead of starting fresh")
	cmd.Flags().StringVar(&opts.MetricsListen, "metrics-listen", "", "Expose Prometheus metrics on this address (e.g. :9090) for the duration of the run")
	cmd.MarkFlagRequired("file") //nolint:errcheck

	return cmd
}

func runPipeline(app *App, opts runOptions) error {
	def, err := loadDefinition(opts.DefinitionPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	emitters := []emit.Emitter{emit.NewLogEmitter(app.Log)}
	if opts.MetricsListen != "" {
		registry := prometheus.NewRegistry()
		emitters = append(emitters, emit.NewMetricsEmitter(registry))
		srv := &http.Server{Addr: opts.MetricsListen, Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				app.Log.Warn().Err(err).Msg("metrics listener failed")
			}
		}()
		defer srv.Close() //nolint:errcheck
	}
	app.Scheduler.Log = emit.Callback(opts.PipelineID, emit.NewMultiEmitter(emitters...))

	onErr := func(stepKey, message string, rec map[string]any) {
		app.Log.Warn().Str("stepKey", stepKey).Str("error", message).Msg("record failed")
	}

	summary := app.Scheduler.Execute(ctx, def, pipeline.ExecuteOptions{
		PipelineID:        opts.PipelineID,
		Resume:            opts.Resume,
		OnRecordError:     onErr,
		OnCancelRequested: func() bool { return ctx.Err() != nil },
	})

	return printJSON(toSummaryOutput(summary))
}
