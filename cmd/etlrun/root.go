package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configFile string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "etlrun",
		Short:         "etlrun executes declarative ETL pipeline definitions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "Path to an etlrun config file (default: ./etlrun.yaml if present)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newDryRunCmd(flags))
	cmd.AddCommand(newReplayCmd(flags))
	cmd.AddCommand(newValidateCmd(flags))

	return cmd
}
