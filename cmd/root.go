package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "relay",
		Short:        "Resolve video ids to playable audio streams",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a config file (default ./config/config.yaml or ./config.yaml)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newExtractCommand(opts))

	return cmd
}
