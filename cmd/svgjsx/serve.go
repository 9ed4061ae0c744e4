package main

import (
	"github.com/spf13/cobra"

	"svgjsx/internal/engine"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var pipelinePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC converter, the optional pipeline and /metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.cfg
			if pipelinePath != "" {
				cfg.Pipeline = pipelinePath
			}
			e, err := engine.Bootstrap(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return e.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&pipelinePath, "pipeline", "p", "", "pipeline YAML (overrides config)")
	return cmd
}
