package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"svgjsx/internal/jsx"
)

func newStagesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List the rewrite stages for the selected mode, in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for i, st := range jsx.Stages(root.Mode()) {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, st.Name)
			}
			return nil
		},
	}
}
