package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"svgjsx/internal/clipboard"
	"svgjsx/internal/watch"
)

func newWatchCmd(root *rootOptions) *cobra.Command {
	var copyOut bool
	cmd := &cobra.Command{
		Use:   "watch <file.svg>",
		Short: "Re-convert an SVG file whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, errw := cmd.OutOrStdout(), cmd.ErrOrStderr()
			c := clipboard.New(root.clip, root.cfg.Clipboard.ResetAfter, func(copied bool) {
				if copied {
					fmt.Fprintln(errw, "copied!")
				}
			})
			defer c.Stop()

			var last string
			w, err := watch.New(args[0], root.Mode(), func(jsxOut string, has bool) {
				if jsxOut != last {
					c.Reset()
				}
				last = jsxOut
				fmt.Fprintf(out, "%s\n---\n", jsxOut)
				if !copyOut || !has {
					return
				}
				if err := c.Copy(jsxOut); err != nil && !errors.Is(err, clipboard.ErrNoOutput) {
					fmt.Fprintln(errw, "copy failed:", err)
				}
			})
			if err != nil {
				return err
			}
			return w.Run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&copyOut, "copy", false, "copy every fresh result to the clipboard")
	return cmd
}
