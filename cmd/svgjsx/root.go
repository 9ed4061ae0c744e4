package main

import (
	"github.com/spf13/cobra"

	"svgjsx/internal/clipboard"
	"svgjsx/internal/config"
	"svgjsx/internal/jsx"
	"svgjsx/internal/logging"
)

type rootOptions struct {
	configPath string
	mode       string

	cfg  config.Server
	clip clipboard.Writer
}

// Mode is the --mode flag when given, else the configured default.
func (o *rootOptions) Mode() jsx.Mode { return o.cfg.Mode() }

func newRootCmd() *cobra.Command {
	opts := &rootOptions{clip: clipboard.System{}}
	return buildRootCmd(opts)
}

func buildRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "svgjsx",
		Short:         "Convert SVG markup into JSX for React and React Native",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadServer(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("mode") {
				m, err := jsx.ParseMode(opts.mode)
				if err != nil {
					return err
				}
				cfg.DefaultMode = m.String()
			}
			opts.cfg = cfg
			logging.Configure(logging.Options{
				Level:  cfg.Log.Level,
				JSON:   cfg.Log.JSON,
				Writer: cmd.ErrOrStderr(),
			})
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "svgjsx.yaml", "config file (missing file is fine)")
	root.PersistentFlags().StringVarP(&opts.mode, "mode", "m", "", "output mode: react | react-native")

	root.AddCommand(
		newConvertCmd(opts),
		newWatchCmd(opts),
		newServeCmd(opts),
		newStagesCmd(opts),
	)
	return root
}
