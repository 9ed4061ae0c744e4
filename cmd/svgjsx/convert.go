package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"svgjsx/internal/clipboard"
	"svgjsx/internal/jsx"
	"svgjsx/internal/telemetry"
	filesink "svgjsx/sink/files"
)

type convertOptions struct {
	out   string
	copy  bool
	trace bool
}

type input struct {
	name string
	raw  []byte
}

func newConvertCmd(root *rootOptions) *cobra.Command {
	var o convertOptions
	cmd := &cobra.Command{
		Use:   "convert [file.svg ...]",
		Short: "Convert SVG files (or stdin) to JSX",
		Long: "Convert each SVG file to JSX and print it. With no files the SVG is read\n" +
			"from stdin. --out writes <name>.jsx files into a directory instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ins, err := readInputs(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return runConvert(cmd, root, o, ins)
		},
	}
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "write .jsx files into this directory")
	cmd.Flags().BoolVar(&o.copy, "copy", false, "copy the (last) result to the clipboard")
	cmd.Flags().BoolVar(&o.trace, "trace", false, "print the text after every rewrite stage")
	return cmd
}

func readInputs(stdin io.Reader, args []string) ([]input, error) {
	if len(args) == 0 {
		if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return nil, errors.New("no input: pass SVG files or pipe markup on stdin")
		}
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return []input{{name: "stdin", raw: raw}}, nil
	}
	ins := make([]input, 0, len(args))
	for _, p := range args {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		ins = append(ins, input{name: p, raw: raw})
	}
	return ins, nil
}

func runConvert(cmd *cobra.Command, root *rootOptions, o convertOptions, ins []input) error {
	m := root.Mode()
	w := cmd.OutOrStdout()
	if o.out != "" {
		if err := os.MkdirAll(o.out, 0o755); err != nil {
			return err
		}
	}

	var last string
	for _, in := range ins {
		if o.trace {
			printTrace(cmd.ErrOrStderr(), in.name, string(in.raw), m)
		}
		out := telemetry.Convert(telemetry.OriginCLI, string(in.raw), m)
		last = out

		if o.out != "" {
			if !jsx.HasOutput(out) {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipping %s: nothing to write\n", in.name)
				continue
			}
			dst := filepath.Join(o.out, filesink.OutputName(in.name, ".jsx"))
			if err := os.WriteFile(dst, []byte(out+"\n"), 0o644); err != nil {
				return err
			}
			fmt.Fprintln(w, dst)
			continue
		}
		if len(ins) > 1 {
			fmt.Fprintf(w, "// %s\n", in.name)
		}
		fmt.Fprintln(w, out)
	}

	if o.copy {
		c := clipboard.New(root.clip, root.cfg.Clipboard.ResetAfter, nil)
		defer c.Stop()
		if err := c.Copy(last); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "copied to clipboard")
	}
	return nil
}

func printTrace(w io.Writer, name, input string, m jsx.Mode) {
	fmt.Fprintf(w, "# %s (%s)\n", name, m)
	for _, st := range jsx.Trace(input, m) {
		fmt.Fprintf(w, "## %s\n%s\n", st.Stage, st.Output)
	}
}
