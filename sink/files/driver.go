// Package files writes each converted frame next to its siblings in an
// output directory, named after the frame key with a .jsx extension.
package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"svgjsx/internal/frame"
	"svgjsx/sink"
)

type Config struct {
	Dir string
	Ext string // default ".jsx"
}

type driver struct {
	cfg Config
}

func (d *driver) Configure(raw any) error {
	c, ok := raw.(Config)
	if !ok {
		return fmt.Errorf("files-sink: expected Config, got %T", raw)
	}
	if c.Dir == "" {
		return errors.New("files-sink: dir is required")
	}
	if c.Ext == "" {
		c.Ext = ".jsx"
	}
	if !strings.HasPrefix(c.Ext, ".") {
		c.Ext = "." + c.Ext
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("files-sink: %w", err)
	}
	d.cfg = c
	return nil
}

// OutputName maps an input key such as "icons/star.svg" to "star.jsx".
func OutputName(key, ext string) string {
	base := filepath.Base(key)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}

func (d *driver) Push(f *frame.Frame) error {
	if len(f.Key) == 0 {
		return errors.New("files-sink: frame has no key to name the output after")
	}
	name := OutputName(string(f.Key), d.cfg.Ext)
	if name == d.cfg.Ext || strings.HasPrefix(name, "..") {
		return fmt.Errorf("files-sink: unusable key %q", f.Key)
	}
	out := filepath.Join(d.cfg.Dir, name)
	tmp := out + ".tmp"
	if err := os.WriteFile(tmp, append(f.Value, '\n'), 0o644); err != nil {
		return fmt.Errorf("files-sink: %w", err)
	}
	return os.Rename(tmp, out)
}

func (d *driver) Close() error { return nil }

func init() { sink.Register("files", func() sink.Adapter { return &driver{} }) }
