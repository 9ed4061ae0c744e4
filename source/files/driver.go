// Package files is a finite source: every file matching a glob becomes one
// frame, in lexical order.
package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"svgjsx/internal/frame"
	"svgjsx/internal/logging"
	"svgjsx/source"
)

type Config struct {
	Glob string
}

type Driver struct {
	cfg   Config
	acked atomic.Int64
}

func New(cfg Config) (*Driver, error) {
	if cfg.Glob == "" {
		return nil, fmt.Errorf("files source: glob is empty")
	}
	if _, err := filepath.Match(cfg.Glob, ""); err != nil {
		return nil, fmt.Errorf("files source: bad glob %q: %w", cfg.Glob, err)
	}
	return &Driver{cfg: cfg}, nil
}

func (d *Driver) Run(ctx context.Context, emit source.EmitFunc) error {
	paths, err := filepath.Glob(d.cfg.Glob)
	if err != nil {
		return err
	}
	sort.Strings(paths)
	log := logging.For("files-source")
	log.Info("reading svg files", "glob", d.cfg.Glob, "count", len(paths))

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		st, err := os.Stat(p)
		if err != nil {
			return err
		}
		if st.IsDir() {
			continue
		}
		raw, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("files source: %w", err)
		}
		f := &frame.Frame{
			Key:        []byte(filepath.Base(p)),
			Value:      raw,
			Ts:         st.ModTime(),
			Checkpoint: &frame.Checkpoint{File: p},
		}
		if err := emit(f); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) OnAck(ack *frame.Ack) {
	if ack == nil || ack.Checkpoint == nil || ack.Checkpoint.File == "" {
		return
	}
	d.acked.Add(1)
	logging.For("files-source").Debug("file handled", "path", ack.Checkpoint.File)
}

// Acked reports how many files sinks have acknowledged.
func (d *Driver) Acked() int64 { return d.acked.Load() }

func (d *Driver) Close() error { return nil }
