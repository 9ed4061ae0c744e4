// Package watch re-converts an SVG file every time it changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"svgjsx/internal/jsx"
	"svgjsx/internal/logging"
	"svgjsx/internal/telemetry"
)

// Handler receives every fresh conversion of the watched file.
type Handler func(output string, hasOutput bool)

type Watcher struct {
	path    string
	mode    jsx.Mode
	handler Handler
}

func New(path string, m jsx.Mode, h Handler) (*Watcher, error) {
	if h == nil {
		return nil, errors.New("watch: nil handler")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	return &Watcher{path: abs, mode: m, handler: h}, nil
}

// Run converts the file once, then again on every write, create or rename
// that touches it, until ctx is done. The parent directory is watched so
// editors that save by replacing the file keep working.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	if err := w.convert(); err != nil {
		return err
	}

	log := logging.For("watch")
	log.Info("watching", "path", w.path, "mode", w.mode)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if err := w.convert(); err != nil {
				// the file may be mid-replace; the next event retries
				log.Debug("reconvert skipped", "err", err)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", "err", err)
		}
	}
}

func (w *Watcher) convert() error {
	raw, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	out := telemetry.Convert(telemetry.OriginWatch, string(raw), w.mode)
	w.handler(out, jsx.HasOutput(out))
	return nil
}
