// Package stdout prints converted JSX frames and acks them in batches.
package stdout

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"svgjsx/internal/frame"
	"svgjsx/sink"
)

type Config struct {
	DelayMS       int       `yaml:"delay_ms"`        // artificial per-frame delay
	PrintCounter  bool      `yaml:"print_counter"`   // prepend seq#
	BatchSize     int       `yaml:"ack_batch_size"`  // 0 = ack every frame
	FlushMS       int       `yaml:"ack_flush_ms"`    // 0 = no time-based flush
	ValueMaxBytes int       `yaml:"value_max_bytes"` // 0 = print whole value
	Out           io.Writer `yaml:"-"`               // nil = os.Stdout
}

type driver struct {
	cfg Config
	ack sink.EmitFn

	outMu sync.Mutex

	mu      sync.Mutex // guards pending+timer
	pending []*frame.Checkpoint
	timer   *time.Timer // nil → no timer armed

	seq atomic.Uint64
}

func (d *driver) Configure(raw any) error {
	c, ok := raw.(Config)
	if !ok {
		return fmt.Errorf("stdout-sink: expected Config, got %T", raw)
	}
	if c.Out == nil {
		c.Out = os.Stdout
	}
	d.cfg = c
	return nil
}

func (d *driver) Push(f *frame.Frame) error {
	if d.cfg.DelayMS > 0 {
		time.Sleep(time.Duration(d.cfg.DelayMS) * time.Millisecond)
	}
	if err := d.print(f); err != nil {
		return err
	}
	if d.ack == nil {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = append(d.pending, f.Checkpoint)

	// batch size reached, or batching off entirely
	if d.cfg.BatchSize <= 0 && d.cfg.FlushMS <= 0 ||
		d.cfg.BatchSize > 0 && len(d.pending) >= d.cfg.BatchSize {
		d.flushLocked()
		return nil
	}

	// (re)-arm the one-shot timer
	if d.cfg.FlushMS > 0 {
		every := time.Duration(d.cfg.FlushMS) * time.Millisecond
		if d.timer == nil {
			d.timer = time.AfterFunc(every, d.timerFlush)
		} else {
			d.timer.Reset(every)
		}
	}
	return nil
}

func (d *driver) print(f *frame.Frame) error {
	val := f.Value
	if n := d.cfg.ValueMaxBytes; n > 0 && len(val) > n {
		val = append(val[:n:n], "…"...)
	}

	d.outMu.Lock()
	defer d.outMu.Unlock()
	if d.cfg.PrintCounter {
		if _, err := fmt.Fprintf(d.cfg.Out, "// [%06d] %s %s\n", d.seq.Add(1), f.Key, f.Checkpoint); err != nil {
			return err
		}
	} else if len(f.Key) > 0 {
		if _, err := fmt.Fprintf(d.cfg.Out, "// %s\n", f.Key); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(d.cfg.Out, "%s\n", val)
	return err
}

func (d *driver) Close() error {
	d.mu.Lock()
	d.flushLocked()
	d.mu.Unlock()
	return nil
}

func (d *driver) BindAck(fn sink.EmitFn) { d.ack = fn }

// called by the timer goroutine
func (d *driver) timerFlush() {
	d.mu.Lock()
	d.flushLocked()
	d.mu.Unlock()
}

// must be called with d.mu held
func (d *driver) flushLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if len(d.pending) == 0 || d.ack == nil {
		return
	}
	for _, cp := range d.pending {
		d.ack(cp)
	}
	d.pending = d.pending[:0]
}

func init() {
	sink.Register("stdout", func() sink.Adapter { return &driver{} })
}
