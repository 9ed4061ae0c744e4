package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"svgjsx/internal/frame"
	"svgjsx/internal/jsx"
	"svgjsx/internal/logging"
	"svgjsx/internal/telemetry"
	"svgjsx/internal/transform"
	"svgjsx/sink"
	"svgjsx/source"
)

var ErrNoSource = errors.New("runner: no source configured")

type stage struct {
	name     string
	client   transform.Client
	mode     jsx.Mode
	timeout  time.Duration
	attempts int
	backoff  time.Duration
}

type Runner struct {
	source source.Adapter
	stages []stage
	sinks  []sink.Adapter

	// ackers is the number of sinks that ack on their own. A checkpoint is
	// resolved once all of them have acked it.
	ackers  int
	pending map[*frame.Checkpoint]int

	mu   sync.Mutex
	subs []func(*frame.Ack)
	done chan error
}

func NewRunner() *Runner { return &Runner{pending: make(map[*frame.Checkpoint]int)} }

func (r *Runner) SetSource(s source.Adapter) { r.source = s }

func (r *Runner) AddSink(s sink.Adapter) {
	if aa, ok := s.(sink.AckAware); ok {
		aa.BindAck(r.sinkAck)
		r.ackers++
	}
	r.sinks = append(r.sinks, s)
}

// AddTransformer appends a converter stage. attempts is the number of
// retries after the first failure.
func (r *Runner) AddTransformer(name string, c transform.Client, m jsx.Mode, timeout time.Duration, attempts int, backoff time.Duration) {
	r.stages = append(r.stages, stage{name: name, client: c, mode: m, timeout: timeout, attempts: attempts, backoff: backoff})
}

func (r *Runner) SubscribeAck(fn func(*frame.Ack)) {
	r.mu.Lock()
	r.subs = append(r.subs, fn)
	r.mu.Unlock()
}

func (r *Runner) Ack(cp *frame.Checkpoint) {
	ack := &frame.Ack{Checkpoint: cp}

	r.mu.Lock()
	handlers := append([]func(*frame.Ack){}, r.subs...)
	r.mu.Unlock()

	for _, fn := range handlers {
		fn(ack)
	}
}

// sinkAck counts one sink's ack for cp and forwards it once every
// ack-aware sink has acked.
func (r *Runner) sinkAck(cp *frame.Checkpoint) {
	if r.ackers <= 1 || cp == nil {
		r.Ack(cp)
		return
	}
	r.mu.Lock()
	n := r.pending[cp] + 1
	if n < r.ackers {
		r.pending[cp] = n
		r.mu.Unlock()
		return
	}
	delete(r.pending, cp)
	r.mu.Unlock()
	r.Ack(cp)
}

func (r *Runner) forget(cp *frame.Checkpoint) {
	r.mu.Lock()
	delete(r.pending, cp)
	r.mu.Unlock()
}

// pushFrame converts f through every stage and hands the result to the
// sinks. A frame that converts to nothing is acked and dropped.
func (r *Runner) pushFrame(ctx context.Context, f *frame.Frame) error {
	cur := f
	for _, st := range r.stages {
		out, err := r.convert(ctx, st, cur)
		if err != nil {
			telemetry.Frame("failed")
			return fmt.Errorf("stage %s: %w", st.name, err)
		}
		if !out.HasOutput {
			telemetry.Frame("dropped")
			logging.For("pipeline").Debug("empty conversion, dropping", "stage", st.name, "key", string(f.Key))
			r.Ack(f.Checkpoint)
			return nil
		}
		cur = cur.Clone([]byte(out.Output))
	}

	for _, s := range r.sinks {
		if err := s.Push(cur); err != nil {
			telemetry.Frame("failed")
			r.forget(f.Checkpoint)
			return err
		}
	}
	telemetry.Frame("converted")
	if r.ackers == 0 {
		r.Ack(f.Checkpoint)
	}
	return nil
}

func (r *Runner) convert(ctx context.Context, st stage, f *frame.Frame) (transform.Response, error) {
	mode := st.mode
	if v, ok := f.Headers[frame.ModeHeader]; ok {
		if m, err := jsx.ParseMode(string(v)); err == nil {
			mode = m
		} else {
			logging.For("pipeline").Warn("ignoring bad mode header", "stage", st.name, "value", string(v))
		}
	}
	req := transform.Request{Input: string(f.Value), Mode: mode}

	var lastErr error
	for try := 0; try <= st.attempts; try++ {
		if try > 0 {
			if err := sleep(ctx, st.backoff); err != nil {
				return transform.Response{}, err
			}
		}
		cctx, cancel := ctx, context.CancelFunc(func() {})
		if st.timeout > 0 {
			cctx, cancel = context.WithTimeout(ctx, st.timeout)
		}
		resp, err := st.client.Convert(cctx, req)
		cancel()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		logging.For("pipeline").Warn("convert failed", "stage", st.name, "try", try+1, "err", err)
		if ctx.Err() != nil {
			break
		}
	}
	return transform.Response{}, lastErr
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run blocks until the source is exhausted or fails, or ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil {
		return ErrNoSource
	}
	if aw, ok := r.source.(source.AckAware); ok {
		r.SubscribeAck(aw.OnAck)
	}
	err := r.source.Run(ctx, func(f *frame.Frame) error { return r.pushFrame(ctx, f) })
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Start runs the pipeline in the background; Wait returns its result.
func (r *Runner) Start(ctx context.Context) error {
	if r.source == nil {
		return ErrNoSource
	}
	r.done = make(chan error, 1)
	go func() { r.done <- r.Run(ctx) }()
	return nil
}

func (r *Runner) Wait() error {
	if r.done == nil {
		return nil
	}
	return <-r.done
}

// Close releases every stage, sink and the source. Errors are joined.
func (r *Runner) Close() error {
	var errs []error
	for _, s := range r.sinks {
		errs = append(errs, s.Close())
	}
	for _, st := range r.stages {
		errs = append(errs, st.client.Close())
	}
	if r.source != nil {
		errs = append(errs, r.source.Close())
	}
	return errors.Join(errs...)
}
