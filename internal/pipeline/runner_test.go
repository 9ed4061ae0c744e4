package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"svgjsx/internal/frame"
	"svgjsx/internal/jsx"
	"svgjsx/internal/transform"
	"svgjsx/sink"
)

type fakeTransform struct {
	calls int32
	mode  string
	seen  []jsx.Mode
}

func (f *fakeTransform) Health(context.Context) error { return nil }
func (f *fakeTransform) Close() error                 { return nil }
func (f *fakeTransform) Convert(ctx context.Context, req transform.Request) (transform.Response, error) {
	c := atomic.AddInt32(&f.calls, 1)
	f.seen = append(f.seen, req.Mode)
	switch f.mode {
	case "empty":
		return transform.Response{}, nil
	case "errorThenOK":
		if c == 1 {
			return transform.Response{}, errors.New("converter unavailable")
		}
	case "fail":
		return transform.Response{}, errors.New("converter unavailable")
	case "slow":
		<-ctx.Done()
		return transform.Response{}, ctx.Err()
	}
	out := jsx.Transform(req.Input, req.Mode)
	return transform.Response{Output: out, HasOutput: jsx.HasOutput(out)}, nil
}

type captureSink struct {
	pushed []*frame.Frame
	ackFn  sink.EmitFn
}

func (c *captureSink) Configure(any) error { return nil }
func (c *captureSink) Push(f *frame.Frame) error {
	c.pushed = append(c.pushed, f)
	if c.ackFn != nil {
		c.ackFn(f.Checkpoint)
	}
	return nil
}
func (c *captureSink) Close() error           { return nil }
func (c *captureSink) BindAck(fn sink.EmitFn) { c.ackFn = fn }

// plainSink does not ack on its own.
type plainSink struct{ pushed int }

func (p *plainSink) Configure(any) error     { return nil }
func (p *plainSink) Push(*frame.Frame) error { p.pushed++; return nil }
func (p *plainSink) Close() error            { return nil }

func makeFrame() *frame.Frame {
	return &frame.Frame{
		Key:        []byte("star.svg"),
		Value:      []byte(`<svg width="10"><path fill="#fff" stroke-width="2"/></svg>`),
		Checkpoint: &frame.Checkpoint{Kafka: &frame.KafkaOffset{Topic: "t", Partition: 1, Offset: 42}},
	}
}

func countAcks(r *Runner) *int32 {
	var n int32
	r.SubscribeAck(func(*frame.Ack) { atomic.AddInt32(&n, 1) })
	return &n
}

func TestRunner_TransformerOK_ForwardsAndSinkAcks(t *testing.T) {
	r := NewRunner()
	r.AddTransformer("t1", &fakeTransform{mode: "ok"}, jsx.React, 100*time.Millisecond, 0, 0)
	cs := &captureSink{}
	r.AddSink(cs)
	acks := countAcks(r)

	f := makeFrame()
	if err := r.pushFrame(context.Background(), f); err != nil {
		t.Fatalf("pushFrame: %v", err)
	}
	if len(cs.pushed) != 1 {
		t.Fatalf("expected 1 pushed frame, got %d", len(cs.pushed))
	}
	if got := string(cs.pushed[0].Value); got != `<path  strokeWidth="2"/>` {
		t.Fatalf("unexpected value: %q", got)
	}
	if string(f.Value) == string(cs.pushed[0].Value) {
		t.Fatal("source frame must not be mutated")
	}
	if *acks != 1 {
		t.Fatalf("expected exactly one ack (from the sink), got %d", *acks)
	}
}

func TestRunner_EmptyOutput_AcksNoPush(t *testing.T) {
	r := NewRunner()
	r.AddTransformer("t1", &fakeTransform{mode: "empty"}, jsx.React, 100*time.Millisecond, 0, 0)
	cs := &captureSink{}
	r.AddSink(cs)
	acks := countAcks(r)

	if err := r.pushFrame(context.Background(), makeFrame()); err != nil {
		t.Fatalf("pushFrame: %v", err)
	}
	if len(cs.pushed) != 0 {
		t.Fatalf("expected 0 pushed frames on empty output, got %d", len(cs.pushed))
	}
	if *acks != 1 {
		t.Fatalf("dropped frame must still be acked, got %d", *acks)
	}
}

func TestRunner_TransformerRetryThenOK(t *testing.T) {
	r := NewRunner()
	fake := &fakeTransform{mode: "errorThenOK"}
	r.AddTransformer("t1", fake, jsx.React, 100*time.Millisecond, 1, time.Millisecond)
	cs := &captureSink{}
	r.AddSink(cs)

	if err := r.pushFrame(context.Background(), makeFrame()); err != nil {
		t.Fatalf("pushFrame: %v", err)
	}
	if len(cs.pushed) != 1 || fake.calls != 2 {
		t.Fatalf("expected 1 pushed frame after 2 calls, got %d/%d", len(cs.pushed), fake.calls)
	}
}

func TestRunner_RetriesExhausted(t *testing.T) {
	r := NewRunner()
	r.AddTransformer("t1", &fakeTransform{mode: "fail"}, jsx.React, 0, 2, 0)
	r.AddSink(&captureSink{})
	acks := countAcks(r)

	if err := r.pushFrame(context.Background(), makeFrame()); err == nil {
		t.Fatal("expected error after retries")
	}
	if *acks != 0 {
		t.Fatal("failed frame must not be acked")
	}
}

func TestRunner_StageTimeout(t *testing.T) {
	r := NewRunner()
	r.AddTransformer("slow", &fakeTransform{mode: "slow"}, jsx.React, 10*time.Millisecond, 0, 0)
	r.AddSink(&captureSink{})
	err := r.pushFrame(context.Background(), makeFrame())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
}

func TestRunner_ModeHeaderOverridesStage(t *testing.T) {
	r := NewRunner()
	fake := &fakeTransform{mode: "ok"}
	r.AddTransformer("t1", fake, jsx.React, 0, 0, 0)
	cs := &captureSink{}
	r.AddSink(cs)

	f := makeFrame()
	f.Headers = map[string][]byte{frame.ModeHeader: []byte("react-native")}
	_ = r.pushFrame(context.Background(), f)
	bad := makeFrame()
	bad.Headers = map[string][]byte{frame.ModeHeader: []byte("vue")}
	_ = r.pushFrame(context.Background(), bad)

	if diff := cmp.Diff([]jsx.Mode{jsx.ReactNative, jsx.React}, fake.seen); diff != "" {
		t.Fatalf("modes seen (-want +got):\n%s", diff)
	}
	if got := string(cs.pushed[0].Value); got != `<Path fill={color}  strokeWidth="2"/>` {
		t.Fatalf("unexpected value: %q", got)
	}
}

func TestRunner_MultiStageChains(t *testing.T) {
	r := NewRunner()
	s1 := &fakeTransform{mode: "ok"}
	s2 := &fakeTransform{mode: "ok"}
	r.AddTransformer("s1", s1, jsx.React, 0, 0, 0)
	r.AddTransformer("s2", s2, jsx.ReactNative, 0, 0, 0)
	cs := &captureSink{}
	r.AddSink(cs)

	if err := r.pushFrame(context.Background(), makeFrame()); err != nil {
		t.Fatalf("pushFrame: %v", err)
	}
	// the second stage sees the first stage's output, fill already gone
	if got := string(cs.pushed[0].Value); got != `<Path  strokeWidth="2"/>` {
		t.Fatalf("unexpected value: %q", got)
	}
}

func TestRunner_AcksForPlainSinks(t *testing.T) {
	r := NewRunner()
	r.AddTransformer("t1", &fakeTransform{mode: "ok"}, jsx.React, 0, 0, 0)
	ps := &plainSink{}
	r.AddSink(ps)
	acks := countAcks(r)

	if err := r.pushFrame(context.Background(), makeFrame()); err != nil {
		t.Fatalf("pushFrame: %v", err)
	}
	if ps.pushed != 1 || *acks != 1 {
		t.Fatalf("want runner ack after plain sink push, pushed=%d acks=%d", ps.pushed, *acks)
	}
}

func TestRunner_NoSource(t *testing.T) {
	if err := NewRunner().Run(context.Background()); !errors.Is(err, ErrNoSource) {
		t.Fatalf("want ErrNoSource, got %v", err)
	}
}

func TestRunner_CancelDuringBackoff(t *testing.T) {
	r := NewRunner()
	r.AddTransformer("t1", &fakeTransform{mode: "fail"}, jsx.React, 0, 5, time.Hour)
	r.AddSink(&captureSink{})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	err := r.pushFrame(ctx, makeFrame())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if d := time.Since(start); d > 5*time.Second {
		t.Fatalf("cancel took %v", d)
	}
}

// holdSink acks only when release is called.
type holdSink struct {
	held  []*frame.Checkpoint
	ackFn sink.EmitFn
}

func (h *holdSink) Configure(any) error { return nil }
func (h *holdSink) Push(f *frame.Frame) error {
	h.held = append(h.held, f.Checkpoint)
	return nil
}
func (h *holdSink) Close() error           { return nil }
func (h *holdSink) BindAck(fn sink.EmitFn) { h.ackFn = fn }
func (h *holdSink) release() {
	for _, cp := range h.held {
		h.ackFn(cp)
	}
	h.held = nil
}

func TestRunner_WaitsForEveryAckingSink(t *testing.T) {
	r := NewRunner()
	r.AddTransformer("t1", &fakeTransform{mode: "ok"}, jsx.React, 0, 0, 0)
	fast := &captureSink{}
	slow := &holdSink{}
	r.AddSink(fast)
	r.AddSink(slow)
	acks := countAcks(r)

	if err := r.pushFrame(context.Background(), makeFrame()); err != nil {
		t.Fatalf("pushFrame: %v", err)
	}
	if *acks != 0 {
		t.Fatalf("acked before the slow sink confirmed, got %d", *acks)
	}
	slow.release()
	if *acks != 1 {
		t.Fatalf("want one ack after both sinks confirmed, got %d", *acks)
	}
	if len(r.pending) != 0 {
		t.Fatalf("pending not cleared: %v", r.pending)
	}
}
