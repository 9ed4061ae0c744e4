package engine

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svgjsx/internal/config"
	"svgjsx/internal/frame"
	"svgjsx/internal/jsx"
	"svgjsx/internal/pipeline"
	"svgjsx/internal/transform"
	"svgjsx/internal/transport"
	"svgjsx/source"
)

func TestEngine_ServesAndRunsPipeline(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.svg"), []byte(`<svg><path fill="red"/></svg>`), 0o644))
	pipe := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(pipe, []byte(`
source: {kind: files, glob: "*.svg"}
sinks: [files]
sink_configs:
  files: {dir: out}
`), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	e, err := Bootstrap(ctx, config.Server{Pipeline: pipe, DefaultMode: "react-native"})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	port := e.Addr().(*net.TCPAddr).Port
	c, err := transport.Dial(fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	defer c.Close()

	cctx, ccancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer ccancel()
	out, has, err := c.Convert(cctx, `<svg><path/></svg>`, jsx.ReactNative)
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, "<Path/>", out)

	require.Eventually(t, func() bool {
		b, err := os.ReadFile(filepath.Join(dir, "out", "a.jsx"))
		return err == nil && string(b) == "<path />\n"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
}

func TestBootstrap_BadPipeline(t *testing.T) {
	_, err := Bootstrap(context.Background(), config.Server{Pipeline: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

// lingeringSource emits one frame, then one more after ctx is done, as a
// consumer with a record already in flight would.
type lingeringSource struct{}

func (lingeringSource) Run(ctx context.Context, emit source.EmitFunc) error {
	svg := []byte(`<svg><path/></svg>`)
	if err := emit(&frame.Frame{Key: []byte("a.svg"), Value: svg}); err != nil {
		return err
	}
	<-ctx.Done()
	time.Sleep(20 * time.Millisecond)
	if err := emit(&frame.Frame{Key: []byte("b.svg"), Value: svg}); err != nil {
		return err
	}
	return ctx.Err()
}

func (lingeringSource) Close() error { return nil }

// settledClient answers even after cancellation, like a remote call that
// already completed.
type settledClient struct{}

func (settledClient) Convert(_ context.Context, req transform.Request) (transform.Response, error) {
	out := jsx.Transform(req.Input, req.Mode)
	return transform.Response{Output: out, HasOutput: jsx.HasOutput(out)}, nil
}
func (settledClient) Health(context.Context) error { return nil }
func (settledClient) Close() error                 { return nil }

type closeTrackingSink struct {
	closed     atomic.Bool
	pushes     atomic.Int32
	afterClose atomic.Int32
}

func (s *closeTrackingSink) Configure(any) error { return nil }
func (s *closeTrackingSink) Push(*frame.Frame) error {
	s.pushes.Add(1)
	if s.closed.Load() {
		s.afterClose.Add(1)
	}
	return nil
}
func (s *closeTrackingSink) Close() error { s.closed.Store(true); return nil }

func TestEngine_DrainsPipelineBeforeClosingSinks(t *testing.T) {
	srv, err := transport.StartServer(0, jsx.React)
	require.NoError(t, err)

	snk := &closeTrackingSink{}
	r := pipeline.NewRunner()
	r.SetSource(lingeringSource{})
	r.AddTransformer("jsx", settledClient{}, jsx.React, 0, 0, 0)
	r.AddSink(snk)
	rctx, stop := context.WithCancel(context.Background())
	require.NoError(t, r.Start(rctx))
	e := newEngine(srv, r, stop, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	require.Eventually(t, func() bool { return snk.pushes.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}

	assert.True(t, snk.closed.Load())
	assert.Equal(t, int32(2), snk.pushes.Load())
	assert.Zero(t, snk.afterClose.Load(), "sink received frames after Close")
}
