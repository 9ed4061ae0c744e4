package engine

import (
	"context"
	"errors"
	"net"
	"time"

	"google.golang.org/grpc"

	"svgjsx/internal/logging"
	"svgjsx/internal/pipeline"
	"svgjsx/internal/telemetry"
	"svgjsx/internal/transport"
)

const shutdownGrace = 5 * time.Second

type Engine struct {
	transport *transport.Server
	runner    *pipeline.Runner
	metrics   *telemetry.Server

	stopRunner context.CancelFunc
	runnerDone chan struct{} // closed once runner.Run has returned
}

// newEngine takes ownership of a started runner (may be nil).
func newEngine(srv *transport.Server, runner *pipeline.Runner, stopRunner context.CancelFunc, metrics *telemetry.Server) *Engine {
	e := &Engine{
		transport:  srv,
		runner:     runner,
		metrics:    metrics,
		stopRunner: stopRunner,
		runnerDone: make(chan struct{}),
	}
	if runner == nil {
		close(e.runnerDone)
		return e
	}
	go func() {
		defer close(e.runnerDone)
		log := logging.For("engine")
		if err := runner.Wait(); err != nil {
			log.Error("pipeline stopped", "err", err)
			return
		}
		log.Info("pipeline finished")
	}()
	return e
}

// Addr is the gRPC listen address.
func (e *Engine) Addr() net.Addr { return e.transport.Addr() }

// Run serves gRPC until ctx is done, then tears everything down. The
// pipeline is drained before its sinks are closed.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		e.transport.Stop()
		e.stopRunner()
		<-e.runnerDone
		if e.runner != nil {
			_ = e.runner.Close()
		}
		if e.metrics != nil {
			sctx, scancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer scancel()
			_ = e.metrics.Shutdown(sctx)
		}
	}()

	err := e.transport.Serve()
	cancel()
	<-stopped
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}
