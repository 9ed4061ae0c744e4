package engine

import (
	"context"
	"fmt"

	"svgjsx/internal/config"
	"svgjsx/internal/pipeline"
	"svgjsx/internal/telemetry"
	"svgjsx/internal/transport"
)

// Bootstrap starts the converter service, the optional pipeline and the
// metrics endpoint. A MetricsPort <= 0 leaves metrics unexposed.
func Bootstrap(ctx context.Context, cfg config.Server) (*Engine, error) {
	// 1. transport server
	srv, err := transport.StartServer(cfg.GRPCPort, cfg.Mode())
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}

	// 2. pipeline runner, on its own ctx so shutdown can stop it first
	var runner *pipeline.Runner
	stopRunner := context.CancelFunc(func() {})
	if cfg.Pipeline != "" {
		runner, err = pipeline.Compile(cfg.Pipeline)
		if err != nil {
			srv.Stop()
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		var rctx context.Context
		rctx, stopRunner = context.WithCancel(ctx)
		if err := runner.Start(rctx); err != nil {
			stopRunner()
			srv.Stop()
			_ = runner.Close()
			return nil, err
		}
	}

	// 3. metrics
	var metrics *telemetry.Server
	if cfg.MetricsPort > 0 {
		metrics = telemetry.Expose(cfg.MetricsPort)
	}

	return newEngine(srv, runner, stopRunner, metrics), nil
}
