package transform

import (
	"context"

	"svgjsx/internal/jsx"
	"svgjsx/internal/telemetry"
	"svgjsx/internal/transport"
)

type Request struct {
	Input string
	Mode  jsx.Mode
}

type Response struct {
	Output    string
	HasOutput bool
}

// Client wraps a converter (over gRPC or in-process) and exposes a uniform
// API. The runner can swap implementations behind this interface.
type Client interface {
	Convert(ctx context.Context, req Request) (Response, error)
	Health(ctx context.Context) error
	Close() error
}

// GRPCClient calls a remote Converter service.
type GRPCClient struct {
	c *transport.Client
}

func NewGRPCClient(target string) (*GRPCClient, error) {
	c, err := transport.Dial(target)
	if err != nil {
		return nil, err
	}
	return &GRPCClient{c: c}, nil
}

func (c *GRPCClient) Convert(ctx context.Context, req Request) (Response, error) {
	out, has, err := c.c.Convert(ctx, req.Input, req.Mode)
	if err != nil {
		return Response{}, err
	}
	return Response{Output: out, HasOutput: has}, nil
}

func (c *GRPCClient) Health(ctx context.Context) error { return c.c.Health(ctx) }

func (c *GRPCClient) Close() error { return c.c.Close() }

// InProcessClient runs the rewrite pipeline in the calling goroutine.
type InProcessClient struct{}

func NewInProcessClient() *InProcessClient { return &InProcessClient{} }

func (*InProcessClient) Convert(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	out := telemetry.Convert(telemetry.OriginPipeline, req.Input, req.Mode)
	return Response{Output: out, HasOutput: jsx.HasOutput(out)}, nil
}

func (*InProcessClient) Health(context.Context) error { return nil }

func (*InProcessClient) Close() error { return nil }
