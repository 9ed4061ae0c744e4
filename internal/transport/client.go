package transport

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"

	"svgjsx/internal/jsx"
)

// Client talks to a Converter service.
type Client struct {
	cc *grpc.ClientConn
}

// Dial connects to target ("host:port"). Extra options replace the default
// insecure credentials.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	cc, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc}, nil
}

// Convert returns the converted text and whether it has any output.
func (c *Client) Convert(ctx context.Context, input string, m jsx.Mode) (string, bool, error) {
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldInput: structpb.NewStringValue(input),
		FieldMode:  structpb.NewStringValue(m.String()),
	}}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, convertMethod, req, resp); err != nil {
		return "", false, err
	}
	f := resp.GetFields()
	return f[FieldOutput].GetStringValue(), f[FieldHasOutput].GetBoolValue(), nil
}

func (c *Client) Health(ctx context.Context) error {
	resp, err := healthpb.NewHealthClient(c.cc).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return err
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("converter not serving: %s", resp.GetStatus())
	}
	return nil
}

func (c *Client) Close() error {
	return c.cc.Close()
}
