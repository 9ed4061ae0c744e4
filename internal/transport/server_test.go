package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"svgjsx/internal/jsx"
)

func startBufServer(t *testing.T, mode jsx.Mode) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(lis, mode)
	go func() { _ = srv.Serve() }()
	t.Cleanup(srv.Stop)

	cli, err := Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cli.Close() })
	return cli
}

func ctxT(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestConvert_RoundTrip(t *testing.T) {
	cli := startBufServer(t, jsx.React)

	out, has, err := cli.Convert(ctxT(t), `<svg><path fill="#fff"/></svg>`, jsx.ReactNative)
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, `<Path fill={color} />`, out)

	out, has, err = cli.Convert(ctxT(t), "  \n ", jsx.React)
	require.NoError(t, err)
	assert.False(t, has)
	assert.Empty(t, out)
}

func TestConvert_DefaultModeAndValidation(t *testing.T) {
	cli := startBufServer(t, jsx.ReactNative)
	ctx := ctxT(t)

	resp := new(structpb.Struct)
	req, err := structpb.NewStruct(map[string]any{FieldInput: `<svg><rect/></svg>`})
	require.NoError(t, err)
	require.NoError(t, cli.cc.Invoke(ctx, convertMethod, req, resp))
	assert.Equal(t, "<Rect/>", resp.GetFields()[FieldOutput].GetStringValue())
	assert.Equal(t, "react-native", resp.GetFields()[FieldMode].GetStringValue())

	bad, err := structpb.NewStruct(map[string]any{FieldInput: "<svg/>", FieldMode: "vue"})
	require.NoError(t, err)
	err = cli.cc.Invoke(ctx, convertMethod, bad, resp)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	notString, err := structpb.NewStruct(map[string]any{FieldInput: 42})
	require.NoError(t, err)
	err = cli.cc.Invoke(ctx, convertMethod, notString, resp)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHealth(t *testing.T) {
	cli := startBufServer(t, jsx.React)
	assert.NoError(t, cli.Health(ctxT(t)))
}
