package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"svgjsx/internal/jsx"
	"svgjsx/internal/logging"
	"svgjsx/internal/telemetry"
)

const requestIDKey = "x-request-id"

type Server struct {
	grpc   *grpc.Server
	lis    net.Listener
	health *health.Server
}

// StartServer listens on port and registers the Converter and health
// services. Serve must be called to accept connections.
func StartServer(port int, defaultMode jsx.Mode) (*Server, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	return NewServer(lis, defaultMode), nil
}

func NewServer(lis net.Listener, defaultMode jsx.Mode) *Server {
	s := &Server{
		grpc:   grpc.NewServer(grpc.UnaryInterceptor(logRequests)),
		lis:    lis,
		health: health.NewServer(),
	}
	RegisterConverterServer(s.grpc, &converter{defaultMode: defaultMode})
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

func (s *Server) Addr() net.Addr { return s.lis.Addr() }

func (s *Server) Serve() error {
	logging.For("transport").Info("grpc listening", "addr", s.lis.Addr().String())
	return s.grpc.Serve(s.lis)
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

type converter struct {
	defaultMode jsx.Mode
}

func (c *converter) Convert(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	mode := c.defaultMode
	if v, ok := fields[FieldMode]; ok && v.GetStringValue() != "" {
		m, err := jsx.ParseMode(v.GetStringValue())
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		mode = m
	}
	if v, ok := fields[FieldInput]; ok {
		if _, isStr := v.GetKind().(*structpb.Value_StringValue); !isStr {
			return nil, status.Errorf(codes.InvalidArgument, "%s must be a string", FieldInput)
		}
	}

	out := telemetry.Convert(telemetry.OriginGRPC, fields[FieldInput].GetStringValue(), mode)
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldOutput:    structpb.NewStringValue(out),
		FieldHasOutput: structpb.NewBoolValue(jsx.HasOutput(out)),
		FieldMode:      structpb.NewStringValue(mode.String()),
	}}, nil
}

func logRequests(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(requestIDKey); len(v) > 0 {
			id = v[0]
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	resp, err := handler(ctx, req)
	log := logging.For("transport").With("method", info.FullMethod, "request_id", id)
	if err != nil {
		log.Warn("rpc failed", "code", status.Code(err).String(), "err", err)
	} else {
		log.Debug("rpc ok")
	}
	return resp, err
}
