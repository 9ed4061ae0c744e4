package transport

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName   = "svgjsx.v1.Converter"
	convertMethod = "/" + ServiceName + "/Convert"
)

// Request/response field names of the Convert RPC.
const (
	FieldInput     = "input"
	FieldMode      = "mode"
	FieldOutput    = "output"
	FieldHasOutput = "has_output"
)

// ConverterServer is the server API for the Converter service. Messages are
// google.protobuf.Struct values keyed by the Field* constants.
type ConverterServer interface {
	Convert(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterConverterServer(s grpc.ServiceRegistrar, srv ConverterServer) {
	s.RegisterService(&converterServiceDesc, srv)
}

func convertHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConverterServer).Convert(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: convertMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConverterServer).Convert(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var converterServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConverterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Convert", Handler: convertHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "svgjsx/v1/converter",
}
