package grpc_control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "nepse.control.v1.RefreshControl"

// RefreshControlServer is the server API for the refresh control service.
// Payloads are well-known protobuf types so no generated code is needed.
type RefreshControlServer interface {
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetPhase(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Refresh(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListWatchlist(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	AddSymbol(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveSymbol(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// -----------------------------------------------------------------------------
// Service Descriptor
// -----------------------------------------------------------------------------

func unaryMethod[Req any](name string, call func(RefreshControlServer, context.Context, *Req) (*structpb.Struct, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(RefreshControlServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(RefreshControlServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var RefreshControlServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RefreshControlServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("GetState", RefreshControlServer.GetState),
		unaryMethod("GetPhase", RefreshControlServer.GetPhase),
		unaryMethod("Refresh", RefreshControlServer.Refresh),
		unaryMethod("ListWatchlist", RefreshControlServer.ListWatchlist),
		unaryMethod("AddSymbol", RefreshControlServer.AddSymbol),
		unaryMethod("RemoveSymbol", RefreshControlServer.RemoveSymbol),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nepse/control/v1/refresh_control.proto",
}

func RegisterRefreshControlServer(s grpc.ServiceRegistrar, srv RefreshControlServer) {
	s.RegisterService(&RefreshControlServiceDesc, srv)
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

type RefreshControlClient struct {
	cc grpc.ClientConnInterface
}

func NewRefreshControlClient(cc grpc.ClientConnInterface) *RefreshControlClient {
	return &RefreshControlClient{cc: cc}
}

func (c *RefreshControlClient) invoke(ctx context.Context, method string, in interface{}, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RefreshControlClient) GetState(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetState", &emptypb.Empty{}, opts...)
}

func (c *RefreshControlClient) GetPhase(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetPhase", &emptypb.Empty{}, opts...)
}

func (c *RefreshControlClient) Refresh(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Refresh", &emptypb.Empty{}, opts...)
}

func (c *RefreshControlClient) ListWatchlist(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListWatchlist", &emptypb.Empty{}, opts...)
}

func (c *RefreshControlClient) AddSymbol(ctx context.Context, symbol string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "AddSymbol", symbolRequest(symbol), opts...)
}

func (c *RefreshControlClient) RemoveSymbol(ctx context.Context, symbol string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "RemoveSymbol", symbolRequest(symbol), opts...)
}

func symbolRequest(symbol string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"symbol": structpb.NewStringValue(symbol),
	}}
}
